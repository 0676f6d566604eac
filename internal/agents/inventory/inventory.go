// Package inventory implements the agent that manages stock levels, SKUs and
// reorder recommendations.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/payload"
)

// dailyDemandRate is the flat consumption estimate used by the demand
// forecast until real sales history feeds it.
const dailyDemandRate = 2.0

// Agent handles inventory queries and mutations against a product catalog.
type Agent struct {
	catalog Catalog
}

// New creates the inventory agent over the given catalog.
func New(catalog Catalog) *Agent {
	return &Agent{catalog: catalog}
}

// Metadata describes the agent for the registry.
func (a *Agent) Metadata() agent.Metadata {
	return agent.Metadata{
		Name:              agent.NameInventory,
		Capability:        "Queries and updates stock levels, forecasts demand and checks reorder thresholds",
		InputDescription:  "action (query|update|forecast|reorder) plus sku/quantity/operation fields",
		OutputDescription: "status envelope with the requested inventory data",
	}
}

// Handle dispatches on the requested action. Unknown SKUs and similar domain
// misses come back as error-shaped results, not Go errors.
func (a *Agent) Handle(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	switch action := payload.StringOr(req, "action", "query"); action {
	case "query":
		return a.query(ctx, req)
	case "update":
		return a.update(ctx, req)
	case "forecast":
		return a.forecast(ctx, req)
	case "reorder":
		return a.reorderCheck(ctx, req)
	default:
		return payload.Error(fmt.Sprintf("Unknown action: %s", action)), nil
	}
}

func (a *Agent) query(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	sku := payload.String(req, "sku")
	if sku != "" {
		product, err := a.catalog.Get(ctx, sku)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return payload.Error(fmt.Sprintf("SKU %s not found", sku)), nil
		}
		return payload.Success(productFields(product, true)), nil
	}

	products, err := a.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]interface{}, 0, len(products))
	for _, p := range products {
		items = append(items, productFields(p, false))
	}
	return map[string]interface{}{"status": "success", "data": items, "count": len(items)}, nil
}

func (a *Agent) update(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	sku := payload.String(req, "sku")
	quantity, hasQty := payload.Int(req, "quantity")
	if sku == "" || !hasQty {
		return payload.Error("sku and quantity required"), nil
	}

	product, err := a.catalog.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return payload.Error(fmt.Sprintf("SKU %s not found", sku)), nil
	}

	oldQty := product.Quantity
	operation := payload.StringOr(req, "operation", "set")
	switch operation {
	case "set":
		product.Quantity = quantity
	case "add":
		product.Quantity += quantity
	case "subtract":
		product.Quantity -= quantity
		if product.Quantity < 0 {
			product.Quantity = 0
		}
	default:
		return payload.Error(fmt.Sprintf("Unknown operation: %s", operation)), nil
	}
	product.LastUpdated = time.Now().UTC()

	if err := a.catalog.Save(ctx, product); err != nil {
		return nil, err
	}

	return payload.Success(map[string]interface{}{
		"sku":          sku,
		"old_quantity": oldQty,
		"new_quantity": product.Quantity,
		"operation":    operation,
		"updated_at":   product.LastUpdated,
	}), nil
}

func (a *Agent) forecast(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	sku := payload.String(req, "sku")
	horizonDays := payload.IntOr(req, "horizon_days", 30)

	product, err := a.catalog.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	if sku == "" || product == nil {
		return payload.Error("SKU not specified or not found"), nil
	}

	remaining := float64(product.Quantity) - dailyDemandRate*float64(horizonDays)
	if remaining < 0 {
		remaining = 0
	}

	return payload.Success(map[string]interface{}{
		"sku":                   sku,
		"product_name":          product.ProductName,
		"current_quantity":      product.Quantity,
		"forecast_horizon_days": horizonDays,
		"estimated_remaining":   remaining,
		"days_until_stockout":   int(float64(product.Quantity) / dailyDemandRate),
	}), nil
}

func (a *Agent) reorderCheck(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	threshold := payload.IntOr(req, "threshold", 50)

	products, err := a.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	toReorder := make([]map[string]interface{}, 0)
	for _, p := range products {
		if p.Quantity < threshold {
			toReorder = append(toReorder, map[string]interface{}{
				"sku":                   p.SKU,
				"product_name":          p.ProductName,
				"current_quantity":      p.Quantity,
				"recommended_order_qty": threshold * 3,
			})
		}
	}

	return payload.Success(map[string]interface{}{
		"threshold":             threshold,
		"items_needing_reorder": toReorder,
		"count":                 len(toReorder),
	}), nil
}

func productFields(p *Product, includeTimestamp bool) map[string]interface{} {
	fields := map[string]interface{}{
		"sku":                p.SKU,
		"product_name":       p.ProductName,
		"quantity":           p.Quantity,
		"unit_price":         p.UnitPrice,
		"warehouse_location": p.WarehouseLocation,
	}
	if includeTimestamp {
		fields["last_updated"] = p.LastUpdated
	}
	return fields
}
