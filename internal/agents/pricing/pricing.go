// Package pricing implements the agent that applies pricing rules, discounts
// and dynamic price recommendations.
package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/payload"
)

// Rule 是一条定价规则。
type Rule struct {
	RuleID          string                 `json:"rule_id"`
	Name            string                 `json:"name"`
	RuleType        string                 `json:"rule_type"` // "volume", "seasonal", "dynamic", "promotional"
	Condition       map[string]interface{} `json:"condition"`
	DiscountPercent float64                `json:"discount_percent"`
	Active          bool                   `json:"active"`
}

// Agent handles pricing calculations over its configured rules and base
// prices. now is injectable so seasonal rules stay testable.
type Agent struct {
	mu         sync.RWMutex
	rules      map[string]Rule
	ruleOrder  []string
	basePrices map[string]float64
	now        func() time.Time
}

// New creates the pricing agent with the default rules and price list.
func New() *Agent {
	return &Agent{
		rules: map[string]Rule{
			"RULE001": {
				RuleID:          "RULE001",
				Name:            "Volume Discount",
				RuleType:        "volume",
				Condition:       map[string]interface{}{"min_quantity": 10},
				DiscountPercent: 10,
				Active:          true,
			},
			"RULE002": {
				RuleID:          "RULE002",
				Name:            "Summer Promotion",
				RuleType:        "seasonal",
				Condition:       map[string]interface{}{"months": []interface{}{6, 7, 8}},
				DiscountPercent: 15,
				Active:          true,
			},
		},
		ruleOrder:  []string{"RULE001", "RULE002"},
		basePrices: map[string]float64{"SKU001": 29.99, "SKU002": 19.99, "SKU003": 199.99},
		now:        time.Now,
	}
}

// WithClock overrides the time source. For tests.
func (a *Agent) WithClock(now func() time.Time) *Agent {
	a.now = now
	return a
}

// Metadata describes the agent for the registry.
func (a *Agent) Metadata() agent.Metadata {
	return agent.Metadata{
		Name:              agent.NamePricing,
		Capability:        "Calculates prices with discounts, applies rules and recommends dynamic pricing",
		InputDescription:  "action (calculate|apply_discount|recommend|rules) plus sku/quantity/inventory fields",
		OutputDescription: "status envelope with the computed pricing data",
	}
}

// Handle dispatches on the requested action.
func (a *Agent) Handle(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	switch action := payload.StringOr(req, "action", "calculate"); action {
	case "calculate":
		return a.calculate(req), nil
	case "apply_discount":
		return a.applyDiscount(req), nil
	case "recommend":
		return a.recommend(req), nil
	case "rules":
		return a.listRules(), nil
	default:
		return payload.Error(fmt.Sprintf("Unknown action: %s", action)), nil
	}
}

func (a *Agent) calculate(req map[string]interface{}) map[string]interface{} {
	sku := payload.String(req, "sku")
	quantity := payload.IntOr(req, "quantity", 1)

	a.mu.RLock()
	defer a.mu.RUnlock()

	basePrice, ok := a.basePrices[sku]
	if !ok {
		return payload.Error(fmt.Sprintf("SKU %s not found", sku))
	}

	applicable := a.applicableRules(quantity)
	// Discounts do not stack: the best single rule wins.
	var discountPercent float64
	ruleIDs := make([]string, 0, len(applicable))
	for _, rule := range applicable {
		if rule.DiscountPercent > discountPercent {
			discountPercent = rule.DiscountPercent
		}
		ruleIDs = append(ruleIDs, rule.RuleID)
	}

	finalPrice := basePrice * (1 - discountPercent/100)
	return payload.Success(map[string]interface{}{
		"sku":                       sku,
		"base_price":                basePrice,
		"quantity":                  quantity,
		"discount_percent":          discountPercent,
		"unit_price_after_discount": finalPrice,
		"total_cost":                finalPrice * float64(quantity),
		"savings":                   (basePrice - finalPrice) * float64(quantity),
		"applicable_rules":          ruleIDs,
	})
}

func (a *Agent) applyDiscount(req map[string]interface{}) map[string]interface{} {
	sku := payload.String(req, "sku")
	ruleID := payload.String(req, "rule_id")
	quantity := payload.IntOr(req, "quantity", 1)

	a.mu.RLock()
	defer a.mu.RUnlock()

	rule, ok := a.rules[ruleID]
	if !ok {
		return payload.Error(fmt.Sprintf("Rule %s not found", ruleID))
	}
	if !rule.Active {
		return payload.Error(fmt.Sprintf("Rule %s is not active", ruleID))
	}

	basePrice := a.basePrices[sku]
	discounted := basePrice * (1 - rule.DiscountPercent/100)
	return payload.Success(map[string]interface{}{
		"sku":              sku,
		"rule_id":          ruleID,
		"rule_name":        rule.Name,
		"base_price":       basePrice,
		"discount_percent": rule.DiscountPercent,
		"discounted_price": discounted,
		"quantity":         quantity,
		"total_cost":       discounted * float64(quantity),
	})
}

func (a *Agent) recommend(req map[string]interface{}) map[string]interface{} {
	sku := payload.String(req, "sku")
	inventoryLevels := payload.Map(req, "inventory")

	a.mu.RLock()
	defer a.mu.RUnlock()

	basePrice, ok := a.basePrices[sku]
	if !ok {
		return payload.Error(fmt.Sprintf("SKU %s not found", sku))
	}

	currentQty := 0
	if inventoryLevels != nil {
		currentQty = payload.IntOr(inventoryLevels, sku, 0)
	}

	// Low stock commands a premium, surplus stock gets discounted to move.
	recommendation := basePrice
	rationale := "Normal pricing"
	switch {
	case currentQty < 10:
		recommendation = basePrice * 1.15
		rationale = "Low stock: premium pricing to optimize revenue"
	case currentQty > 100:
		recommendation = basePrice * 0.85
		rationale = "High stock: discounted pricing to move inventory"
	}

	return payload.Success(map[string]interface{}{
		"sku":                  sku,
		"current_price":        basePrice,
		"recommended_price":    recommendation,
		"price_change_percent": (recommendation - basePrice) / basePrice * 100,
		"current_inventory":    currentQty,
		"rationale":            rationale,
	})
}

func (a *Agent) listRules() map[string]interface{} {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rulesData := make([]map[string]interface{}, 0, len(a.ruleOrder))
	activeCount := 0
	for _, id := range a.ruleOrder {
		rule := a.rules[id]
		if rule.Active {
			activeCount++
		}
		rulesData = append(rulesData, map[string]interface{}{
			"rule_id":          rule.RuleID,
			"name":             rule.Name,
			"type":             rule.RuleType,
			"discount_percent": rule.DiscountPercent,
			"active":           rule.Active,
		})
	}

	return payload.Success(map[string]interface{}{
		"rules":        rulesData,
		"count":        len(rulesData),
		"active_count": activeCount,
	})
}

// applicableRules collects the active rules whose conditions hold. Callers
// hold the read lock.
func (a *Agent) applicableRules(quantity int) []Rule {
	currentMonth := int(a.now().Month())

	var applicable []Rule
	for _, id := range a.ruleOrder {
		rule := a.rules[id]
		if !rule.Active {
			continue
		}
		switch rule.RuleType {
		case "volume":
			if quantity >= payload.IntOr(rule.Condition, "min_quantity", 0) {
				applicable = append(applicable, rule)
			}
		case "seasonal":
			months, _ := rule.Condition["months"].([]interface{})
			for _, m := range months {
				if month, ok := payload.AsFloat(m); ok && int(month) == currentMonth {
					applicable = append(applicable, rule)
					break
				}
			}
		}
	}
	return applicable
}
