package inventory

import (
	"context"
	"testing"
)

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	if result["status"] != "success" {
		t.Fatalf("expected success result, got %+v", result)
	}
	d, ok := result["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("result data has unexpected shape: %+v", result["data"])
	}
	return d
}

func TestQueryBySKU(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "query", "sku": "SKU001"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if d["product_name"] != "Widget Pro" || d["quantity"] != 150 {
		t.Errorf("unexpected product data: %+v", d)
	}
}

func TestQueryAll(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "query"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result["count"] != 3 {
		t.Errorf("expected the 3 seeded products, got %v", result["count"])
	}
}

func TestQueryUnknownSKUIsErrorShaped(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "query", "sku": "SKU999"})
	if err != nil {
		t.Fatalf("domain misses must not be Go errors, got %v", err)
	}
	if result["status"] != "error" {
		t.Errorf("expected error-shaped result, got %+v", result)
	}
}

func TestUpdateOperations(t *testing.T) {
	cases := []struct {
		operation string
		quantity  int
		want      int
	}{
		{"set", 75, 75},
		{"add", 10, 160},      // seed is 150
		{"subtract", 50, 100},
	}
	for _, tc := range cases {
		a := New(NewMemoryCatalog())
		result, err := a.Handle(context.Background(), map[string]interface{}{
			"action": "update", "sku": "SKU001", "operation": tc.operation, "quantity": tc.quantity,
		})
		if err != nil {
			t.Fatalf("%s: Handle() error = %v", tc.operation, err)
		}
		d := data(t, result)
		if d["old_quantity"] != 150 {
			t.Errorf("%s: old quantity = %v, want 150", tc.operation, d["old_quantity"])
		}
		if d["new_quantity"] != tc.want {
			t.Errorf("%s: new quantity = %v, want %d", tc.operation, d["new_quantity"], tc.want)
		}
	}
}

func TestUpdateSubtractFloorsAtZero(t *testing.T) {
	a := New(NewMemoryCatalog())

	// SKU003 seeds at 5.
	result, err := a.Handle(context.Background(), map[string]interface{}{
		"action": "update", "sku": "SKU003", "operation": "subtract", "quantity": 20,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if d := data(t, result); d["new_quantity"] != 0 {
		t.Errorf("quantity should floor at zero, got %v", d["new_quantity"])
	}
}

func TestUpdatePersistsAcrossCalls(t *testing.T) {
	a := New(NewMemoryCatalog())
	ctx := context.Background()

	if _, err := a.Handle(ctx, map[string]interface{}{"action": "update", "sku": "SKU002", "operation": "set", "quantity": 7}); err != nil {
		t.Fatal(err)
	}
	result, err := a.Handle(ctx, map[string]interface{}{"action": "query", "sku": "SKU002"})
	if err != nil {
		t.Fatal(err)
	}
	if d := data(t, result); d["quantity"] != 7 {
		t.Errorf("update not persisted: %v", d["quantity"])
	}
}

func TestForecast(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{
		"action": "forecast", "sku": "SKU001", "horizon_days": 30,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	// 150 on hand minus 2/day over 30 days.
	if d["estimated_remaining"] != 90.0 {
		t.Errorf("estimated remaining = %v, want 90", d["estimated_remaining"])
	}
	if d["days_until_stockout"] != 75 {
		t.Errorf("days until stockout = %v, want 75", d["days_until_stockout"])
	}
}

func TestReorderCheck(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "reorder", "threshold": 50})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	// SKU002 (45) and SKU003 (5) sit below 50; SKU001 (150) does not.
	if d["count"] != 2 {
		t.Fatalf("expected 2 items needing reorder, got %v", d["count"])
	}
	items := d["items_needing_reorder"].([]map[string]interface{})
	for _, item := range items {
		if item["recommended_order_qty"] != 150 {
			t.Errorf("recommended order qty = %v, want threshold*3", item["recommended_order_qty"])
		}
	}
}

func TestUnknownAction(t *testing.T) {
	a := New(NewMemoryCatalog())

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "explode"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result["status"] != "error" {
		t.Errorf("unknown action should be error-shaped, got %+v", result)
	}
}
