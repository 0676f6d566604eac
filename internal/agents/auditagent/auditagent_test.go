package auditagent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/config"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

func newTestAgent() (*Agent, *audit.MemoryLedger) {
	ledger := audit.NewMemoryLedger()
	evaluator := audit.NewEvaluator(config.ComplianceConfig{MaxPriceChangePercent: 50, HighAmountThreshold: 1000})
	return New(ledger, evaluator), ledger
}

func data(t *testing.T, result map[string]interface{}) map[string]interface{} {
	t.Helper()
	if result["status"] != "success" {
		t.Fatalf("expected success result, got %+v", result)
	}
	return result["data"].(map[string]interface{})
}

func TestLogTransaction(t *testing.T) {
	a, ledger := newTestAgent()

	result, err := a.Handle(context.Background(), map[string]interface{}{
		"action":             "log",
		"transaction_action": "UPDATE",
		"task_id":            "t1",
		"user_id":            "alice",
		"entity_type":        "Product",
		"entity_id":          "SKU001",
		"before_state":       map[string]interface{}{"price": 100.0},
		"after_state":        map[string]interface{}{"price": 105.0},
		"reason":             "price adjustment",
		"agent_name":         "pricing",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if !strings.HasPrefix(d["entry_id"].(string), "AUDIT_") {
		t.Errorf("entry id = %v", d["entry_id"])
	}
	if d["requires_review"] != false {
		t.Errorf("a 5%% price change should not require review: %+v", d)
	}

	// The transaction landed in the shared ledger.
	entries, _ := ledger.Query(context.Background(), audit.Filter{TaskID: "t1"})
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Event != "UPDATE" || entry.UserID != "alice" {
		t.Errorf("entry fields wrong: %+v", entry)
	}
	if entry.Payload["entity_id"] != "SKU001" {
		t.Errorf("entry payload wrong: %+v", entry.Payload)
	}
}

func TestLogTransactionFlagsCompliance(t *testing.T) {
	a, _ := newTestAgent()

	result, err := a.Handle(context.Background(), map[string]interface{}{
		"action":             "log",
		"transaction_action": "DELETE",
		"task_id":            "t1",
		"user_id":            "alice",
		"amount":             5000.0,
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if d["requires_review"] != true {
		t.Fatalf("a flagged transaction requires review: %+v", d)
	}
	flags := d["compliance_flags"].([]models.ComplianceFlag)
	if len(flags) != 2 { // HIGH_AMOUNT and DELETE_OPERATION
		t.Errorf("expected 2 flags, got %+v", flags)
	}
}

func TestQueryFiltersAndCounts(t *testing.T) {
	a, _ := newTestAgent()
	ctx := context.Background()

	for _, userID := range []string{"alice", "alice", "bob"} {
		if _, err := a.Handle(ctx, map[string]interface{}{
			"action": "log", "transaction_action": "CREATE", "task_id": "t1", "user_id": userID,
		}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := a.Handle(ctx, map[string]interface{}{"action": "query", "user_id": "alice"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if d["count"] != 2 {
		t.Errorf("expected 2 entries for alice, got %v", d["count"])
	}
	entries := d["entries"].([]map[string]interface{})
	for _, e := range entries {
		if e["user_id"] != "alice" {
			t.Errorf("foreign entry in filtered query: %+v", e)
		}
	}
}

func TestComplianceCheckDoesNotLog(t *testing.T) {
	a, ledger := newTestAgent()

	result, err := a.Handle(context.Background(), map[string]interface{}{
		"action":             "compliance_check",
		"transaction_action": "UPDATE",
		"before_state":       map[string]interface{}{"price": 100.0},
		"after_state":        map[string]interface{}{"price": 200.0},
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if d["compliant"] != false || d["requires_approval"] != true {
		t.Errorf("100%% price change should fail the check: %+v", d)
	}

	// Pure check: nothing written.
	entries, _ := ledger.Query(context.Background(), audit.Filter{})
	if len(entries) != 0 {
		t.Errorf("compliance_check must not append entries, found %d", len(entries))
	}

	clean, _ := a.Handle(context.Background(), map[string]interface{}{
		"action":             "compliance_check",
		"transaction_action": "CREATE",
		"amount":             10.0,
	})
	if d := data(t, clean); d["compliant"] != true {
		t.Errorf("benign transaction should be compliant: %+v", d)
	}
}

func TestExportSummarizesRange(t *testing.T) {
	a, ledger := newTestAgent()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, userID := range []string{"alice", "bob"} {
		if _, err := ledger.Append(ctx, &models.AuditEntry{
			TaskID: "t1", UserID: userID, Kind: models.AuditKindTaskEvent,
			Event: "CREATE", Timestamp: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := a.Handle(ctx, map[string]interface{}{
		"action":     "export",
		"start_date": "2026-05-01T00:00:00Z",
		"end_date":   "2026-05-02T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	d := data(t, result)
	if d["total_entries"] != 2 {
		t.Errorf("expected 2 entries in range, got %v", d["total_entries"])
	}

	bad, _ := a.Handle(ctx, map[string]interface{}{"action": "export", "start_date": "yesterday"})
	if bad["status"] != "error" {
		t.Errorf("unparseable dates should be error-shaped, got %+v", bad)
	}
}

func TestUnknownActionIsErrorShaped(t *testing.T) {
	a, _ := newTestAgent()

	result, err := a.Handle(context.Background(), map[string]interface{}{"action": "tamper"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if result["status"] != "error" {
		t.Errorf("unknown action should be error-shaped, got %+v", result)
	}
}
