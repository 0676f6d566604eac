// Package auditagent exposes the shared audit ledger and compliance
// evaluator as a domain agent: transactions can be logged, queried, checked
// and exported through the same dispatch path as every other capability.
package auditagent

import (
	"context"
	"fmt"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agents/payload"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// Agent handles audit and compliance requests against the shared ledger.
type Agent struct {
	ledger    audit.Ledger
	evaluator *audit.Evaluator
}

// New creates the audit agent over the shared ledger and evaluator.
func New(ledger audit.Ledger, evaluator *audit.Evaluator) *Agent {
	return &Agent{ledger: ledger, evaluator: evaluator}
}

// Metadata describes the agent for the registry.
func (a *Agent) Metadata() agent.Metadata {
	return agent.Metadata{
		Name:              agent.NameAudit,
		Capability:        "Logs business transactions, runs compliance checks and exports audit summaries",
		InputDescription:  "action (log|query|compliance_check|export) plus transaction fields",
		OutputDescription: "status envelope with entry references, compliance flags or export summaries",
	}
}

// Handle dispatches on the requested action.
func (a *Agent) Handle(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	switch action := payload.StringOr(req, "action", "log"); action {
	case "log":
		return a.logTransaction(ctx, req)
	case "query":
		return a.query(ctx, req)
	case "compliance_check":
		return a.complianceCheck(req), nil
	case "export":
		return a.export(ctx, req)
	default:
		return payload.Error(fmt.Sprintf("Unknown action: %s", action)), nil
	}
}

// logTransaction records a business transaction as a TASK_EVENT whose event
// name is the transaction action, with the transaction details in the entry
// payload. Compliance checks run on the way in so the caller learns about
// review requirements immediately.
func (a *Agent) logTransaction(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	action := payload.StringOr(req, "transaction_action", "UNKNOWN")
	before := payload.Map(req, "before_state")
	after := payload.Map(req, "after_state")

	flags := a.evaluator.Evaluate(action, before, after, req["amount"])

	entry := &models.AuditEntry{
		TaskID: payload.StringOr(req, "task_id", "N/A"),
		UserID: payload.StringOr(req, "user_id", "system"),
		Kind:   models.AuditKindTaskEvent,
		Event:  action,
		Payload: map[string]interface{}{
			"entity_type":  payload.StringOr(req, "entity_type", "Unknown"),
			"entity_id":    payload.StringOr(req, "entity_id", "N/A"),
			"before_state": before,
			"after_state":  after,
			"reason":       payload.StringOr(req, "reason", "No reason provided"),
			"agent_name":   payload.StringOr(req, "agent_name", "Unknown"),
		},
		Timestamp: time.Now().UTC(),
	}

	seq, err := a.ledger.Append(ctx, entry)
	if err != nil {
		return nil, err
	}

	return payload.Success(map[string]interface{}{
		"entry_id":         fmt.Sprintf("AUDIT_%06d", seq),
		"logged_at":        entry.Timestamp,
		"compliance_flags": flags,
		"requires_review":  len(flags) > 0,
	}), nil
}

func (a *Agent) query(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	filter := audit.Filter{
		TaskID: payload.String(req, "task_id"),
		UserID: payload.String(req, "user_id"),
		Agent:  payload.String(req, "agent_name"),
		Event:  payload.String(req, "transaction_action"),
		Limit:  payload.IntOr(req, "limit", audit.DefaultQueryLimit),
	}

	entries, err := a.ledger.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	entriesData := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		entriesData = append(entriesData, map[string]interface{}{
			"entry_id":  e.Seq,
			"task_id":   e.TaskID,
			"user_id":   e.UserID,
			"kind":      e.Kind,
			"action":    e.Action(),
			"timestamp": e.Timestamp,
		})
	}

	return payload.Success(map[string]interface{}{
		"entries": entriesData,
		"count":   len(entriesData),
		"filters_applied": map[string]interface{}{
			"task_id": filter.TaskID,
			"user_id": filter.UserID,
			"agent":   filter.Agent,
			"action":  filter.Event,
		},
	}), nil
}

func (a *Agent) complianceCheck(req map[string]interface{}) map[string]interface{} {
	flags := a.evaluator.Evaluate(
		payload.String(req, "transaction_action"),
		payload.Map(req, "before_state"),
		payload.Map(req, "after_state"),
		req["amount"],
	)
	return payload.Success(map[string]interface{}{
		"compliant":         len(flags) == 0,
		"flags":             flags,
		"requires_approval": len(flags) > 0,
	})
}

func (a *Agent) export(ctx context.Context, req map[string]interface{}) (map[string]interface{}, error) {
	start, err := parseTime(payload.String(req, "start_date"))
	if err != nil {
		return payload.Error(fmt.Sprintf("Invalid start_date: %v", err)), nil
	}
	end, err := parseTime(payload.String(req, "end_date"))
	if err != nil {
		return payload.Error(fmt.Sprintf("Invalid end_date: %v", err)), nil
	}

	summary, err := a.ledger.ExportRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return payload.Success(map[string]interface{}{
		"total_entries":    summary.TotalEntries,
		"date_range":       map[string]interface{}{"start": payload.String(req, "start_date"), "end": payload.String(req, "end_date")},
		"user_summary":     summary.UserSummary,
		"export_timestamp": summary.ExportedAt,
	}), nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
