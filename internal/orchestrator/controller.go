package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/config"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/store"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/circuitbreaker"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

// ErrTaskNotFound is returned by GetTask for an unknown task ID.
var ErrTaskNotFound = errors.New("task not found")

// ErrorCodeExecution is the error code attached to tasks that failed inside
// an agent invocation.
const ErrorCodeExecution = "EXECUTION_ERROR"

// ValidationError reports a missing required submission field. It is the only
// submission failure that surfaces as a Go error: it is raised before any
// task state exists, so nothing is persisted or audited.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// Controller 是任务生命周期的编排器。它创建任务记录、向路由器索取调度计划、
// 依次调用 agent、把每次状态变更和 agent 调用写入审计账本、
// 对交易形状的结果运行合规检查，最终落定任务状态并返回结果。
// TaskState 只由 Controller 写入。
type Controller struct {
	store           store.TaskStore
	ledger          audit.Ledger
	registry        *agent.Registry
	evaluator       *audit.Evaluator
	escalateOnFlags bool
	agentTimeout    time.Duration
	breakerCfg      config.OrchestratorConfig
	logger          *logger.Logger

	breakerMu sync.Mutex
	breakers  map[string]circuitbreaker.CircuitBreaker
}

// New creates a Controller. One Controller is constructed at process start
// and shared by every entry point; it holds no per-task state.
func New(taskStore store.TaskStore, ledger audit.Ledger, registry *agent.Registry, evaluator *audit.Evaluator, cfg config.OrchestratorConfig, escalateOnFlags bool, log *logger.Logger) *Controller {
	return &Controller{
		store:           taskStore,
		ledger:          ledger,
		registry:        registry,
		evaluator:       evaluator,
		escalateOnFlags: escalateOnFlags,
		agentTimeout:    time.Duration(cfg.AgentTimeoutSeconds) * time.Second,
		breakerCfg:      cfg,
		logger:          log,
		breakers:        make(map[string]circuitbreaker.CircuitBreaker),
	}
}

// Submit processes one request end to end and always returns an Outcome for
// ordinary failures: a failed agent yields a failed-but-queryable task, not
// an error. Only precondition violations (missing required fields) return an
// error, and those fail fast before any task state is created.
func (c *Controller) Submit(ctx context.Context, userID, sessionID, page, actionKind string, payload map[string]interface{}) (*models.Outcome, error) {
	switch {
	case userID == "":
		return nil, &ValidationError{Field: "user_id"}
	case sessionID == "":
		return nil, &ValidationError{Field: "session_id"}
	case page == "":
		return nil, &ValidationError{Field: "page"}
	}
	if actionKind == "" {
		actionKind = "query"
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}

	now := time.Now().UTC()
	task := &models.TaskState{
		ID:         uuid.New().String(),
		UserID:     userID,
		SessionID:  sessionID,
		Page:       page,
		ActionKind: actionKind,
		Status:     models.TaskStatusPending,
		Inputs:     payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	taskLogger := logger.New("orchestrator", task.ID, userID)

	if err := c.store.Create(ctx, task); err != nil {
		taskLogger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create task in store")
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := c.transition(ctx, task, models.TaskStatusInProgress, models.EventTaskStarted); err != nil {
		return c.fail(ctx, task, ErrorCodeExecution, err.Error()), nil
	}
	taskLogger.WithPayload(map[string]interface{}{"page": page, "action_kind": actionKind}).Info("Task started")

	plan := Route(page)
	data, flags, invokeErr := c.dispatch(ctx, task, plan)
	if invokeErr != nil {
		taskLogger.WithError(models.ErrorInfo{Message: invokeErr.Error()}).Error("Task execution failed")
		return c.fail(ctx, task, ErrorCodeExecution, invokeErr.Error()), nil
	}

	task.Outputs = data
	task.Flags = flags
	terminal := models.TaskStatusCompleted
	event := models.EventTaskCompleted
	if len(flags) > 0 && c.escalateOnFlags {
		// Escalation is advisory: the computed output stays attached, the
		// review marker travels with it.
		task.RequiresReview = true
		terminal = models.TaskStatusEscalated
		event = models.EventTaskEscalated
	}
	if err := c.transition(ctx, task, terminal, event); err != nil {
		return c.fail(ctx, task, ErrorCodeExecution, err.Error()), nil
	}
	taskLogger.WithPayload(map[string]interface{}{"status": task.Status, "flags": len(flags)}).Info("Task finished")

	return &models.Outcome{
		Success:        true,
		TaskID:         task.ID,
		Data:           data,
		RequiresReview: task.RequiresReview,
		Flags:          flags,
		Timestamp:      task.UpdatedAt,
	}, nil
}

// dispatch runs the plan. Any agent failure aborts the remaining plan: no
// partial continuation, the error maps to a FAILED task.
func (c *Controller) dispatch(ctx context.Context, task *models.TaskState, plan Plan) (map[string]interface{}, []models.ComplianceFlag, error) {
	if !plan.FanOut {
		name := plan.Agents[0]
		result, err := c.invoke(ctx, task, name, task.Inputs)
		if err != nil {
			return nil, nil, err
		}
		return result, c.evaluateCompliance(task.ActionKind, result), nil
	}

	// Fan-out: every agent invoked exactly once in the fixed order, results
	// aggregated by agent name. Pricing sees the inventory sub-result; the
	// audit agent sees everything collected so far.
	results := make(map[string]interface{}, len(plan.Agents))
	var flags []models.ComplianceFlag
	var inventoryResult map[string]interface{}
	for _, name := range plan.Agents {
		input := task.Inputs
		switch name {
		case agent.NameInventory:
			input = map[string]interface{}{"context": task.Inputs}
		case agent.NamePricing:
			input = map[string]interface{}{"inventory": inventoryResult, "context": task.Inputs}
		case agent.NameAudit:
			input = map[string]interface{}{"agents": results, "task_id": task.ID}
		}

		result, err := c.invoke(ctx, task, name, input)
		if err != nil {
			return nil, nil, err
		}
		results[name] = result
		if name == agent.NameInventory {
			inventoryResult = result
		}
		flags = append(flags, c.evaluateCompliance(task.ActionKind, result)...)
	}
	return results, flags, nil
}

// invoke runs one agent call through its circuit breaker and a bounded
// context, recording the INPUT audit entry before and the OUTPUT entry after.
func (c *Controller) invoke(ctx context.Context, task *models.TaskState, name string, payload map[string]interface{}) (map[string]interface{}, error) {
	a, found := c.registry.Get(name)
	if !found {
		return nil, fmt.Errorf("agent %q is not registered", name)
	}

	if err := c.auditCall(ctx, task, name, models.CallDirectionInput, payload); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.agentTimeout)
	defer cancel()

	res, err := c.breakerFor(name).Execute(func() (interface{}, error) {
		return a.Handle(callCtx, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	result, ok := res.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("agent %s returned an unexpected result type", name)
	}

	if err := c.auditCall(ctx, task, name, models.CallDirectionOutput, result); err != nil {
		return nil, err
	}
	return result, nil
}

// auditCall appends an AGENT_CALL ledger entry and mirrors it on the task's
// own call list.
func (c *Controller) auditCall(ctx context.Context, task *models.TaskState, name string, direction models.CallDirection, payload map[string]interface{}) error {
	now := time.Now().UTC()
	task.AgentCalls = append(task.AgentCalls, models.AgentCall{
		Agent:     name,
		Direction: direction,
		Payload:   payload,
		Timestamp: now,
	})
	_, err := c.ledger.Append(ctx, &models.AuditEntry{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Kind:      models.AuditKindAgentCall,
		Agent:     name,
		Direction: direction,
		Payload:   payload,
		Timestamp: now,
	})
	if err != nil {
		return fmt.Errorf("failed to audit %s call for agent %s: %w", direction, name, err)
	}
	return nil
}

// transition advances the task status, persists it, and writes the TASK_EVENT
// entry with a snapshot of the state at the time of the event.
func (c *Controller) transition(ctx context.Context, task *models.TaskState, to models.TaskStatus, event string) error {
	if !models.CanTransition(task.Status, to) {
		return fmt.Errorf("illegal status transition %s -> %s", task.Status, to)
	}
	task.Status = to
	task.UpdatedAt = time.Now().UTC()

	if err := c.store.Update(ctx, task); err != nil {
		// The audit trail still gets the event; a store lag is recoverable,
		// a missing audit entry is not.
		c.logger.WithError(models.ErrorInfo{Message: err.Error()}).
			WithPayload(map[string]interface{}{"taskID": task.ID, "status": to}).
			Error("Failed to persist task transition")
	}

	_, err := c.ledger.Append(ctx, &models.AuditEntry{
		TaskID:    task.ID,
		UserID:    task.UserID,
		Kind:      models.AuditKindTaskEvent,
		Event:     event,
		Snapshot:  task.Snapshot(),
		Timestamp: task.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to audit task event %s: %w", event, err)
	}
	return nil
}

// fail drives the task into its FAILED terminal state. Failures here are
// fully audited; the outcome still carries the task ID so the task remains
// queryable.
func (c *Controller) fail(ctx context.Context, task *models.TaskState, code, message string) *models.Outcome {
	task.Error = &models.ErrorDescriptor{Code: code, Message: message}
	if task.Status == models.TaskStatusInProgress {
		if err := c.transition(ctx, task, models.TaskStatusFailed, models.EventTaskFailed); err != nil {
			c.logger.WithError(models.ErrorInfo{Message: err.Error()}).
				WithPayload(map[string]interface{}{"taskID": task.ID}).
				Error("Failed to record task failure")
		}
	}
	return &models.Outcome{
		Success:   false,
		TaskID:    task.ID,
		Error:     task.Error,
		Timestamp: task.UpdatedAt,
	}
}

// evaluateCompliance runs the evaluator over a transaction-shaped result. The
// agent's own result map, or its nested "data" member, qualifies when it
// carries before/after state or an amount.
func (c *Controller) evaluateCompliance(actionKind string, result map[string]interface{}) []models.ComplianceFlag {
	for _, candidate := range []interface{}{result, result["data"]} {
		m, ok := candidate.(map[string]interface{})
		if !ok {
			continue
		}
		_, hasBefore := m["before_state"]
		_, hasAfter := m["after_state"]
		_, hasAmount := m["amount"]
		if !hasBefore && !hasAfter && !hasAmount {
			continue
		}
		return c.evaluator.Evaluate(actionKind, asMap(m["before_state"]), asMap(m["after_state"]), m["amount"])
	}
	return nil
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

// breakerFor lazily creates the per-agent circuit breaker.
func (c *Controller) breakerFor(name string) circuitbreaker.CircuitBreaker {
	c.breakerMu.Lock()
	defer c.breakerMu.Unlock()
	cb, ok := c.breakers[name]
	if !ok {
		cb = circuitbreaker.New(
			c.breakerCfg.BreakerFailureThreshold,
			c.breakerCfg.BreakerSuccessThreshold,
			time.Duration(c.breakerCfg.BreakerTimeoutSeconds)*time.Second,
		)
		c.breakers[name] = cb
	}
	return cb
}

// GetTask retrieves a task by ID. An unknown ID is ErrTaskNotFound; no state
// is mutated by a lookup.
func (c *Controller) GetTask(ctx context.Context, taskID string) (*models.TaskState, error) {
	task, err := c.store.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// GetAuditTrail queries the ledger, newest-first.
func (c *Controller) GetAuditTrail(ctx context.Context, filter audit.Filter) ([]*models.AuditEntry, error) {
	return c.ledger.Query(ctx, filter)
}

// ExportAuditRange aggregates ledger entries for compliance reporting.
func (c *Controller) ExportAuditRange(ctx context.Context, start, end time.Time) (*audit.ExportSummary, error) {
	return c.ledger.ExportRange(ctx, start, end)
}
