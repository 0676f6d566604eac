package models

import "time"

// AuditEntryKind 区分审计条目记录的是任务事件还是 agent 调用
type AuditEntryKind string

const (
	AuditKindTaskEvent AuditEntryKind = "TASK_EVENT"
	AuditKindAgentCall AuditEntryKind = "AGENT_CALL"
)

// Task lifecycle event names recorded as TASK_EVENT entries.
const (
	EventTaskStarted   = "TASK_STARTED"
	EventTaskCompleted = "TASK_COMPLETED"
	EventTaskEscalated = "TASK_ESCALATED"
	EventTaskFailed    = "TASK_FAILED"
)

// AuditEntry 是追加写入账本的单条不可变记录。
// Seq 由账本分配，进程内严格递增且不复用。
type AuditEntry struct {
	Seq       int64                  `bson:"_id" json:"entry_id"`
	TaskID    string                 `bson:"task_id" json:"task_id"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Kind      AuditEntryKind         `bson:"kind" json:"kind"`
	Event     string                 `bson:"event,omitempty" json:"event,omitempty"`         // TASK_EVENT: 事件名称
	Snapshot  *TaskState             `bson:"snapshot,omitempty" json:"snapshot,omitempty"`   // TASK_EVENT: 事件发生时的任务快照
	Agent     string                 `bson:"agent,omitempty" json:"agent,omitempty"`         // AGENT_CALL: agent 名称
	Direction CallDirection          `bson:"direction,omitempty" json:"direction,omitempty"` // AGENT_CALL: INPUT / OUTPUT
	Payload   map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`     // AGENT_CALL: 载荷快照
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
}

// Action returns the value this entry is grouped by in compliance exports:
// the event name for task events, the call direction for agent calls.
func (e *AuditEntry) Action() string {
	if e.Kind == AuditKindTaskEvent {
		return e.Event
	}
	return string(e.Direction)
}
