package models

import (
	"time"
)

// TaskStatus 定义了任务的几种可能状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusEscalated  TaskStatus = "escalated"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusEscalated, TaskStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the task state machine permits moving from
// one status to another. Statuses only ever move forward: pending tasks start
// running, and running tasks settle into exactly one terminal status.
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusInProgress
	case TaskStatusInProgress:
		return to.IsTerminal()
	default:
		return false
	}
}

// CallDirection 标记 agent 调用记录是输入还是输出
type CallDirection string

const (
	CallDirectionInput  CallDirection = "INPUT"
	CallDirectionOutput CallDirection = "OUTPUT"
)

// AgentCall 记录一次对 agent 的调用（输入或输出快照）
type AgentCall struct {
	Agent     string                 `bson:"agent" json:"agent"`
	Direction CallDirection          `bson:"direction" json:"direction"`
	Payload   map[string]interface{} `bson:"payload" json:"payload"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
}

// ErrorDescriptor 是任务失败时附带的机器可读错误描述
type ErrorDescriptor struct {
	Code    string `bson:"code" json:"code"`
	Message string `bson:"message" json:"message"`
}

// TaskState 代表一个持久化的任务记录，由编排器独占写入
type TaskState struct {
	ID             string                 `bson:"_id" json:"task_id"`                            // 任务唯一ID (UUID string)
	UserID         string                 `bson:"user_id" json:"user_id"`                        // 提交任务的用户ID
	SessionID      string                 `bson:"session_id" json:"session_id"`                  // 前端会话ID
	Page           string                 `bson:"page" json:"page"`                              // 路由上下文（前端页面/类别）
	ActionKind     string                 `bson:"action_kind" json:"action_kind"`                // 动作类型 (query, command, CREATE, UPDATE, DELETE...)
	Status         TaskStatus             `bson:"status" json:"status"`                          // 任务当前状态
	Inputs         map[string]interface{} `bson:"inputs" json:"inputs"`                          // 任务的输入
	Outputs        map[string]interface{} `bson:"outputs,omitempty" json:"outputs,omitempty"`    // 任务成功后的输出结果
	AgentCalls     []AgentCall            `bson:"agent_calls" json:"agent_calls"`                // 按序记录的 agent 调用
	RequiresReview bool                   `bson:"requires_review" json:"requires_review"`        // 合规标记触发升级时为 true
	Flags          []ComplianceFlag       `bson:"flags,omitempty" json:"flags,omitempty"`        // 合规检查产生的标记
	Error          *ErrorDescriptor       `bson:"error,omitempty" json:"error,omitempty"`        // 任务失败时的错误信息
	CreatedAt      time.Time              `bson:"created_at" json:"created_at"`                  // 任务创建时间
	UpdatedAt      time.Time              `bson:"updated_at" json:"updated_at"`                  // 最后一次状态变更时间
}

// Snapshot returns a shallow copy of the task state suitable for embedding in
// an audit entry. Audit entries must not alias the live, still-mutating task.
func (t *TaskState) Snapshot() *TaskState {
	cp := *t
	cp.AgentCalls = append([]AgentCall(nil), t.AgentCalls...)
	cp.Flags = append([]ComplianceFlag(nil), t.Flags...)
	return &cp
}
