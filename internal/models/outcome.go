package models

import "time"

// Outcome is the discriminated result of a task submission. Ordinary handler
// failures are reported here, not as Go errors: every submission that creates
// a task yields an outcome carrying the task ID, so failed tasks stay
// queryable and auditable.
type Outcome struct {
	Success        bool                   `json:"success"`
	TaskID         string                 `json:"task_id"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Error          *ErrorDescriptor       `json:"error,omitempty"`
	RequiresReview bool                   `json:"requires_review,omitempty"`
	Flags          []ComplianceFlag       `json:"compliance_flags,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}
