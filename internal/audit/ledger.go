package audit

import (
	"context"
	"sync"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

// DefaultQueryLimit caps audit queries that do not supply their own limit.
const DefaultQueryLimit = 100

// Filter selects audit entries by conjunctive field match. Zero-value fields
// are ignored. Results are returned newest-first, at most Limit entries
// (DefaultQueryLimit when Limit is zero or negative).
type Filter struct {
	TaskID string
	UserID string
	Agent  string
	Event  string
	Limit  int
}

// Matches reports whether an entry satisfies every populated filter field.
func (f Filter) Matches(e *models.AuditEntry) bool {
	if f.TaskID != "" && e.TaskID != f.TaskID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Agent != "" && e.Agent != f.Agent {
		return false
	}
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	return true
}

// UserActivity summarizes one user's audit entries for a compliance export.
type UserActivity struct {
	TotalActions  int            `json:"total_actions"`
	ActionsByType map[string]int `json:"actions_by_type"`
}

// ExportSummary aggregates entry counts over a time range, grouped by user
// and action kind. Used for compliance reporting.
type ExportSummary struct {
	TotalEntries int                      `json:"total_entries"`
	Start        time.Time                `json:"start"`
	End          time.Time                `json:"end"`
	UserSummary  map[string]*UserActivity `json:"user_summary"`
	ExportedAt   time.Time                `json:"export_timestamp"`
}

// Ledger 是只追加的审计账本。条目一旦写入不再变更或删除；
// 序列号在进程生命周期内严格递增且无空洞。
type Ledger interface {
	// Append assigns the next sequence number to the entry, records it, and
	// returns the assigned number.
	Append(ctx context.Context, entry *models.AuditEntry) (int64, error)
	// Query returns entries matching the filter, newest-first.
	Query(ctx context.Context, filter Filter) ([]*models.AuditEntry, error)
	// ExportRange aggregates entries whose timestamp falls in [start, end].
	ExportRange(ctx context.Context, start, end time.Time) (*ExportSummary, error)
}

// MemoryLedger is the in-process Ledger implementation. It satisfies the same
// interface as the Mongo-backed ledger and is what the tests run against.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []*models.AuditEntry
	nextSeq int64
}

// NewMemoryLedger creates an empty in-memory ledger. Sequence numbers start
// at 1.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{nextSeq: 1}
}

// Append records the entry under the next sequence number.
func (l *MemoryLedger) Append(ctx context.Context, entry *models.AuditEntry) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Seq = l.nextSeq
	l.nextSeq++
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.entries = append(l.entries, entry)
	return entry.Seq, nil
}

// Query walks the log backwards so results come out newest-first.
func (l *MemoryLedger) Query(ctx context.Context, filter Filter) ([]*models.AuditEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []*models.AuditEntry
	for i := len(l.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if filter.Matches(l.entries[i]) {
			result = append(result, l.entries[i])
		}
	}
	return result, nil
}

// ExportRange aggregates entries in the inclusive time range.
func (l *MemoryLedger) ExportRange(ctx context.Context, start, end time.Time) (*ExportSummary, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	summary := &ExportSummary{
		Start:       start,
		End:         end,
		UserSummary: make(map[string]*UserActivity),
		ExportedAt:  time.Now().UTC(),
	}
	for _, e := range l.entries {
		if inRange(e.Timestamp, start, end) {
			summary.add(e)
		}
	}
	return summary, nil
}

// add folds a single entry into the summary.
func (s *ExportSummary) add(e *models.AuditEntry) {
	s.TotalEntries++
	activity, ok := s.UserSummary[e.UserID]
	if !ok {
		activity = &UserActivity{ActionsByType: make(map[string]int)}
		s.UserSummary[e.UserID] = activity
	}
	activity.TotalActions++
	activity.ActionsByType[e.Action()]++
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
