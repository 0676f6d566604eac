package audit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
)

func appendEntry(t *testing.T, l Ledger, entry *models.AuditEntry) int64 {
	t.Helper()
	seq, err := l.Append(context.Background(), entry)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return seq
}

func TestAppendAssignsStrictlyIncreasingSeq(t *testing.T) {
	l := NewMemoryLedger()

	var prev int64
	for i := 0; i < 10; i++ {
		seq := appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "u1", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted})
		if seq <= prev {
			t.Fatalf("sequence not strictly increasing: %d after %d", seq, prev)
		}
		if seq != prev+1 {
			t.Fatalf("sequence has a gap: %d after %d", seq, prev)
		}
		prev = seq
	}
}

func TestAppendConcurrentNoDuplicates(t *testing.T) {
	l := NewMemoryLedger()
	const writers = 8
	const perWriter = 50

	seqs := make(chan int64, writers*perWriter)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				seq, err := l.Append(context.Background(), &models.AuditEntry{
					TaskID: "t1", UserID: "u1", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted,
				})
				if err != nil {
					t.Error(err)
					return
				}
				seqs <- seq
			}
		}()
	}
	wg.Wait()
	close(seqs)

	var all []int64
	for seq := range seqs {
		all = append(all, seq)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i, seq := range all {
		if seq != int64(i)+1 {
			t.Fatalf("expected gapless sequence, position %d holds %d", i, seq)
		}
	}
}

func TestQueryNewestFirst(t *testing.T) {
	l := NewMemoryLedger()
	for i := 0; i < 5; i++ {
		appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "u1", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted})
	}

	entries, err := l.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq >= entries[i-1].Seq {
			t.Fatalf("entries not newest-first: seq %d before %d", entries[i-1].Seq, entries[i].Seq)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	l := NewMemoryLedger()
	appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "alice", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted})
	appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "alice", Kind: models.AuditKindAgentCall, Agent: "inventory", Direction: models.CallDirectionInput})
	appendEntry(t, l, &models.AuditEntry{TaskID: "t2", UserID: "bob", Kind: models.AuditKindTaskEvent, Event: models.EventTaskCompleted})

	byTask, _ := l.Query(context.Background(), Filter{TaskID: "t1"})
	if len(byTask) != 2 {
		t.Errorf("task filter: expected 2 entries, got %d", len(byTask))
	}

	byUser, _ := l.Query(context.Background(), Filter{UserID: "bob"})
	if len(byUser) != 1 || byUser[0].TaskID != "t2" {
		t.Errorf("user filter returned wrong entries: %+v", byUser)
	}

	byAgent, _ := l.Query(context.Background(), Filter{Agent: "inventory"})
	if len(byAgent) != 1 || byAgent[0].Kind != models.AuditKindAgentCall {
		t.Errorf("agent filter returned wrong entries: %+v", byAgent)
	}

	byEvent, _ := l.Query(context.Background(), Filter{Event: models.EventTaskCompleted})
	if len(byEvent) != 1 || byEvent[0].UserID != "bob" {
		t.Errorf("event filter returned wrong entries: %+v", byEvent)
	}

	// Conjunction: both fields must match.
	none, _ := l.Query(context.Background(), Filter{TaskID: "t1", UserID: "bob"})
	if len(none) != 0 {
		t.Errorf("conjunctive filter should match nothing, got %d entries", len(none))
	}
}

func TestQueryDefaultLimit(t *testing.T) {
	l := NewMemoryLedger()
	for i := 0; i < DefaultQueryLimit+20; i++ {
		appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "u1", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted})
	}

	entries, err := l.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(entries) != DefaultQueryLimit {
		t.Fatalf("expected default cap of %d, got %d", DefaultQueryLimit, len(entries))
	}
	// The newest entries survive the cap.
	if entries[0].Seq != int64(DefaultQueryLimit+20) {
		t.Errorf("expected newest entry first, got seq %d", entries[0].Seq)
	}

	limited, _ := l.Query(context.Background(), Filter{Limit: 5})
	if len(limited) != 5 {
		t.Errorf("explicit limit ignored: got %d entries", len(limited))
	}
}

func TestExportRangeGroupsByUserAndAction(t *testing.T) {
	l := NewMemoryLedger()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "alice", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted, Timestamp: base})
	appendEntry(t, l, &models.AuditEntry{TaskID: "t1", UserID: "alice", Kind: models.AuditKindTaskEvent, Event: models.EventTaskCompleted, Timestamp: base.Add(time.Minute)})
	appendEntry(t, l, &models.AuditEntry{TaskID: "t2", UserID: "bob", Kind: models.AuditKindAgentCall, Agent: "pricing", Direction: models.CallDirectionInput, Timestamp: base.Add(2 * time.Minute)})
	// Outside the range.
	appendEntry(t, l, &models.AuditEntry{TaskID: "t3", UserID: "alice", Kind: models.AuditKindTaskEvent, Event: models.EventTaskStarted, Timestamp: base.Add(48 * time.Hour)})

	summary, err := l.ExportRange(context.Background(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ExportRange() error = %v", err)
	}

	if summary.TotalEntries != 3 {
		t.Fatalf("expected 3 entries in range, got %d", summary.TotalEntries)
	}
	alice := summary.UserSummary["alice"]
	if alice == nil || alice.TotalActions != 2 {
		t.Fatalf("alice summary wrong: %+v", alice)
	}
	if alice.ActionsByType[models.EventTaskStarted] != 1 || alice.ActionsByType[models.EventTaskCompleted] != 1 {
		t.Errorf("alice actions-by-type wrong: %+v", alice.ActionsByType)
	}
	bob := summary.UserSummary["bob"]
	if bob == nil || bob.ActionsByType[string(models.CallDirectionInput)] != 1 {
		t.Errorf("agent-call entries group by direction: %+v", bob)
	}
	if summary.ExportedAt.IsZero() {
		t.Error("export timestamp not set")
	}
}
