package persist

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	"github.com/rs/zerolog"
)

type captureQueue struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (q *captureQueue) Push(_ context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.payloads = append(q.payloads, payload)
	return nil
}

func (q *captureQueue) envelopes(t *testing.T) []Envelope {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Envelope, len(q.payloads))
	for i, p := range q.payloads {
		if err := json.Unmarshal(p, &out[i]); err != nil {
			t.Fatalf("unmarshal payload %d: %v", i, err)
		}
	}
	return out
}

func snapWithNotes(id uuid.UUID, notes string) *session.Snapshot {
	return &session.Snapshot{
		PaperSession: model.PaperSession{ID: id, Notes: notes},
	}
}

func TestScheduleCoalescesBurst(t *testing.T) {
	q := &captureQueue{}
	p := NewPersister(q, 20*time.Millisecond, zerolog.Nop())
	id := uuid.New()

	// Burst of mutations within the window: only the last snapshot lands.
	p.Schedule(snapWithNotes(id, "first"))
	p.Schedule(snapWithNotes(id, "second"))
	p.Schedule(snapWithNotes(id, "third"))

	time.Sleep(60 * time.Millisecond)

	envs := q.envelopes(t)
	if len(envs) != 1 {
		t.Fatalf("enqueued %d payloads, want 1", len(envs))
	}
	if envs[0].Op != OpUpdate {
		t.Errorf("op = %q, want update", envs[0].Op)
	}
	if envs[0].Snapshot.Notes != "third" {
		t.Errorf("persisted notes = %q, want the latest snapshot", envs[0].Snapshot.Notes)
	}
}

func TestScheduleIsPerSession(t *testing.T) {
	q := &captureQueue{}
	p := NewPersister(q, 20*time.Millisecond, zerolog.Nop())

	p.Schedule(snapWithNotes(uuid.New(), "a"))
	p.Schedule(snapWithNotes(uuid.New(), "b"))

	time.Sleep(60 * time.Millisecond)

	if got := len(q.envelopes(t)); got != 2 {
		t.Fatalf("enqueued %d payloads, want one per session", got)
	}
}

func TestFlushNowBypassesDebounce(t *testing.T) {
	q := &captureQueue{}
	p := NewPersister(q, time.Hour, zerolog.Nop())
	id := uuid.New()

	p.Schedule(snapWithNotes(id, "pending"))
	p.FlushNow(snapWithNotes(id, "final"))

	envs := q.envelopes(t)
	if len(envs) != 1 {
		t.Fatalf("enqueued %d payloads, want 1", len(envs))
	}
	if envs[0].Snapshot.Notes != "final" {
		t.Errorf("flushed notes = %q, want final", envs[0].Snapshot.Notes)
	}

	// The cancelled timer must never fire.
	time.Sleep(50 * time.Millisecond)
	if got := len(q.envelopes(t)); got != 1 {
		t.Errorf("pending timer fired after flush: %d payloads", got)
	}
}

func TestCreateEnqueuesImmediately(t *testing.T) {
	q := &captureQueue{}
	p := NewPersister(q, time.Hour, zerolog.Nop())

	p.Create(snapWithNotes(uuid.New(), ""))

	envs := q.envelopes(t)
	if len(envs) != 1 {
		t.Fatalf("enqueued %d payloads, want 1", len(envs))
	}
	if envs[0].Op != OpCreate {
		t.Errorf("op = %q, want create", envs[0].Op)
	}
}

func TestStopDrainsPending(t *testing.T) {
	q := &captureQueue{}
	p := NewPersister(q, time.Hour, zerolog.Nop())

	p.Schedule(snapWithNotes(uuid.New(), "x"))
	p.Schedule(snapWithNotes(uuid.New(), "y"))
	p.Stop()

	if got := len(q.envelopes(t)); got != 2 {
		t.Fatalf("drained %d payloads, want 2", got)
	}
}
