// Package persist mirrors session snapshots to the durable record store. A
// burst of mutations is coalesced by a per-session debounce timer into one
// enqueue; a background worker drains the queue into PostgreSQL.
package persist

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/session"
	"github.com/rs/zerolog"
)

// Op distinguishes the initial create from subsequent updates.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// Envelope is the queue payload: the operation plus the full snapshot.
type Envelope struct {
	Op       Op                `json:"op"`
	Snapshot *session.Snapshot `json:"snapshot"`
}

// Queue is the transport the persister enqueues onto.
type Queue interface {
	Push(ctx context.Context, payload []byte) error
}

type pending struct {
	timer *time.Timer
	snap  *session.Snapshot
}

// Persister debounces session persists. There is no retry at this layer: a
// failed enqueue is logged and the next mutation schedules a fresh attempt
// carrying the newest snapshot.
type Persister struct {
	mu       sync.Mutex
	pending  map[uuid.UUID]*pending
	queue    Queue
	debounce time.Duration
	log      zerolog.Logger
}

// NewPersister creates a Persister with the given debounce window.
func NewPersister(queue Queue, debounce time.Duration, log zerolog.Logger) *Persister {
	return &Persister{
		pending:  make(map[uuid.UUID]*pending),
		queue:    queue,
		debounce: debounce,
		log:      log.With().Str("component", "persister").Logger(),
	}
}

// Create enqueues the initial record immediately, without debouncing.
func (p *Persister) Create(snap *session.Snapshot) {
	p.push(OpCreate, snap)
}

// Schedule registers a snapshot for persisting after the debounce window.
// Each call resets the window and replaces the pending snapshot, so a burst
// of mutations collapses into a single enqueue of the latest state.
func (p *Persister) Schedule(snap *session.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if entry, ok := p.pending[snap.ID]; ok {
		entry.snap = snap
		entry.timer.Reset(p.debounce)
		return
	}

	entry := &pending{snap: snap}
	entry.timer = time.AfterFunc(p.debounce, func() {
		p.fire(snap.ID)
	})
	p.pending[snap.ID] = entry
}

// FlushNow bypasses the debounce: any pending timer is cancelled and the
// given snapshot is enqueued immediately. Used on session completion.
func (p *Persister) FlushNow(snap *session.Snapshot) {
	p.mu.Lock()
	if entry, ok := p.pending[snap.ID]; ok {
		entry.timer.Stop()
		delete(p.pending, snap.ID)
	}
	p.mu.Unlock()

	p.push(OpUpdate, snap)
}

// Stop cancels all pending timers and enqueues their snapshots, draining
// state on shutdown.
func (p *Persister) Stop() {
	p.mu.Lock()
	entries := make([]*pending, 0, len(p.pending))
	for id, entry := range p.pending {
		entry.timer.Stop()
		entries = append(entries, entry)
		delete(p.pending, id)
	}
	p.mu.Unlock()

	for _, entry := range entries {
		p.push(OpUpdate, entry.snap)
	}
}

func (p *Persister) fire(id uuid.UUID) {
	p.mu.Lock()
	entry, ok := p.pending[id]
	if !ok {
		p.mu.Unlock()
		return
	}
	delete(p.pending, id)
	snap := entry.snap
	p.mu.Unlock()

	p.push(OpUpdate, snap)
}

func (p *Persister) push(op Op, snap *session.Snapshot) {
	payload, err := json.Marshal(Envelope{Op: op, Snapshot: snap})
	if err != nil {
		p.log.Error().Err(err).Str("session_id", snap.ID.String()).Msg("Marshal snapshot failed")
		return
	}
	if err := p.queue.Push(context.Background(), payload); err != nil {
		p.log.Error().Err(err).
			Str("session_id", snap.ID.String()).
			Str("op", string(op)).
			Msg("Persist enqueue failed")
	}
}
