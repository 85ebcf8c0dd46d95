// Package session owns the in-memory state of running paper sessions: one
// immutable snapshot per session, copy-on-write mutators, section timers and
// the glue to the snapshot cache and the debounced persister.
//
// The in-memory state is authoritative for a running session. Cache and
// database writes are best-effort mirroring; their failures are logged and
// swallowed so the session keeps functioning.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/section"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRange    = errors.New("invalid question range")
)

// QuestionSource fetches a paper's full question set.
type QuestionSource interface {
	ListByPaper(ctx context.Context, paperID uuid.UUID) ([]model.Question, error)
}

// SnapshotCache is the durable cache that lets an in-progress session survive
// a process restart. Last writer wins; there is no versioning.
type SnapshotCache interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Persister mirrors snapshots to the session-records store. Schedule is
// debounced per session; Create and FlushNow enqueue immediately.
type Persister interface {
	Create(snap *Snapshot)
	Schedule(snap *Snapshot)
	FlushNow(snap *Snapshot)
}

// DrillSubmitter receives the batch of flagged answers when a session ends.
type DrillSubmitter interface {
	SubmitBatch(ctx context.Context, items []model.DrillItemInput) error
}

// StartConfig carries everything needed to start a session.
type StartConfig struct {
	UserID              int
	PaperID             uuid.UUID
	PaperName           string
	Variant             string
	DisplayName         string
	TimeLimitMinutes    int
	QuestionStart       int
	QuestionEnd         int
	Sections            []string
	SectionCountdownSec int
}

// Store is the single source of truth for in-progress sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Snapshot

	questions QuestionSource
	cache     SnapshotCache
	persister Persister
	drills    DrillSubmitter
	log       zerolog.Logger

	now func() time.Time
}

// NewStore creates a session store.
func NewStore(
	questions QuestionSource,
	cache SnapshotCache,
	persister Persister,
	drills DrillSubmitter,
	log zerolog.Logger,
) *Store {
	return &Store{
		sessions:  make(map[uuid.UUID]*Snapshot),
		questions: questions,
		cache:     cache,
		persister: persister,
		drills:    drills,
		log:       log.With().Str("component", "session_store").Logger(),
		now:       time.Now,
	}
}

// Start allocates a new session: random identifier, fixed question-range
// size, empty per-question arrays, absolute deadline at now + time limit.
// The remote create is fire-and-forget; the session functions even if it
// never lands.
func (s *Store) Start(ctx context.Context, cfg StartConfig) (*Snapshot, error) {
	n := cfg.QuestionEnd - cfg.QuestionStart + 1
	if n < 1 {
		return nil, ErrInvalidRange
	}

	now := s.now()
	snap := &Snapshot{
		PaperSession: model.PaperSession{
			ID:               uuid.New(),
			UserID:           cfg.UserID,
			PaperID:          cfg.PaperID,
			PaperName:        cfg.PaperName,
			Variant:          cfg.Variant,
			DisplayName:      cfg.DisplayName,
			TimeLimitMinutes: cfg.TimeLimitMinutes,
			QuestionStart:    cfg.QuestionStart,
			QuestionEnd:      cfg.QuestionEnd,
			Sections:         cloneSlice(cfg.Sections),
			StartedAt:        now,
			UpdatedAt:        now,
		},
		Deadline: now.Add(time.Duration(cfg.TimeLimitMinutes) * time.Minute),
	}
	snap.resizeArrays(n)

	if cfg.SectionCountdownSec > 0 {
		// Timers are created in LoadQuestions; remember the countdown via a
		// placeholder timer so it is not lost if questions never load.
		snap.SectionTimers = []SectionTimer{{CountdownSec: cfg.SectionCountdownSec}}
	}

	s.mu.Lock()
	s.sessions[snap.ID] = snap
	s.mu.Unlock()

	s.saveToCache(ctx, snap)
	s.persister.Create(snap)

	s.log.Info().
		Str("session_id", snap.ID.String()).
		Str("paper", snap.PaperName).
		Int("slots", n).
		Msg("Session started")

	return snap, nil
}

// LoadQuestions fetches the paper's questions, derives each question's
// section, filters by the configured range and selected sections, reorders
// to match the selection order and partitions into per-section buckets.
//
// If the loaded count disagrees with the configured range, the range and all
// parallel arrays are resized to match reality. That is a reconciliation
// against upstream data drift, not a normal path, and is logged as a warning.
func (s *Store) LoadQuestions(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	all, err := s.questions.ListByPaper(ctx, snap.PaperID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	for i := range all {
		sec := section.Map(all[i].PartLabel, snap.PaperName)
		if sec == "" {
			sec = section.ByPosition(i+1, len(all), snap.PaperName)
		}
		all[i].Section = sec
	}

	rank := make(map[string]int, len(snap.Sections))
	for i, name := range snap.Sections {
		rank[name] = i
	}

	var filtered []model.Question
	for _, q := range all {
		if q.Number < snap.QuestionStart || q.Number > snap.QuestionEnd {
			continue
		}
		if len(rank) > 0 {
			if _, ok := rank[q.Section]; !ok {
				continue
			}
		}
		filtered = append(filtered, q)
	}

	if len(rank) > 0 {
		sort.SliceStable(filtered, func(i, j int) bool {
			return rank[filtered[i].Section] < rank[filtered[j].Section]
		})
	}

	countdown := 0
	if len(snap.SectionTimers) > 0 {
		countdown = snap.SectionTimers[0].CountdownSec
	}

	var buckets []SectionBucket
	var timers []SectionTimer
	pos := make(map[string]int)
	for slot, q := range filtered {
		i, ok := pos[q.Section]
		if !ok {
			i = len(buckets)
			pos[q.Section] = i
			buckets = append(buckets, SectionBucket{Name: q.Section})
			timers = append(timers, SectionTimer{Name: q.Section, CountdownSec: countdown})
		}
		buckets[i].Slots = append(buckets[i].Slots, slot)
	}

	return s.mutate(id, true, func(next *Snapshot) {
		next.Questions = filtered
		next.SectionBuckets = buckets
		next.SectionTimers = timers

		if got, want := len(filtered), next.QuestionRange(); got != want {
			s.log.Warn().
				Str("session_id", id.String()).
				Int("configured", want).
				Int("loaded", got).
				Msg("Question count mismatch, resizing session arrays")
			next.QuestionEnd = next.QuestionStart + got - 1
			next.resizeArrays(got)
			if next.CurrentIndex >= got && got > 0 {
				next.CurrentIndex = got - 1
			}
		}
	})
}

// ─── Per-slot mutators ─────────────────────────────────────────────────────
// Each produces a new snapshot (copy-on-write) and schedules a debounced
// persist. Out-of-range slots are ignored.

// SetChoice records the selected choice letter for a slot; nil clears it.
func (s *Store) SetChoice(id uuid.UUID, i int, choice *string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.Answers[i].Choice = choice
		}
	})
}

// SetAnswerNotes records free-text notes for a slot.
func (s *Store) SetAnswerNotes(id uuid.UUID, i int, notes string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.Answers[i].Notes = notes
		}
	})
}

// SetMarkedCorrect records the instructor-marked correct choice override.
func (s *Store) SetMarkedCorrect(id uuid.UUID, i int, choice string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.Answers[i].MarkedCorrect = choice
		}
	})
}

// SetExplanation records the explanation text for a slot.
func (s *Store) SetExplanation(id uuid.UUID, i int, text string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.Answers[i].Explanation = text
		}
	})
}

// SetDrillFlag marks a slot's answer for the spaced-review queue.
func (s *Store) SetDrillFlag(id uuid.UUID, i int, flag bool) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.Answers[i].AddToDrill = flag
		}
	})
}

// SetCorrectFlag records the tri-state correctness of a slot; nil = unknown.
func (s *Store) SetCorrectFlag(id uuid.UUID, i int, correct *bool) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.CorrectFlags[i] = correct
		}
	})
}

// SetGuessedFlag records whether a slot's answer was guessed.
func (s *Store) SetGuessedFlag(id uuid.UUID, i int, guessed bool) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.GuessedFlags[i] = guessed
		}
	})
}

// SetReviewFlag records whether a slot is flagged for review.
func (s *Store) SetReviewFlag(id uuid.UUID, i int, review bool) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.ReviewFlags[i] = review
		}
	})
}

// SetMistakeTag records the mistake-category tag for a slot.
func (s *Store) SetMistakeTag(id uuid.UUID, i int, tag string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.slot(i) {
			next.MistakeTags[i] = tag
		}
	})
}

// ─── Session-level mutators ────────────────────────────────────────────────

// SetNotes records the session's free-text notes.
func (s *Store) SetNotes(id uuid.UUID, notes string) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		next.Notes = notes
	})
}

// SetDeadline overrides the session's absolute deadline.
func (s *Store) SetDeadline(id uuid.UUID, t time.Time) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		next.Deadline = t
	})
}

// NavigateTo moves the cursor and marks the slot visited.
func (s *Store) NavigateTo(id uuid.UUID, i int) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		next.CurrentIndex = i
		if next.slot(i) {
			next.Visited[i] = true
		}
	})
}

// IncrementTime adds one second to a slot's elapsed-time counter. Driven by
// the one-second tick while a deadline is active; it updates the cache but
// deliberately does not schedule a persist, so ticking alone never keeps the
// debounce window open.
func (s *Store) IncrementTime(id uuid.UUID, i int) (*Snapshot, error) {
	return s.mutate(id, false, func(next *Snapshot) {
		if next.slot(i) {
			next.PerQuestionSec[i]++
		}
	})
}

// RemainingTime returns whole seconds until the session deadline, floored at
// zero.
func (s *Store) RemainingTime(id uuid.UUID) (int, error) {
	snap, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	rem := int(snap.Deadline.Sub(s.now()).Seconds())
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}

// End freezes the session: deletes the cache entry, forces an immediate
// persist and submits flagged answers to the drill queue. Idempotent: a
// second call deletes nothing new and does not re-persist.
func (s *Store) End(ctx context.Context, id uuid.UUID, endedAt time.Time) (*Snapshot, error) {
	s.mu.Lock()
	cur, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if cur.EndedAt != nil {
		s.mu.Unlock()
		if err := s.cache.Delete(ctx, id); err != nil {
			s.log.Debug().Err(err).Str("session_id", id.String()).Msg("Cache delete on repeated end")
		}
		return cur, nil
	}

	next := cur.clone()
	t := endedAt
	next.EndedAt = &t
	next.Paused = false
	next.UpdatedAt = s.now()
	s.sessions[id] = next
	s.mu.Unlock()

	if err := s.cache.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("session_id", id.String()).Msg("Cache delete failed")
	}

	s.persister.FlushNow(next)
	s.submitFlagged(ctx, next)

	s.log.Info().Str("session_id", id.String()).Msg("Session ended")
	return next, nil
}

// Get returns the current snapshot for a session.
func (s *Store) Get(id uuid.UUID) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snap, nil
}

// Restore adopts a snapshot recovered from the durable cache, making the
// session live again after a process restart.
func (s *Store) Restore(snap *Snapshot) {
	s.mu.Lock()
	s.sessions[snap.ID] = snap
	s.mu.Unlock()
}

// ─── Internals ─────────────────────────────────────────────────────────────

// mutate publishes a new snapshot produced by fn. The cache write always
// happens; the debounced persist only for real mutators.
func (s *Store) mutate(id uuid.UUID, persist bool, fn func(*Snapshot)) (*Snapshot, error) {
	s.mu.Lock()
	cur, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	next := cur.clone()
	fn(next)
	next.UpdatedAt = s.now()
	s.sessions[id] = next
	s.mu.Unlock()

	s.saveToCache(context.Background(), next)
	if persist {
		s.persister.Schedule(next)
	}
	return next, nil
}

func (s *Store) saveToCache(ctx context.Context, snap *Snapshot) {
	if err := s.cache.Save(ctx, snap); err != nil {
		// Degraded mode: the session keeps running, it just won't survive a
		// restart.
		s.log.Warn().Err(err).Str("session_id", snap.ID.String()).Msg("Snapshot cache save failed")
	}
}

func (s *Store) submitFlagged(ctx context.Context, snap *Snapshot) {
	var items []model.DrillItemInput
	for i, ans := range snap.Answers {
		if !ans.AddToDrill || i >= len(snap.Questions) {
			continue
		}
		q := snap.Questions[i]
		sid := snap.ID
		items = append(items, model.DrillItemInput{
			UserID:        snap.UserID,
			SessionID:     &sid,
			QuestionID:    q.ID,
			PaperName:     snap.PaperName,
			Section:       q.Section,
			Choice:        ans.Choice,
			CorrectChoice: firstNonEmpty(ans.MarkedCorrect, q.CorrectChoice),
			Explanation:   ans.Explanation,
			Notes:         ans.Notes,
		})
	}
	if len(items) == 0 {
		return
	}

	if err := s.drills.SubmitBatch(ctx, items); err != nil {
		s.log.Error().Err(err).
			Str("session_id", snap.ID.String()).
			Int("items", len(items)).
			Msg("Drill batch submit failed")
		return
	}
	s.log.Info().
		Str("session_id", snap.ID.String()).
		Int("items", len(items)).
		Msg("Drill items submitted")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
