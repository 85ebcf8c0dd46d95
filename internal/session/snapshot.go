package session

import (
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// SectionTimer tracks one section's countdown. AccumulatedSec carries time
// already spent in the section so pause/resume and section switches can
// recompute the deadline as now + (limit - accumulated).
type SectionTimer struct {
	Name           string     `json:"name"`
	LimitSec       int        `json:"limit_sec"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	AccumulatedSec int        `json:"accumulated_sec"`
	CountdownSec   int        `json:"countdown_sec"` // pre-section instructional countdown
}

// SectionBucket groups question slots belonging to one section, in attempt
// order. Slots index into Snapshot.Questions.
type SectionBucket struct {
	Name  string `json:"name"`
	Slots []int  `json:"slots"`
}

// Snapshot is one immutable point-in-time state of a running session.
// Mutators never modify a Snapshot in place; they clone it, apply the change
// and publish the clone.
type Snapshot struct {
	model.PaperSession

	CurrentIndex        int              `json:"current_index"`
	CurrentSectionIndex int              `json:"current_section_index"`
	Deadline            time.Time        `json:"deadline"`
	Paused              bool             `json:"paused"`
	PausedAt            *time.Time       `json:"paused_at,omitempty"`
	SectionTimers       []SectionTimer   `json:"section_timers"`
	Questions           []model.Question `json:"questions"`
	SectionBuckets      []SectionBucket  `json:"section_buckets"`
}

// clone returns a deep copy safe to mutate without affecting the original.
func (s *Snapshot) clone() *Snapshot {
	next := *s

	next.Sections = cloneSlice(s.Sections)
	next.Answers = cloneSlice(s.Answers)
	next.PerQuestionSec = cloneSlice(s.PerQuestionSec)
	next.CorrectFlags = cloneSlice(s.CorrectFlags)
	next.GuessedFlags = cloneSlice(s.GuessedFlags)
	next.ReviewFlags = cloneSlice(s.ReviewFlags)
	next.MistakeTags = cloneSlice(s.MistakeTags)
	next.Visited = cloneSlice(s.Visited)
	next.SectionTimers = cloneSlice(s.SectionTimers)
	next.Questions = cloneSlice(s.Questions)

	next.SectionBuckets = make([]SectionBucket, len(s.SectionBuckets))
	for i, b := range s.SectionBuckets {
		next.SectionBuckets[i] = SectionBucket{Name: b.Name, Slots: cloneSlice(b.Slots)}
	}

	if s.EndedAt != nil {
		t := *s.EndedAt
		next.EndedAt = &t
	}
	if s.PausedAt != nil {
		t := *s.PausedAt
		next.PausedAt = &t
	}

	return &next
}

// resizeArrays grows or shrinks every per-question parallel array to n slots,
// preserving existing values. The invariant that all arrays share one length
// is restored here and nowhere else.
func (s *Snapshot) resizeArrays(n int) {
	s.Answers = resizeSlice(s.Answers, n)
	s.PerQuestionSec = resizeSlice(s.PerQuestionSec, n)
	s.CorrectFlags = resizeSlice(s.CorrectFlags, n)
	s.GuessedFlags = resizeSlice(s.GuessedFlags, n)
	s.ReviewFlags = resizeSlice(s.ReviewFlags, n)
	s.MistakeTags = resizeSlice(s.MistakeTags, n)
	s.Visited = resizeSlice(s.Visited, n)
}

// slot reports whether i addresses a valid question slot.
func (s *Snapshot) slot(i int) bool {
	return i >= 0 && i < len(s.Answers)
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func resizeSlice[T any](in []T, n int) []T {
	out := make([]T, n)
	copy(out, in)
	return out
}
