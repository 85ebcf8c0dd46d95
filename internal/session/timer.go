package session

import (
	"time"

	"github.com/google/uuid"
)

// Section timing: one deadline timestamp and one accumulated-elapsed counter
// per section. The deadline is recomputed as now + (limit - accumulated) on
// every section switch or resume, so pausing freezes the countdown instead of
// letting it run out silently.

// CalculateSectionTimeLimits apportions the session time limit across section
// buckets proportionally to their question counts. Rounding remainder goes to
// the first section. The current section's countdown starts immediately.
func (s *Store) CalculateSectionTimeLimits(id uuid.UUID) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		totalQ := len(next.Questions)
		if totalQ == 0 || len(next.SectionTimers) == 0 {
			return
		}

		totalSec := next.TimeLimitMinutes * 60
		assigned := 0
		for i := range next.SectionTimers {
			share := totalSec * len(next.SectionBuckets[i].Slots) / totalQ
			next.SectionTimers[i].LimitSec = share
			assigned += share
		}
		next.SectionTimers[0].LimitSec += totalSec - assigned

		s.startSectionTimer(next, next.CurrentSectionIndex)
	})
}

// SetCurrentSection switches the active section: the old section's elapsed
// time is banked into its accumulated counter and the new section's deadline
// is computed from whatever time it has left.
func (s *Store) SetCurrentSection(id uuid.UUID, idx int) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if idx < 0 || idx >= len(next.SectionTimers) {
			return
		}
		s.stopSectionTimer(next, next.CurrentSectionIndex)
		next.CurrentSectionIndex = idx
		if !next.Paused {
			s.startSectionTimer(next, idx)
		}
	})
}

// SectionRemainingTime returns whole seconds left in a section's countdown.
// While paused (or before the timer starts) this is limit - accumulated, so
// the value is stable across a pause.
func (s *Store) SectionRemainingTime(id uuid.UUID, idx int) (int, error) {
	snap, err := s.Get(id)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(snap.SectionTimers) {
		return 0, nil
	}

	t := snap.SectionTimers[idx]
	var rem int
	if snap.Paused || t.Deadline == nil {
		rem = t.LimitSec - t.AccumulatedSec
	} else {
		rem = int(t.Deadline.Sub(s.now()).Seconds())
	}
	if rem < 0 {
		rem = 0
	}
	return rem, nil
}

// Pause freezes the session: the current section's elapsed time is banked and
// its deadline cleared. Repeated pauses are no-ops.
func (s *Store) Pause(id uuid.UUID) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if next.Paused {
			return
		}
		next.Paused = true
		now := s.now()
		next.PausedAt = &now
		s.stopSectionTimer(next, next.CurrentSectionIndex)
	})
}

// Resume restarts the countdown. The overall deadline is shifted by the
// paused duration and the current section's deadline is recomputed from its
// remaining time.
func (s *Store) Resume(id uuid.UUID) (*Snapshot, error) {
	return s.mutate(id, true, func(next *Snapshot) {
		if !next.Paused {
			return
		}
		next.Paused = false
		if next.PausedAt != nil {
			next.Deadline = next.Deadline.Add(s.now().Sub(*next.PausedAt))
			next.PausedAt = nil
		}
		s.startSectionTimer(next, next.CurrentSectionIndex)
	})
}

// startSectionTimer computes the deadline for timer idx as
// now + (limit - accumulated) and records the start time.
func (s *Store) startSectionTimer(next *Snapshot, idx int) {
	if idx < 0 || idx >= len(next.SectionTimers) {
		return
	}
	t := &next.SectionTimers[idx]
	remaining := t.LimitSec - t.AccumulatedSec
	if remaining < 0 {
		remaining = 0
	}
	now := s.now()
	deadline := now.Add(time.Duration(remaining) * time.Second)
	t.StartedAt = &now
	t.Deadline = &deadline
}

// stopSectionTimer banks elapsed time into the accumulated counter and clears
// the running deadline.
func (s *Store) stopSectionTimer(next *Snapshot, idx int) {
	if idx < 0 || idx >= len(next.SectionTimers) {
		return
	}
	t := &next.SectionTimers[idx]
	if t.StartedAt != nil {
		t.AccumulatedSec += int(s.now().Sub(*t.StartedAt).Seconds())
	}
	t.StartedAt = nil
	t.Deadline = nil
}
