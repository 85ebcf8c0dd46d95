package service

import (
	"testing"
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/model"
)

func TestNextScheduleAgainResetsInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	dueAt, interval, reps := nextSchedule(model.DrillGradeAgain, 8, 4, now)

	if interval != 0 {
		t.Errorf("interval = %d, want reset to 0", interval)
	}
	if reps != 5 {
		t.Errorf("reps = %d, want 5", reps)
	}
	if want := now.Add(10 * time.Minute); !dueAt.Equal(want) {
		t.Errorf("dueAt = %v, want %v", dueAt, want)
	}
}

func TestNextScheduleGoodDoublesInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		interval int
		want     int
	}{
		{"first review", 0, 1},
		{"second review", 1, 2},
		{"established", 6, 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dueAt, interval, _ := nextSchedule(model.DrillGradeGood, tc.interval, 0, now)
			if interval != tc.want {
				t.Errorf("interval = %d, want %d", interval, tc.want)
			}
			if want := now.AddDate(0, 0, tc.want); !dueAt.Equal(want) {
				t.Errorf("dueAt = %v, want %v", dueAt, want)
			}
		})
	}
}

func TestNextScheduleEasyTriplesInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	_, first, _ := nextSchedule(model.DrillGradeEasy, 0, 0, now)
	if first != 3 {
		t.Errorf("first easy interval = %d, want 3", first)
	}

	_, later, _ := nextSchedule(model.DrillGradeEasy, 4, 2, now)
	if later != 12 {
		t.Errorf("easy interval from 4 days = %d, want 12", later)
	}
}

func TestNextScheduleIsDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	d1, i1, r1 := nextSchedule(model.DrillGradeGood, 2, 1, now)
	d2, i2, r2 := nextSchedule(model.DrillGradeGood, 2, 1, now)

	if !d1.Equal(d2) || i1 != i2 || r1 != r2 {
		t.Errorf("same inputs produced different schedules: (%v,%d,%d) vs (%v,%d,%d)",
			d1, i1, r1, d2, i2, r2)
	}
}
