package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
)

// Common drill errors.
var (
	ErrDrillItemNotFound = errors.New("drill item not found")
	ErrNotItemOwner      = errors.New("drill item belongs to another user")
)

// DrillService handles spaced-repetition review of flagged questions.
type DrillService struct {
	drills *repository.DrillRepository
	now    func() time.Time
}

// NewDrillService creates a new DrillService.
func NewDrillService(drills *repository.DrillRepository) *DrillService {
	return &DrillService{drills: drills, now: time.Now}
}

// ListDue returns the user's drill items ready for review.
func (s *DrillService) ListDue(ctx context.Context, userID, limit int) ([]model.DrillItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.drills.ListDue(ctx, userID, limit)
}

// CreateBatch inserts user-submitted drill items directly, bypassing the
// session-end queue. Used when flagging questions outside a timed session.
func (s *DrillService) CreateBatch(ctx context.Context, userID int, items []model.DrillItemInput) error {
	for i := range items {
		items[i].UserID = userID
	}
	return s.drills.BulkInsert(ctx, items)
}

// Grade records a review outcome and reschedules the item.
func (s *DrillService) Grade(ctx context.Context, userID int, itemID uuid.UUID, grade model.DrillGrade) (*model.DrillItem, error) {
	item, err := s.drills.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDrillItemNotFound
		}
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrNotItemOwner
	}

	dueAt, interval, reps := nextSchedule(grade, item.IntervalDays, item.Reps, s.now())
	if err := s.drills.Reschedule(ctx, itemID, dueAt, interval, reps); err != nil {
		return nil, err
	}

	item.DueAt = dueAt
	item.IntervalDays = interval
	item.Reps = reps
	return item, nil
}

// nextSchedule computes the review schedule after one grading. "again" resets
// the interval and resurfaces the item within the same sitting; "good"
// doubles the interval; "easy" triples it.
func nextSchedule(grade model.DrillGrade, intervalDays, reps int, now time.Time) (time.Time, int, int) {
	reps++

	switch grade {
	case model.DrillGradeAgain:
		return now.Add(10 * time.Minute), 0, reps
	case model.DrillGradeEasy:
		if intervalDays == 0 {
			intervalDays = 3
		} else {
			intervalDays *= 3
		}
	default: // good
		if intervalDays == 0 {
			intervalDays = 1
		} else {
			intervalDays *= 2
		}
	}

	return now.AddDate(0, 0, intervalDays), intervalDays, reps
}
