package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// DrillRepository handles spaced-repetition drill item data access.
type DrillRepository struct {
	pool *pgxpool.Pool
}

// NewDrillRepository creates a new DrillRepository.
func NewDrillRepository(pool *pgxpool.Pool) *DrillRepository {
	return &DrillRepository{pool: pool}
}

// BulkInsert writes a batch of drill items in one statement. New items are
// due immediately with a zero interval.
func (r *DrillRepository) BulkInsert(ctx context.Context, items []model.DrillItemInput) error {
	n := len(items)
	if n == 0 {
		return nil
	}

	userIDs := make([]int, 0, n)
	sessionIDs := make([]*uuid.UUID, 0, n)
	questionIDs := make([]uuid.UUID, 0, n)
	paperNames := make([]string, 0, n)
	sections := make([]string, 0, n)
	choices := make([]*string, 0, n)
	corrects := make([]string, 0, n)
	explanations := make([]string, 0, n)
	notes := make([]string, 0, n)

	for _, it := range items {
		userIDs = append(userIDs, it.UserID)
		sessionIDs = append(sessionIDs, it.SessionID)
		questionIDs = append(questionIDs, it.QuestionID)
		paperNames = append(paperNames, it.PaperName)
		sections = append(sections, it.Section)
		choices = append(choices, it.Choice)
		corrects = append(corrects, it.CorrectChoice)
		explanations = append(explanations, it.Explanation)
		notes = append(notes, it.Notes)
	}

	query := `
		INSERT INTO drill_items (
			user_id, session_id, question_id, paper_name, section,
			choice, correct_choice, explanation, notes, due_at, interval_days, reps
		)
		SELECT u.user_id, u.session_id, u.question_id, u.paper_name, u.section,
		       u.choice, u.correct_choice, u.explanation, u.notes, NOW(), 0, 0
		FROM UNNEST(
			$1::int[],
			$2::uuid[],
			$3::uuid[],
			$4::text[],
			$5::text[],
			$6::text[],
			$7::text[],
			$8::text[],
			$9::text[]
		) AS u (user_id, session_id, question_id, paper_name, section,
		        choice, correct_choice, explanation, notes)
	`

	_, err := r.pool.Exec(ctx, query,
		userIDs, sessionIDs, questionIDs, paperNames, sections,
		choices, corrects, explanations, notes)
	return err
}

// InsertOne writes a single drill item. Fallback path when a bulk insert
// fails.
func (r *DrillRepository) InsertOne(ctx context.Context, it *model.DrillItemInput) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO drill_items (
			user_id, session_id, question_id, paper_name, section,
			choice, correct_choice, explanation, notes, due_at, interval_days, reps
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), 0, 0)`,
		it.UserID, it.SessionID, it.QuestionID, it.PaperName, it.Section,
		it.Choice, it.CorrectChoice, it.Explanation, it.Notes)
	return err
}

// ListDue retrieves the user's drill items due at or before now, oldest due
// first.
func (r *DrillRepository) ListDue(ctx context.Context, userID, limit int) ([]model.DrillItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, session_id, question_id, paper_name, section,
		        choice, correct_choice, explanation, notes, due_at, interval_days, reps, created_at
		 FROM drill_items
		 WHERE user_id = $1 AND due_at <= NOW()
		 ORDER BY due_at
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.DrillItem
	for rows.Next() {
		var it model.DrillItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.SessionID, &it.QuestionID,
			&it.PaperName, &it.Section, &it.Choice, &it.CorrectChoice,
			&it.Explanation, &it.Notes, &it.DueAt, &it.IntervalDays, &it.Reps,
			&it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetByID retrieves a drill item.
func (r *DrillRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.DrillItem, error) {
	it := &model.DrillItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, question_id, paper_name, section,
		        choice, correct_choice, explanation, notes, due_at, interval_days, reps, created_at
		 FROM drill_items WHERE id = $1`, id,
	).Scan(&it.ID, &it.UserID, &it.SessionID, &it.QuestionID,
		&it.PaperName, &it.Section, &it.Choice, &it.CorrectChoice,
		&it.Explanation, &it.Notes, &it.DueAt, &it.IntervalDays, &it.Reps,
		&it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Reschedule updates an item's review schedule after grading.
func (r *DrillRepository) Reschedule(ctx context.Context, id uuid.UUID, dueAt time.Time, intervalDays, reps int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE drill_items
		 SET due_at = $1, interval_days = $2, reps = $3
		 WHERE id = $4`,
		dueAt, intervalDays, reps, id)
	return err
}
