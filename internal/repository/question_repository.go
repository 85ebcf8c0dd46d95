package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByPaper retrieves all questions of a paper in display order.
func (r *QuestionRepository) ListByPaper(ctx context.Context, paperID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, paper_id, number, part_label, text, options, correct_choice
		 FROM questions WHERE paper_id = $1
		 ORDER BY number`, paperID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PaperID, &q.Number, &q.PartLabel,
			&q.Text, &q.Options, &q.CorrectChoice); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID retrieves a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q := &model.Question{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, paper_id, number, part_label, text, options, correct_choice
		 FROM questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.PaperID, &q.Number, &q.PartLabel, &q.Text, &q.Options, &q.CorrectChoice)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// Add inserts a question into a paper.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (paper_id, number, part_label, text, options, correct_choice)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		q.PaperID, q.Number, q.PartLabel, q.Text, q.Options, q.CorrectChoice,
	).Scan(&q.ID)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
