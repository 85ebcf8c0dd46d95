package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// PaperRepository handles paper catalog data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetByID retrieves a paper by its UUID.
func (r *PaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Paper, error) {
	p := &model.Paper{}
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.variant, p.display_name, p.time_limit_minutes,
		        (SELECT COUNT(*) FROM questions q WHERE q.paper_id = p.id),
		        p.created_at, p.updated_at
		 FROM papers p WHERE p.id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Variant, &p.DisplayName, &p.TimeLimitMinutes,
		&p.QuestionCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPaginated retrieves papers ordered by family then variant.
func (r *PaperRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Paper, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM papers`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.variant, p.display_name, p.time_limit_minutes,
		        (SELECT COUNT(*) FROM questions q WHERE q.paper_id = p.id),
		        p.created_at, p.updated_at
		 FROM papers p
		 ORDER BY p.name, p.variant
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		var p model.Paper
		if err := rows.Scan(&p.ID, &p.Name, &p.Variant, &p.DisplayName, &p.TimeLimitMinutes,
			&p.QuestionCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		papers = append(papers, p)
	}
	return papers, total, rows.Err()
}

// Create inserts a new paper.
func (r *PaperRepository) Create(ctx context.Context, p *model.Paper) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO papers (name, variant, display_name, time_limit_minutes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Variant, p.DisplayName, p.TimeLimitMinutes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update overwrites a paper's mutable fields.
func (r *PaperRepository) Update(ctx context.Context, p *model.Paper) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE papers
		 SET name = $1, variant = $2, display_name = $3, time_limit_minutes = $4, updated_at = NOW()
		 WHERE id = $5`,
		p.Name, p.Variant, p.DisplayName, p.TimeLimitMinutes, p.ID)
	return err
}

// Delete removes a paper and, via FK cascade, its questions.
func (r *PaperRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	return err
}
