package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/session"
)

// SessionRepository handles durable paper session records.
//
// A session row carries the full snapshot as a jsonb state column (the resume
// path deserializes it back into a live session) plus flat columns for the
// fields that history listings and the stats queries aggregate over.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Upsert creates or overwrites a session row from a snapshot. Writes from the
// persist worker are last-writer-wins; the in-memory store is authoritative
// while the session runs.
func (r *SessionRepository) Upsert(ctx context.Context, snap *session.Snapshot) error {
	state, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	answers, err := json.Marshal(snap.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	correctFlags, err := json.Marshal(snap.CorrectFlags)
	if err != nil {
		return fmt.Errorf("marshal correct flags: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO paper_sessions (
		    id, user_id, paper_id, paper_name, variant, display_name,
		    time_limit_minutes, question_start, question_end, sections,
		    started_at, ended_at, notes,
		    answers, per_question_sec, correct_flags, guessed_flags,
		    review_flags, mistake_tags, visited, state
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		           $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		 ON CONFLICT (id) DO UPDATE SET
		    ended_at = EXCLUDED.ended_at,
		    notes = EXCLUDED.notes,
		    answers = EXCLUDED.answers,
		    per_question_sec = EXCLUDED.per_question_sec,
		    correct_flags = EXCLUDED.correct_flags,
		    guessed_flags = EXCLUDED.guessed_flags,
		    review_flags = EXCLUDED.review_flags,
		    mistake_tags = EXCLUDED.mistake_tags,
		    visited = EXCLUDED.visited,
		    state = EXCLUDED.state,
		    updated_at = NOW()`,
		snap.ID, snap.UserID, snap.PaperID, snap.PaperName, snap.Variant, snap.DisplayName,
		snap.TimeLimitMinutes, snap.QuestionStart, snap.QuestionEnd, snap.Sections,
		snap.StartedAt, snap.EndedAt, snap.Notes,
		answers, snap.PerQuestionSec, correctFlags, snap.GuessedFlags,
		snap.ReviewFlags, snap.MistakeTags, snap.Visited, state,
	)
	return err
}

// GetByID retrieves the stored snapshot of a session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	var state []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM paper_sessions WHERE id = $1`, id,
	).Scan(&state)
	if err != nil {
		return nil, err
	}

	var snap session.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal session state: %w", err)
	}
	return &snap, nil
}

// ListByUserPaginated retrieves a user's session history, newest first.
func (r *SessionRepository) ListByUserPaginated(ctx context.Context, userID, limit, offset int) ([]model.SessionListItem, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM paper_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, paper_name, variant, display_name, time_limit_minutes,
		        question_start, question_end, started_at, ended_at, updated_at
		 FROM paper_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []model.SessionListItem
	for rows.Next() {
		var it model.SessionListItem
		if err := rows.Scan(&it.ID, &it.PaperName, &it.Variant, &it.DisplayName,
			&it.TimeLimitMinutes, &it.QuestionStart, &it.QuestionEnd,
			&it.StartedAt, &it.EndedAt, &it.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}
