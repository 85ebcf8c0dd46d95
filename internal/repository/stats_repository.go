package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paperdrill/paperdrill-backend/internal/model"
)

// StatsRepository aggregates practice history. All numbers come straight from
// stored sessions; slots the user never marked are excluded, not estimated.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Summary returns a user's overall practice totals. Time spent is summed from
// the per-question second counters.
func (r *StatsRepository) Summary(ctx context.Context, userID int) (*model.PracticeSummary, error) {
	s := &model.PracticeSummary{}
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE ended_at IS NOT NULL),
		        COALESCE(SUM(question_end - question_start + 1), 0),
		        COALESCE((
		            SELECT SUM(t)
		            FROM paper_sessions ps
		            CROSS JOIN LATERAL unnest(ps.per_question_sec) AS t
		            WHERE ps.user_id = $1
		        ), 0)
		 FROM paper_sessions
		 WHERE user_id = $1`, userID,
	).Scan(&s.TotalSessions, &s.CompletedSessions, &s.TotalQuestions, &s.TotalTimeSec)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// AccuracyByPaper returns per-family marked/correct counts. correct_flags is
// a jsonb array of true/false/null; only boolean entries count as marked.
func (r *StatsRepository) AccuracyByPaper(ctx context.Context, userID int) ([]model.PaperAccuracy, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.paper_name,
		        COUNT(*) FILTER (WHERE jsonb_typeof(f.value) = 'boolean'),
		        COUNT(*) FILTER (WHERE f.value = 'true'::jsonb)
		 FROM paper_sessions s
		 CROSS JOIN LATERAL jsonb_array_elements(s.correct_flags) AS f(value)
		 WHERE s.user_id = $1
		 GROUP BY s.paper_name
		 ORDER BY s.paper_name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PaperAccuracy
	byName := make(map[string]int)
	for rows.Next() {
		var a model.PaperAccuracy
		if err := rows.Scan(&a.PaperName, &a.Marked, &a.Correct); err != nil {
			return nil, err
		}
		if a.Marked > 0 {
			a.AccuracyPct = float64(a.Correct) / float64(a.Marked) * 100
		}
		byName[a.PaperName] = len(out)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	guessRows, err := r.pool.Query(ctx,
		`SELECT s.paper_name, COUNT(*) FILTER (WHERE g)
		 FROM paper_sessions s
		 CROSS JOIN LATERAL unnest(s.guessed_flags) AS g
		 WHERE s.user_id = $1
		 GROUP BY s.paper_name`, userID)
	if err != nil {
		return nil, err
	}
	defer guessRows.Close()

	for guessRows.Next() {
		var name string
		var guessed int
		if err := guessRows.Scan(&name, &guessed); err != nil {
			return nil, err
		}
		if i, ok := byName[name]; ok {
			out[i].GuessedCount = guessed
		}
	}
	return out, guessRows.Err()
}

// MistakeTags returns the user's mistake tag frequencies, most common first.
func (r *StatsRepository) MistakeTags(ctx context.Context, userID int) ([]model.MistakeTagCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT tag, COUNT(*)
		 FROM paper_sessions s
		 CROSS JOIN LATERAL unnest(s.mistake_tags) AS tag
		 WHERE s.user_id = $1 AND tag <> ''
		 GROUP BY tag
		 ORDER BY COUNT(*) DESC, tag`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MistakeTagCount
	for rows.Next() {
		var m model.MistakeTagCount
		if err := rows.Scan(&m.Tag, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
