package service

import (
	"context"

	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
)

// StatsOverview bundles every analytics block for the overview endpoint.
type StatsOverview struct {
	Summary     *model.PracticeSummary  `json:"summary"`
	Accuracy    []model.PaperAccuracy   `json:"accuracy"`
	MistakeTags []model.MistakeTagCount `json:"mistake_tags"`
}

// StatsService assembles practice analytics. A user with no history gets
// zeroed totals and empty breakdowns, never placeholder numbers.
type StatsService struct {
	stats *repository.StatsRepository
}

// NewStatsService creates a new StatsService.
func NewStatsService(stats *repository.StatsRepository) *StatsService {
	return &StatsService{stats: stats}
}

// Overview returns the user's full analytics block.
func (s *StatsService) Overview(ctx context.Context, userID int) (*StatsOverview, error) {
	summary, err := s.stats.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}

	accuracy, err := s.stats.AccuracyByPaper(ctx, userID)
	if err != nil {
		return nil, err
	}

	tags, err := s.stats.MistakeTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &StatsOverview{
		Summary:     summary,
		Accuracy:    accuracy,
		MistakeTags: tags,
	}, nil
}
