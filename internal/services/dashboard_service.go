package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
)

type dashboardService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewDashboardService(repo repositories.Repository, logger *slog.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

// GetOverview assembles the teacher dashboard: aggregate stats over every
// recorded attempt, each student's most recent result, and the average
// score per question category across those latest results.
func (s *dashboardService) GetOverview(ctx context.Context) (*DashboardOverview, error) {
	stats, err := s.repo.Dashboard().GetResultStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load result stats: %w", err)
	}

	latest, err := s.repo.Dashboard().ListLatestPerStudent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest results: %w", err)
	}

	return &DashboardOverview{
		Stats:            stats,
		LatestResults:    latest,
		CategoryAverages: s.categoryAverages(latest),
	}, nil
}

// categoryAverages folds the per-category breakdowns stored in the result
// details blobs into one average percentage per category. A row whose blob
// does not unmarshal is skipped with a warning rather than failing the view.
func (s *dashboardService) categoryAverages(results []*models.TestResult) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, row := range results {
		var details models.ResultDetails
		if err := json.Unmarshal(row.Details, &details); err != nil {
			s.logger.Warn("Skipping result with unreadable details blob",
				"result_id", row.ID, "error", err)
			continue
		}
		for category, stat := range details.CategoryBreakdown {
			sums[category] += stat.Percentage
			counts[category]++
		}
	}

	averages := make(map[string]float64, len(sums))
	for category, sum := range sums {
		averages[category] = math.Round(sum/float64(counts[category])*100) / 100
	}
	return averages
}
