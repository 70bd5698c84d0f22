package repositories

import (
	"context"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

// ResultStats is the aggregate view over all recorded attempts.
type ResultStats struct {
	TotalAttempts      int64            `json:"total_attempts"`
	DistinctStudents   int64            `json:"distinct_students"`
	PassedCount        int64            `json:"passed_count"`
	PassRate           float64          `json:"pass_rate"`
	AveragePercentage  float64          `json:"average_percentage"`
	AutoSubmittedCount int64            `json:"auto_submitted_count"`
	GradeDistribution  map[string]int64 `json:"grade_distribution"`
}

// DashboardRepository runs the aggregate queries behind the teacher view.
type DashboardRepository interface {
	GetResultStats(ctx context.Context) (*ResultStats, error)

	// ListLatestPerStudent returns each student's most recent attempt.
	ListLatestPerStudent(ctx context.Context) ([]*models.TestResult, error)
}
