package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/JaredJameson/TESTHUB/internal/cache"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
)

// DashboardPostgreSQL runs the aggregate queries behind the teacher view.
type DashboardPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewDashboardPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DashboardRepository {
	return &DashboardPostgreSQL{db: db, cacheManager: cacheManager}
}

func (r *DashboardPostgreSQL) GetResultStats(ctx context.Context) (*repositories.ResultStats, error) {
	const cacheKey = "results:overview"

	var cached repositories.ResultStats
	if err := r.cacheManager.Stats.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	stats := &repositories.ResultStats{
		GradeDistribution: make(map[string]int64),
	}

	row := struct {
		Total         int64
		Students      int64
		Passed        int64
		AvgPercentage float64
		AutoSubmitted int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select(`COUNT(*) AS total,
			COUNT(DISTINCT email) AS students,
			COUNT(*) FILTER (WHERE passed) AS passed,
			COALESCE(AVG(percentage), 0) AS avg_percentage,
			COUNT(*) FILTER (WHERE auto_submitted) AS auto_submitted`).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate result stats: %w", err)
	}

	stats.TotalAttempts = row.Total
	stats.DistinctStudents = row.Students
	stats.PassedCount = row.Passed
	stats.AveragePercentage = row.AvgPercentage
	stats.AutoSubmittedCount = row.AutoSubmitted
	if row.Total > 0 {
		stats.PassRate = float64(row.Passed) / float64(row.Total)
	}

	var grades []struct {
		Grade string
		Count int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Select("grade, COUNT(*) AS count").
		Group("grade").
		Scan(&grades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grade distribution: %w", err)
	}
	for _, g := range grades {
		stats.GradeDistribution[g.Grade] = g.Count
	}

	_ = r.cacheManager.Stats.Set(ctx, cacheKey, stats, cache.StatsCacheConfig.TTL)
	return stats, nil
}

// ListLatestPerStudent returns each student's most recent attempt, newest
// first.
func (r *DashboardPostgreSQL) ListLatestPerStudent(ctx context.Context) ([]*models.TestResult, error) {
	var results []*models.TestResult
	err := r.db.WithContext(ctx).
		Where(`(email, created_at) IN (
			SELECT email, MAX(created_at) FROM test_results GROUP BY email
		)`).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list latest results per student: %w", err)
	}
	return results, nil
}
