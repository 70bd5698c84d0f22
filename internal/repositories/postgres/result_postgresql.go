package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JaredJameson/TESTHUB/internal/cache"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
)

// ResultPostgreSQL implements ResultRepository on top of gorm with a redis
// read cache for list queries.
type ResultPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewResultPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db, cacheManager: cacheManager}
}

// Create inserts the row unless its idempotency key is already present.
// ON CONFLICT DO NOTHING makes the retry path safe: the second delivery of
// the same completion affects zero rows and is reported as created=false.
func (r *ResultPostgreSQL) Create(ctx context.Context, result *models.TestResult) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(result)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create test result: %w", res.Error)
	}

	created := res.RowsAffected > 0
	if created {
		cache.InvalidateResultCache(ctx, r.cacheManager, result.Email)
	}
	return created, nil
}

func (r *ResultPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestResult, error) {
	var result models.TestResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get test result %d: %w", id, err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByIdempotencyKey(ctx context.Context, key string) (*models.TestResult, error) {
	var result models.TestResult
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get test result by idempotency key: %w", err)
	}
	return &result, nil
}

func (r *ResultPostgreSQL) ListByEmail(ctx context.Context, email string) ([]*models.TestResult, error) {
	cacheKey := fmt.Sprintf("email:%s:all", email)

	var cached []*models.TestResult
	if err := r.cacheManager.Result.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	var results []*models.TestResult
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list test results for %s: %w", email, err)
	}

	// Cache write failures are not fatal for reads.
	_ = r.cacheManager.Result.Set(ctx, cacheKey, results, cache.ResultCacheConfig.TTL)
	return results, nil
}

func (r *ResultPostgreSQL) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TestResult{})

	if filters.Email != "" {
		query = query.Where("email = ?", filters.Email)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count test results: %w", err)
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var results []*models.TestResult
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list test results: %w", err)
	}
	return results, total, nil
}

func (r *ResultPostgreSQL) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TestResult{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts for %s: %w", email, err)
	}
	return count, nil
}

// IsNotFound reports whether err is the underlying record-not-found case.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
