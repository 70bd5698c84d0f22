package repositories

import (
	"context"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

// ResultFilters narrows result list queries.
type ResultFilters struct {
	Email  string
	Passed *bool
	Limit  int
	Offset int
}

// ResultRepository persists completed attempt results.
type ResultRepository interface {
	// Create inserts a result row. Rows are keyed by idempotency key: when a
	// row with the same key already exists the insert is a silent no-op and
	// created is false. Retrying callers therefore cannot duplicate results.
	Create(ctx context.Context, result *models.TestResult) (created bool, err error)

	// Read operations
	GetByID(ctx context.Context, id uint) (*models.TestResult, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.TestResult, error)
	ListByEmail(ctx context.Context, email string) ([]*models.TestResult, error)
	List(ctx context.Context, filters ResultFilters) ([]*models.TestResult, int64, error)

	// CountByEmail reports how many attempts a student has recorded. Used for
	// the configurable attempt limit.
	CountByEmail(ctx context.Context, email string) (int64, error)
}
