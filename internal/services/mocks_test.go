package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JaredJameson/TESTHUB/internal/events"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
)

// memResultRepo is an in-memory ResultRepository. failBefore makes the first
// N Create calls fail to exercise the retry path.
type memResultRepo struct {
	mu         sync.Mutex
	rows       map[string]*models.TestResult
	createErrs int
	nextID     uint
}

func newMemResultRepo() *memResultRepo {
	return &memResultRepo{rows: make(map[string]*models.TestResult)}
}

func (r *memResultRepo) Create(ctx context.Context, result *models.TestResult) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErrs > 0 {
		r.createErrs--
		return false, errors.New("simulated database failure")
	}
	if _, exists := r.rows[result.IdempotencyKey]; exists {
		return false, nil
	}
	r.nextID++
	result.ID = r.nextID
	result.CreatedAt = time.Now()
	clone := *result
	r.rows[result.IdempotencyKey] = &clone
	return true, nil
}

func (r *memResultRepo) GetByID(ctx context.Context, id uint) (*models.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, errors.New("test result not found")
}

func (r *memResultRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[key]; ok {
		return row, nil
	}
	return nil, errors.New("test result not found")
}

func (r *memResultRepo) ListByEmail(ctx context.Context, email string) ([]*models.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TestResult
	for _, row := range r.rows {
		if row.Email == email {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memResultRepo) List(ctx context.Context, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TestResult
	for _, row := range r.rows {
		if filters.Email != "" && row.Email != filters.Email {
			continue
		}
		if filters.Passed != nil && row.Passed != *filters.Passed {
			continue
		}
		out = append(out, row)
	}
	return out, int64(len(out)), nil
}

func (r *memResultRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, row := range r.rows {
		if row.Email == email {
			count++
		}
	}
	return count, nil
}

func (r *memResultRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// memDashboardRepo serves canned aggregates.
type memDashboardRepo struct {
	stats  *repositories.ResultStats
	latest []*models.TestResult
}

func (r *memDashboardRepo) GetResultStats(ctx context.Context) (*repositories.ResultStats, error) {
	return r.stats, nil
}

func (r *memDashboardRepo) ListLatestPerStudent(ctx context.Context) ([]*models.TestResult, error) {
	return r.latest, nil
}

// mockRepository satisfies repositories.Repository over the in-memory parts
// the services under test actually touch.
type mockRepository struct {
	result    *memResultRepo
	dashboard *memDashboardRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{result: newMemResultRepo(), dashboard: &memDashboardRepo{}}
}

func (m *mockRepository) Result() repositories.ResultRepository       { return m.result }
func (m *mockRepository) User() repositories.UserRepository           { return nil }
func (m *mockRepository) Dashboard() repositories.DashboardRepository { return m.dashboard }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// waitForEvents polls the mock publisher until n events arrive; dispatch is
// asynchronous on the write path.
func waitForEvents(t *testing.T, publisher *events.MockEventPublisher, n int) []*events.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := publisher.GetPublishedEvents(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	got := publisher.GetPublishedEvents()
	t.Fatalf("timed out waiting for %d events, have %d", n, len(got))
	return got
}
