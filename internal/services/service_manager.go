package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaredJameson/TESTHUB/internal/events"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/retry"
	"github.com/JaredJameson/TESTHUB/internal/validator"
)

// ServiceManagerConfig bundles everything the services need at startup. The
// question bank and grading scale are loaded and validated before the
// manager is built, so services never see an invalid bank.
type ServiceManagerConfig struct {
	Bank  *models.QuestionBank
	Scale *models.GradingScale

	Session       SessionConfig
	PassThreshold float64
	TeacherEmail  string
}

type serviceManager struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	sessionService   SessionService
	scoringService   ScoringService
	resultService    ResultService
	dashboardService DashboardService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
		config:    config,
	}
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.config.Bank == nil || len(sm.config.Bank.Questions) == 0 {
		return fmt.Errorf("service manager requires a loaded question bank")
	}
	if sm.config.Scale == nil || len(sm.config.Scale.Entries) == 0 {
		return fmt.Errorf("service manager requires a loaded grading scale")
	}

	sm.logger.Info("Initializing service manager",
		"questions", len(sm.config.Bank.Questions),
		"timer_variant", string(sm.config.Session.Timer.Variant),
		"max_attempts", sm.config.Session.MaxAttempts)

	sm.scoringService = NewScoringService(
		sm.config.Bank, sm.config.Scale, sm.config.PassThreshold, sm.logger)

	sm.resultService = NewResultService(sm.repo, sm.publisher, ResultConfig{
		MaxAttempts:  sm.config.Session.MaxAttempts,
		TeacherEmail: sm.config.TeacherEmail,
		TestVersion:  sm.config.Bank.TestInfo.Version,
		RetryPolicy:  retry.DefaultPolicy(),
	}, sm.logger)

	sm.sessionService = NewSessionService(
		sm.config.Bank,
		sm.config.Session,
		sm.repo,
		sm.scoringService,
		sm.resultService,
		sm.publisher,
		sm.logger,
		sm.validator,
	)

	sm.dashboardService = NewDashboardService(sm.repo, sm.logger)

	// Fail fast when the database is unreachable at startup.
	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionService
}

func (sm *serviceManager) Scoring() ScoringService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.scoringService
}

func (sm *serviceManager) Result() ResultService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.resultService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.dashboardService
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")
	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	return nil
}
