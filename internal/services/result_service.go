package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/JaredJameson/TESTHUB/internal/events"
	"github.com/JaredJameson/TESTHUB/internal/export"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/retry"
	"github.com/JaredJameson/TESTHUB/internal/session"
)

// ResultConfig carries the result service settings.
type ResultConfig struct {
	MaxAttempts  int
	TeacherEmail string
	TestVersion  string
	RetryPolicy  retry.Policy
}

type resultService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	cfg       ResultConfig
	logger    *slog.Logger
}

func NewResultService(repo repositories.Repository, publisher events.EventPublisher, cfg ResultConfig, logger *slog.Logger) ResultService {
	return &resultService{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Record persists a scored result and fans out notifications.
//
// The row's idempotency key is derived from the student, attempt number and
// session start time, so retried deliveries of the same completion collapse
// into one row. Persistence runs under the retry policy; when every attempt
// fails a *PersistenceError is returned and the caller keeps showing the
// in-memory record. Notifications are dispatched after a successful write
// and never block or fail the call.
func (s *resultService) Record(ctx context.Context, student StudentInfo, sess *session.Session, record *models.ResultRecord) (*models.TestResult, error) {
	attempts, err := s.repo.Result().CountByEmail(ctx, student.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to determine attempt number: %w", err)
	}
	attemptNumber := int(attempts) + 1

	row, err := s.buildRow(student, sess, record, attemptNumber)
	if err != nil {
		return nil, err
	}

	var created bool
	persistErr := s.cfg.RetryPolicy.Do(ctx, func(ctx context.Context) error {
		var opErr error
		created, opErr = s.repo.Result().Create(ctx, row)
		return opErr
	})
	if persistErr != nil {
		return nil, &PersistenceError{Err: persistErr}
	}
	if !created {
		s.logger.Info("Result already persisted, duplicate delivery suppressed",
			"email", student.Email, "idempotency_key", row.IdempotencyKey)
	}

	// Fire-and-forget: the student sees their result regardless of what
	// happens to the notification path.
	go s.dispatchNotifications(student, row, record)

	return row, nil
}

func (s *resultService) GetStudentResults(ctx context.Context, email string) ([]*models.TestResult, error) {
	return s.repo.Result().ListByEmail(ctx, email)
}

func (s *resultService) ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.TestResult, int64, error) {
	return s.repo.Result().List(ctx, filters)
}

func (s *resultService) AttemptsRemaining(ctx context.Context, email string) (int, error) {
	count, err := s.repo.Result().CountByEmail(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	remaining := s.cfg.MaxAttempts - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *resultService) ExportResults(ctx context.Context) ([]byte, error) {
	results, _, err := s.repo.Result().List(ctx, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to load results for export: %w", err)
	}
	return export.ResultsWorkbook(results)
}

// ===== INTERNAL =====

// buildRow flattens the scored record into the persisted shape: scalar
// columns for querying plus a JSON details blob with per-question answers,
// category breakdown and attempt metadata.
func (s *resultService) buildRow(student StudentInfo, sess *session.Session, record *models.ResultRecord, attemptNumber int) (*models.TestResult, error) {
	answers := make(map[string]models.QuestionDetail, len(record.Details))
	for id, detail := range record.Details {
		answers[strconv.Itoa(id)] = detail
	}

	details := models.ResultDetails{
		Answers:           answers,
		CategoryBreakdown: record.CategoryStats,
		Metadata: models.ResultMetadata{
			TestVersion:   s.cfg.TestVersion,
			TimerVariant:  string(sess.Variant()),
			StartTime:     sess.StartedAt().UTC(),
			EndTime:       sess.CompletedAt().UTC(),
			AutoSubmitted: sess.AutoSubmitted(),
			AutoSaves:     sess.Checkpoints(),
		},
	}
	blob, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result details: %w", err)
	}

	return &models.TestResult{
		IdempotencyKey:   idempotencyKey(student.Email, sess.StartedAt()),
		Email:            student.Email,
		FirstName:        student.FirstName,
		LastName:         student.LastName,
		StudentID:        student.StudentID,
		CorrectCount:     record.CorrectCount,
		TotalQuestions:   record.TotalQuestions,
		Percentage:       record.Percentage,
		Grade:            record.Grade,
		GradeText:        record.GradeText,
		Passed:           record.Passed,
		TimeSpentSeconds: record.TimeSpentSeconds,
		AttemptNumber:    attemptNumber,
		AutoSubmitted:    sess.AutoSubmitted(),
		TestVersion:      s.cfg.TestVersion,
		Details:          datatypes.JSON(blob),
	}, nil
}

// idempotencyKey identifies one attempt by its student and start instant.
// The attempt number deliberately stays out: a redelivery recomputes it
// against a count that already includes the first delivery, and the key must
// not change between deliveries of the same completion.
func idempotencyKey(email string, startedAt time.Time) string {
	return fmt.Sprintf("%s:%s", email, startedAt.UTC().Format(time.RFC3339Nano))
}

// dispatchNotifications publishes the recorded event plus the two result
// emails (student and the fixed teacher recipient). Each failure is logged
// and the rest still go out.
func (s *resultService) dispatchNotifications(student StudentInfo, row *models.TestResult, record *models.ResultRecord) {
	recorded := events.NewEvent(events.EventResultRecorded, events.ResultRecordedEvent{
		IdempotencyKey: row.IdempotencyKey,
		Email:          student.Email,
		AttemptNumber:  row.AttemptNumber,
		Percentage:     record.Percentage,
		Grade:          record.Grade,
		Passed:         record.Passed,
		AutoSubmitted:  row.AutoSubmitted,
	})
	if err := s.publisher.Publish(events.TopicResults, recorded); err != nil {
		s.logger.Error("Failed to publish result recorded event",
			"email", student.Email, "error", err)
	}

	summary := events.ResultNotificationEvent{
		StudentName: student.FirstName + " " + student.LastName,
		Email:       student.Email,
		Score:       fmt.Sprintf("%d/%d", record.CorrectCount, record.TotalQuestions),
		Percentage:  record.Percentage,
		Grade:       record.Grade,
		Passed:      record.Passed,
		TestVersion: s.cfg.TestVersion,
	}

	studentNote := summary
	studentNote.Recipient = student.Email
	if err := s.publisher.Publish(events.TopicNotifications,
		events.NewEvent(events.EventStudentNotification, studentNote)); err != nil {
		s.logger.Error("Failed to publish student notification",
			"email", student.Email, "error", err)
	}

	teacherNote := summary
	teacherNote.Recipient = s.cfg.TeacherEmail
	if err := s.publisher.Publish(events.TopicNotifications,
		events.NewEvent(events.EventTeacherNotification, teacherNote)); err != nil {
		s.logger.Error("Failed to publish teacher notification",
			"recipient", s.cfg.TeacherEmail, "error", err)
	}
}
