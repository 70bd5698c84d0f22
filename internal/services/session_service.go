package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaredJameson/TESTHUB/internal/events"
	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/session"
	"github.com/JaredJameson/TESTHUB/internal/validator"
)

// SessionConfig carries the per-attempt settings handed to new sessions.
type SessionConfig struct {
	Timer          session.Config
	MaxAttempts    int
	RandomizeOrder bool
}

type activeSession struct {
	sess    *session.Session
	student StudentInfo
}

type sessionService struct {
	bank      *models.QuestionBank
	cfg       SessionConfig
	repo      repositories.Repository
	scoring   ScoringService
	results   ResultService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	mu       sync.Mutex
	sessions map[string]*activeSession // keyed by student email
}

func NewSessionService(
	bank *models.QuestionBank,
	cfg SessionConfig,
	repo repositories.Repository,
	scoring ScoringService,
	results ResultService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) SessionService {
	return &sessionService{
		bank:      bank,
		cfg:       cfg,
		repo:      repo,
		scoring:   scoring,
		results:   results,
		publisher: publisher,
		logger:    logger,
		validator: v,
		sessions:  make(map[string]*activeSession),
	}
}

// ===== LIFECYCLE OPERATIONS =====

func (s *sessionService) StartTest(ctx context.Context, student StudentInfo) (*SessionView, error) {
	if err := s.validator.Validate(student); err != nil {
		return nil, NewValidationError("student", err.Error(), student)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Resume a session that is still running; a browser refresh must not
	// burn an attempt.
	if active, ok := s.sessions[student.Email]; ok {
		if completed := active.sess.CheckTimeouts(); completed {
			s.finalizeLocked(ctx, student.Email, active)
		} else if active.sess.Status() == session.StatusInProgress {
			s.logger.Info("Resuming test session", "email", student.Email)
			return s.viewLocked(active, 0), nil
		}
	}

	attempts, err := s.repo.Result().CountByEmail(ctx, student.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check previous attempts: %w", err)
	}
	if int(attempts) >= s.cfg.MaxAttempts {
		s.logger.Warn("Test attempt limit reached",
			"email", student.Email, "attempts", attempts, "max_attempts", s.cfg.MaxAttempts)
		return nil, ErrMaxAttemptsReached
	}

	sess := session.New(s.bank.Questions, s.cfg.Timer)
	if err := sess.Start(s.cfg.RandomizeOrder); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	active := &activeSession{sess: sess, student: student}
	s.sessions[student.Email] = active

	s.logger.Info("Test session started",
		"email", student.Email,
		"attempt", attempts+1,
		"timer_variant", string(sess.Variant()),
		"questions", sess.TotalQuestions())

	return s.viewLocked(active, 0), nil
}

func (s *sessionService) GetSession(ctx context.Context, email string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.sessions[email]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if completed := active.sess.CheckTimeouts(); completed {
		s.finalizeLocked(ctx, email, active)
	}
	return s.viewLocked(active, 0), nil
}

func (s *sessionService) AnswerQuestion(ctx context.Context, email string, questionID int, choice string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.sessions[email]
	if !ok {
		return nil, ErrSessionNotFound
	}

	checkpoint, err := active.sess.Answer(questionID, choice)
	if err != nil {
		return nil, s.mapSessionError(ctx, email, active, err)
	}

	if checkpoint > 0 {
		s.publishAutoSave(email, active, checkpoint)
	}
	return s.viewLocked(active, checkpoint), nil
}

func (s *sessionService) Navigate(ctx context.Context, email string, index int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.sessions[email]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := active.sess.Navigate(index); err != nil {
		return nil, s.mapSessionError(ctx, email, active, err)
	}
	return s.viewLocked(active, 0), nil
}

func (s *sessionService) Submit(ctx context.Context, email string, force bool) (*SubmitResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, ok := s.sessions[email]
	if !ok {
		return nil, ErrSessionNotFound
	}

	needsConfirm, err := active.sess.Submit(force)
	if err != nil {
		return nil, s.mapSessionError(ctx, email, active, err)
	}
	if needsConfirm {
		answered, total := active.sess.Progress()
		return &SubmitResponse{
			NeedsConfirmation: true,
			UnansweredCount:   total - answered,
		}, nil
	}

	record := s.finalizeLocked(ctx, email, active)
	if record == nil {
		return nil, fmt.Errorf("failed to score submitted session")
	}
	return &SubmitResponse{Result: record}, nil
}

// ===== INTERNAL =====

// finalizeLocked scores a completed session, hands it to the result service
// and removes it from the registry. Persistence failure is logged, not
// propagated: the scored record still reaches the student. Callers hold s.mu.
func (s *sessionService) finalizeLocked(ctx context.Context, email string, active *activeSession) *models.ResultRecord {
	record, err := s.scoring.CalculateResults(active.sess)
	if err != nil {
		s.logger.Error("Failed to score completed session", "email", email, "error", err)
		delete(s.sessions, email)
		return nil
	}

	if _, err := s.results.Record(ctx, active.student, active.sess, record); err != nil {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			s.logger.Error("Result persistence exhausted retries, result kept in memory",
				"email", email, "error", err)
		} else {
			s.logger.Error("Failed to record result", "email", email, "error", err)
		}
	}

	delete(s.sessions, email)

	s.logger.Info("Test session finalized",
		"email", email,
		"score", fmt.Sprintf("%d/%d", record.CorrectCount, record.TotalQuestions),
		"percentage", record.Percentage,
		"grade", record.Grade,
		"auto_submitted", active.sess.AutoSubmitted())
	return record
}

// mapSessionError translates state machine errors into service errors and
// finalizes sessions the timeout completed underneath the caller.
func (s *sessionService) mapSessionError(ctx context.Context, email string, active *activeSession, err error) error {
	switch {
	case errors.Is(err, session.ErrSessionCompleted):
		if active.sess.AutoSubmitted() {
			s.finalizeLocked(ctx, email, active)
			return ErrTestTimeExpired
		}
		return ErrTestNotInProgress
	case errors.Is(err, session.ErrQuestionLocked):
		return ErrQuestionLocked
	case errors.Is(err, session.ErrNotStarted):
		return ErrTestNotInProgress
	case errors.Is(err, session.ErrInvalidChoice):
		return NewValidationError("choice", "answer must be one of a, b, c, d", nil)
	case errors.Is(err, session.ErrUnknownQuestion):
		return NewValidationError("question_id", "question is not part of this test", nil)
	case errors.Is(err, session.ErrIndexOutOfRange):
		return NewValidationError("index", "question index out of range", nil)
	default:
		return err
	}
}

func (s *sessionService) publishAutoSave(email string, active *activeSession, checkpoint int) {
	answered, total := active.sess.Progress()
	event := events.NewEvent(events.EventSessionAutoSaved, events.SessionAutoSavedEvent{
		Email:         email,
		AnsweredCount: answered,
		TotalCount:    total,
	})
	if err := s.publisher.Publish(events.TopicSessions, event); err != nil {
		s.logger.Error("Failed to publish auto-save event", "email", email, "error", err)
		return
	}
	s.logger.Debug("Auto-save checkpoint", "email", email, "checkpoint", checkpoint)
}

// viewLocked builds the student-facing snapshot. Callers hold s.mu.
func (s *sessionService) viewLocked(active *activeSession, checkpoint int) *SessionView {
	sess := active.sess
	answered, total := sess.Progress()

	view := &SessionView{
		Status:               sess.Status(),
		TimerVariant:         string(sess.Variant()),
		AnsweredCount:        answered,
		TotalQuestions:       total,
		TimeRemainingSeconds: int(sess.TimeRemaining().Seconds()),
		AutoSaveCheckpoint:   checkpoint,
	}

	if q := sess.CurrentQuestion(); q != nil && sess.Status() == session.StatusInProgress {
		qv := &QuestionView{
			ID:       q.ID,
			Number:   sess.CurrentIndex() + 1,
			Category: q.Category,
			Text:     q.Text,
			Options:  q.Options,
			Locked:   sess.IsLocked(sess.CurrentIndex()),
		}
		if answer, ok := sess.AnswerFor(q.ID); ok {
			qv.Selected = answer.Selected
		}
		view.CurrentQuestion = qv
	}
	return view
}
