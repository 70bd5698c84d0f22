package services

import (
	"context"

	"github.com/JaredJameson/TESTHUB/internal/models"
	"github.com/JaredJameson/TESTHUB/internal/repositories"
	"github.com/JaredJameson/TESTHUB/internal/session"
)

// ===== REQUEST / RESPONSE TYPES =====

// StudentInfo identifies the student taking a test.
type StudentInfo struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	StudentID string `json:"student_id" validate:"omitempty,max=64"`
}

// QuestionView is the question as shown to the student. The correct answer
// never leaves the server while a session is in progress.
type QuestionView struct {
	ID       int               `json:"id"`
	Number   int               `json:"number"` // 1-based position in this session's order
	Category string            `json:"category"`
	Text     string            `json:"question"`
	Options  map[string]string `json:"options"`
	Selected string            `json:"selected,omitempty"`
	Locked   bool              `json:"locked"`
}

// SessionView is the student-facing snapshot of a running session.
type SessionView struct {
	Status               session.Status `json:"status"`
	TimerVariant         string         `json:"timer_variant"`
	CurrentQuestion      *QuestionView  `json:"current_question,omitempty"`
	AnsweredCount        int            `json:"answered_count"`
	TotalQuestions       int            `json:"total_questions"`
	TimeRemainingSeconds int            `json:"time_remaining_seconds"`
	AutoSaveCheckpoint   int            `json:"auto_save_checkpoint,omitempty"`
}

// SubmitResponse is the outcome of a submit call. When unanswered questions
// remain and the submit was not forced, NeedsConfirmation is true and no
// transition happened.
type SubmitResponse struct {
	NeedsConfirmation bool                 `json:"needs_confirmation"`
	UnansweredCount   int                  `json:"unanswered_count,omitempty"`
	Result            *models.ResultRecord `json:"result,omitempty"`
}

// DashboardOverview is the teacher's aggregate view.
type DashboardOverview struct {
	Stats            *repositories.ResultStats `json:"stats"`
	LatestResults    []*models.TestResult      `json:"latest_results"`
	CategoryAverages map[string]float64        `json:"category_averages"`
}

// ===== SERVICE INTERFACES =====

// SessionService owns the in-memory registry of active test sessions, one
// per student, and drives each through its lifecycle.
type SessionService interface {
	// StartTest begins a new session, or resumes the student's session if one
	// is still in progress. Fails with ErrMaxAttemptsReached when the student
	// has no attempts left.
	StartTest(ctx context.Context, student StudentInfo) (*SessionView, error)

	// GetSession returns the current snapshot, applying any elapsed timeout
	// first. A whole-test timeout finalizes the session before returning.
	GetSession(ctx context.Context, email string) (*SessionView, error)

	// AnswerQuestion records a choice and reports the auto-save checkpoint,
	// if one fired, in the returned view.
	AnswerQuestion(ctx context.Context, email string, questionID int, choice string) (*SessionView, error)

	// Navigate moves the student's cursor to the question at index.
	Navigate(ctx context.Context, email string, index int) (*SessionView, error)

	// Submit finishes the test, scores it, persists the result and triggers
	// notifications. With force=false it asks for confirmation when
	// unanswered questions remain.
	Submit(ctx context.Context, email string, force bool) (*SubmitResponse, error)
}

// ScoringService turns a completed session into a result record. Pure and
// deterministic: no I/O, identical input yields identical output.
type ScoringService interface {
	CalculateResults(sess *session.Session) (*models.ResultRecord, error)
}

// ResultService persists scored results and fans out notifications.
type ResultService interface {
	// Record writes the result row (idempotently, with retries) and then
	// dispatches the student and teacher notifications fire-and-forget.
	// On persistence exhaustion it returns a *PersistenceError; the scored
	// record the caller holds is still valid and shown to the student.
	Record(ctx context.Context, student StudentInfo, sess *session.Session, record *models.ResultRecord) (*models.TestResult, error)

	GetStudentResults(ctx context.Context, email string) ([]*models.TestResult, error)
	ListResults(ctx context.Context, filters repositories.ResultFilters) ([]*models.TestResult, int64, error)

	// AttemptsRemaining reports how many attempts the student has left.
	AttemptsRemaining(ctx context.Context, email string) (int, error)

	// ExportResults renders all results as an XLSX workbook.
	ExportResults(ctx context.Context) ([]byte, error)
}

// DashboardService aggregates results for the teacher view.
type DashboardService interface {
	GetOverview(ctx context.Context) (*DashboardOverview, error)
}

// ServiceManager provides access to all services and their lifecycle.
type ServiceManager interface {
	Session() SessionService
	Scoring() ScoringService
	Result() ResultService
	Dashboard() DashboardService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}
