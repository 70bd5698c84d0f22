// Package session implements the state machine for a single student's test
// attempt: question sequencing, timing, answer capture, locking and
// submission. A Session is owned by exactly one student and is mutated only
// by that student's sequential interactions; there is no internal locking.
//
// Time-based transitions are polling-based. There is no background clock:
// CheckTimeouts runs at the start of every interaction, so expiry takes
// effect when it is next observed.
package session

import (
	"math/rand/v2"
	"time"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// TimerVariant selects which timing model governs a session. The two models
// are never combined: whole_test runs a single deadline from start and
// force-completes on expiry; per_question gives each question a fixed budget
// from the moment it becomes current and expiry locks only that question.
type TimerVariant string

const (
	TimerWholeTest   TimerVariant = "whole_test"
	TimerPerQuestion TimerVariant = "per_question"
)

// Config carries the timing and checkpoint settings for a session.
type Config struct {
	Variant          TimerVariant
	Duration         time.Duration // whole-test limit
	QuestionBudget   time.Duration // per-question limit
	AutoSaveInterval int           // answered-count checkpoint interval

	// Now is the clock; nil means time.Now. Tests inject a fake.
	Now func() time.Time
}

// Answer is one captured response. Selected is empty for questions locked
// before any answer arrived.
type Answer struct {
	Selected   string    `json:"selected"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Session is the per-attempt state machine. The zero value is not usable;
// construct with New.
type Session struct {
	cfg Config
	now func() time.Time

	status        Status
	questionOrder []models.Question
	answers       map[int]Answer
	currentIndex  int
	startedAt     time.Time
	completedAt   time.Time
	autoSubmitted bool

	// whole-test variant
	deadline time.Time

	// per-question variant
	questionDeadline time.Time
	locked           map[int]bool

	checkpoints map[int]bool
}

// New builds a session over the given questions. The slice is copied so the
// caller's bank stays untouched by shuffling.
func New(questions []models.Question, cfg Config) *Session {
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = 5
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	order := make([]models.Question, len(questions))
	copy(order, questions)

	return &Session{
		cfg:           cfg,
		now:           now,
		status:        StatusNotStarted,
		questionOrder: order,
		answers:       make(map[int]Answer),
		locked:        make(map[int]bool),
		checkpoints:   make(map[int]bool),
	}
}

// Start transitions NOT_STARTED -> IN_PROGRESS, optionally shuffling the
// question order, and derives the deadline(s) from the configured durations.
func (s *Session) Start(randomize bool) error {
	if s.status != StatusNotStarted {
		return ErrAlreadyStarted
	}
	if len(s.questionOrder) == 0 {
		return ErrNoQuestions
	}

	if randomize {
		rand.Shuffle(len(s.questionOrder), func(i, j int) {
			s.questionOrder[i], s.questionOrder[j] = s.questionOrder[j], s.questionOrder[i]
		})
	}

	s.status = StatusInProgress
	s.currentIndex = 0
	s.startedAt = s.now()

	switch s.cfg.Variant {
	case TimerPerQuestion:
		s.questionDeadline = s.startedAt.Add(s.cfg.QuestionBudget)
	default:
		s.deadline = s.startedAt.Add(s.cfg.Duration)
	}

	return nil
}

// Answer records the student's choice for a question, overwriting any prior
// answer. It returns a checkpoint value > 0 when this answer crossed an
// auto-save checkpoint that has not fired before; the caller is responsible
// for emitting the auto-save notification.
func (s *Session) Answer(questionID int, choice string) (int, error) {
	s.CheckTimeouts()

	if err := s.requireInProgress(); err != nil {
		return 0, err
	}
	if !models.IsValidChoice(choice) {
		return 0, ErrInvalidChoice
	}

	idx, ok := s.indexOf(questionID)
	if !ok {
		return 0, ErrUnknownQuestion
	}
	if s.locked[idx] {
		return 0, ErrQuestionLocked
	}

	s.answers[questionID] = Answer{Selected: choice, AnsweredAt: s.now()}

	answered := s.AnsweredCount()
	if answered > 0 && answered%s.cfg.AutoSaveInterval == 0 && !s.checkpoints[answered] {
		s.checkpoints[answered] = true
		return answered, nil
	}
	return 0, nil
}

// Navigate moves the cursor to another question. In the per-question variant
// the entered question's budget restarts from now.
func (s *Session) Navigate(newIndex int) error {
	s.CheckTimeouts()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if newIndex < 0 || newIndex >= len(s.questionOrder) {
		return ErrIndexOutOfRange
	}

	s.currentIndex = newIndex
	if s.cfg.Variant == TimerPerQuestion {
		s.questionDeadline = s.now().Add(s.cfg.QuestionBudget)
	}
	return nil
}

// CheckTimeouts applies any elapsed deadline and reports whether the session
// transitioned to COMPLETED as a result of this call.
func (s *Session) CheckTimeouts() bool {
	if s.status != StatusInProgress {
		return false
	}

	now := s.now()
	switch s.cfg.Variant {
	case TimerPerQuestion:
		if !s.locked[s.currentIndex] && !now.Before(s.questionDeadline) {
			s.lockCurrent()
		}
		return false
	default:
		if !now.Before(s.deadline) {
			s.complete(true)
			return true
		}
		return false
	}
}

// Submit finishes the attempt. When unanswered questions remain and force is
// false it returns needsConfirmation=true without transitioning, so the
// caller can ask the student to confirm.
func (s *Session) Submit(force bool) (needsConfirmation bool, err error) {
	if s.CheckTimeouts() {
		// Timeout won the race: the session auto-submitted before this call
		// was observed.
		return false, ErrSessionCompleted
	}
	if err := s.requireInProgress(); err != nil {
		return false, err
	}

	if !force && s.AnsweredCount() < len(s.questionOrder) {
		return true, nil
	}

	s.complete(false)
	return false, nil
}

// ===== QUERIES =====

func (s *Session) Status() Status         { return s.status }
func (s *Session) StartedAt() time.Time   { return s.startedAt }
func (s *Session) CompletedAt() time.Time { return s.completedAt }
func (s *Session) AutoSubmitted() bool    { return s.autoSubmitted }
func (s *Session) CurrentIndex() int      { return s.currentIndex }
func (s *Session) TotalQuestions() int    { return len(s.questionOrder) }
func (s *Session) Variant() TimerVariant {
	if s.cfg.Variant == TimerPerQuestion {
		return TimerPerQuestion
	}
	return TimerWholeTest
}

// CurrentQuestion returns the question under the cursor, or nil before Start.
func (s *Session) CurrentQuestion() *models.Question {
	if s.status == StatusNotStarted {
		return nil
	}
	return &s.questionOrder[s.currentIndex]
}

// QuestionOrder exposes the (possibly shuffled) order for scoring.
func (s *Session) QuestionOrder() []models.Question {
	return s.questionOrder
}

// AnswerFor returns the captured answer for a question id, if any.
func (s *Session) AnswerFor(questionID int) (Answer, bool) {
	a, ok := s.answers[questionID]
	return a, ok
}

// AnsweredCount counts questions with a non-empty selection. Empty entries
// written by timeout locks do not count as answered.
func (s *Session) AnsweredCount() int {
	n := 0
	for _, a := range s.answers {
		if a.Selected != "" {
			n++
		}
	}
	return n
}

// Progress returns answered and total question counts.
func (s *Session) Progress() (answered, total int) {
	return s.AnsweredCount(), len(s.questionOrder)
}

// IsLocked reports whether the question at the given index timed out.
func (s *Session) IsLocked(index int) bool {
	return s.locked[index]
}

// Checkpoints returns the auto-save checkpoints that fired, ascending.
func (s *Session) Checkpoints() []int {
	out := make([]int, 0, len(s.checkpoints))
	for i := 1; i <= len(s.questionOrder); i++ {
		if s.checkpoints[i] {
			out = append(out, i)
		}
	}
	return out
}

// TimeRemaining reports the governing timer's remaining budget: the whole
// test's in the whole_test variant, the current question's in per_question.
// Never negative; zero for a completed session or a locked current question.
func (s *Session) TimeRemaining() time.Duration {
	if s.status != StatusInProgress {
		return 0
	}

	var until time.Time
	switch s.cfg.Variant {
	case TimerPerQuestion:
		if s.locked[s.currentIndex] {
			return 0
		}
		until = s.questionDeadline
	default:
		until = s.deadline
	}

	remaining := until.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ===== INTERNAL =====

func (s *Session) requireInProgress() error {
	switch s.status {
	case StatusNotStarted:
		return ErrNotStarted
	case StatusCompleted:
		return ErrSessionCompleted
	}
	return nil
}

func (s *Session) indexOf(questionID int) (int, bool) {
	for i := range s.questionOrder {
		if s.questionOrder[i].ID == questionID {
			return i, true
		}
	}
	return 0, false
}

// lockCurrent freezes the current question. A question locked before any
// answer arrived gets an explicit empty selection so scoring and reporting
// see it as presented-but-unanswered.
func (s *Session) lockCurrent() {
	idx := s.currentIndex
	s.locked[idx] = true

	id := s.questionOrder[idx].ID
	if _, ok := s.answers[id]; !ok {
		s.answers[id] = Answer{Selected: "", AnsweredAt: s.now()}
	}
}

func (s *Session) complete(autoSubmitted bool) {
	s.status = StatusCompleted
	s.completedAt = s.now()
	s.autoSubmitted = autoSubmitted
}
