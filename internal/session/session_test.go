package session

import (
	"errors"
	"testing"
	"time"

	"github.com/JaredJameson/TESTHUB/internal/models"
)

// fakeClock is a manually advanced clock for deterministic timer tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func bankQuestions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			ID:       i + 1,
			Category: "SQL",
			Text:     "q",
			Options: map[string]string{
				"a": "A", "b": "B", "c": "C", "d": "D",
			},
			CorrectAnswer: "a",
		}
	}
	return qs
}

func wholeTestSession(t *testing.T, n int, clock *fakeClock) *Session {
	t.Helper()
	s := New(bankQuestions(n), Config{
		Variant:          TimerWholeTest,
		Duration:         30 * time.Minute,
		AutoSaveInterval: 5,
		Now:              clock.Now,
	})
	if err := s.Start(false); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func perQuestionSession(t *testing.T, n int, clock *fakeClock) *Session {
	t.Helper()
	s := New(bankQuestions(n), Config{
		Variant:          TimerPerQuestion,
		QuestionBudget:   20 * time.Second,
		AutoSaveInterval: 5,
		Now:              clock.Now,
	})
	if err := s.Start(false); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	clock := newFakeClock()
	s := New(bankQuestions(3), Config{
		Variant:  TimerWholeTest,
		Duration: 30 * time.Minute,
		Now:      clock.Now,
	})

	if s.Status() != StatusNotStarted {
		t.Fatalf("Status() = %v, want %v", s.Status(), StatusNotStarted)
	}
	if s.CurrentQuestion() != nil {
		t.Error("CurrentQuestion() before Start should be nil")
	}
	if _, err := s.Answer(1, "a"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Answer() before Start error = %v, want ErrNotStarted", err)
	}
	if err := s.Navigate(1); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Navigate() before Start error = %v, want ErrNotStarted", err)
	}

	if err := s.Start(false); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.Status() != StatusInProgress {
		t.Fatalf("Status() = %v, want %v", s.Status(), StatusInProgress)
	}
	if err := s.Start(false); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}

	for id := 1; id <= 3; id++ {
		if _, err := s.Answer(id, "a"); err != nil {
			t.Fatalf("Answer(%d) error = %v", id, err)
		}
	}
	needsConfirm, err := s.Submit(false)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if needsConfirm {
		t.Error("Submit() with all questions answered should not ask for confirmation")
	}
	if s.Status() != StatusCompleted {
		t.Fatalf("Status() = %v, want %v", s.Status(), StatusCompleted)
	}
	if s.AutoSubmitted() {
		t.Error("manual submit should not be marked auto-submitted")
	}

	if _, err := s.Answer(1, "b"); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Answer() after Submit error = %v, want ErrSessionCompleted", err)
	}
	if _, err := s.Submit(true); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Submit() after Submit error = %v, want ErrSessionCompleted", err)
	}
}

func TestStartEmptySession(t *testing.T) {
	s := New(nil, Config{Variant: TimerWholeTest, Duration: time.Minute})
	if err := s.Start(false); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("Start() error = %v, want ErrNoQuestions", err)
	}
}

func TestAnswerValidation(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 3, clock)

	tests := []struct {
		name       string
		questionID int
		choice     string
		wantErr    error
	}{
		{"valid choice", 1, "a", nil},
		{"overwrite allowed", 1, "c", nil},
		{"invalid choice", 1, "e", ErrInvalidChoice},
		{"empty choice", 1, "", ErrInvalidChoice},
		{"unknown question", 99, "a", ErrUnknownQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Answer(tt.questionID, tt.choice)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Answer(%d, %q) error = %v, want %v", tt.questionID, tt.choice, err, tt.wantErr)
			}
		})
	}

	a, ok := s.AnswerFor(1)
	if !ok || a.Selected != "c" {
		t.Errorf("AnswerFor(1) = %+v, %v; want selected c", a, ok)
	}
	if got := s.AnsweredCount(); got != 1 {
		t.Errorf("AnsweredCount() = %d, want 1 (overwrite must not double count)", got)
	}
}

func TestNavigateBounds(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 5, clock)

	if err := s.Navigate(4); err != nil {
		t.Fatalf("Navigate(4) error = %v", err)
	}
	if s.CurrentIndex() != 4 {
		t.Errorf("CurrentIndex() = %d, want 4", s.CurrentIndex())
	}
	if q := s.CurrentQuestion(); q == nil || q.ID != 5 {
		t.Errorf("CurrentQuestion() = %+v, want ID 5", q)
	}

	if err := s.Navigate(-1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Navigate(-1) error = %v, want ErrIndexOutOfRange", err)
	}
	if err := s.Navigate(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Navigate(5) error = %v, want ErrIndexOutOfRange", err)
	}
	if s.CurrentIndex() != 4 {
		t.Errorf("failed Navigate moved the cursor to %d", s.CurrentIndex())
	}
}

func TestWholeTestTimeout(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 27, clock)

	clock.Advance(29 * time.Minute)
	if s.CheckTimeouts() {
		t.Fatal("CheckTimeouts() before the deadline should not complete the session")
	}
	if got := s.TimeRemaining(); got != time.Minute {
		t.Errorf("TimeRemaining() = %v, want 1m", got)
	}

	// Expiry is observed on the next interaction, not at the instant the
	// deadline passes.
	clock.Advance(time.Minute + time.Second)
	if !s.CheckTimeouts() {
		t.Fatal("CheckTimeouts() past the deadline should complete the session")
	}
	if s.Status() != StatusCompleted {
		t.Fatalf("Status() = %v, want %v", s.Status(), StatusCompleted)
	}
	if !s.AutoSubmitted() {
		t.Error("timeout completion must be marked auto-submitted")
	}
	if got := s.AnsweredCount(); got != 0 {
		t.Errorf("AnsweredCount() = %d, want 0 (timeout with no answers)", got)
	}
	if got := s.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining() after completion = %v, want 0", got)
	}
	if s.CheckTimeouts() {
		t.Error("CheckTimeouts() on a completed session must be a no-op")
	}
}

func TestWholeTestTimeoutAppliedByInteraction(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 3, clock)

	clock.Advance(31 * time.Minute)
	if _, err := s.Answer(1, "a"); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Answer() past deadline error = %v, want ErrSessionCompleted", err)
	}
	if s.Status() != StatusCompleted || !s.AutoSubmitted() {
		t.Errorf("interaction past deadline must auto-submit, got status=%v auto=%v",
			s.Status(), s.AutoSubmitted())
	}
}

func TestSubmitRacesTimeout(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 3, clock)

	clock.Advance(31 * time.Minute)
	if _, err := s.Submit(true); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("Submit() past deadline error = %v, want ErrSessionCompleted", err)
	}
	if !s.AutoSubmitted() {
		t.Error("the timeout, not the submit, must win the race")
	}
}

func TestSubmitConfirmation(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 3, clock)

	if _, err := s.Answer(1, "a"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}

	needsConfirm, err := s.Submit(false)
	if err != nil {
		t.Fatalf("Submit(false) error = %v", err)
	}
	if !needsConfirm {
		t.Fatal("Submit(false) with unanswered questions must ask for confirmation")
	}
	if s.Status() != StatusInProgress {
		t.Fatalf("unconfirmed Submit must not transition, got %v", s.Status())
	}

	needsConfirm, err = s.Submit(true)
	if err != nil {
		t.Fatalf("Submit(true) error = %v", err)
	}
	if needsConfirm {
		t.Error("forced Submit must not ask for confirmation")
	}
	if s.Status() != StatusCompleted || s.AutoSubmitted() {
		t.Errorf("forced Submit: status=%v auto=%v, want completed/manual", s.Status(), s.AutoSubmitted())
	}
}

func TestPerQuestionLock(t *testing.T) {
	clock := newFakeClock()
	s := perQuestionSession(t, 3, clock)

	clock.Advance(19 * time.Second)
	if _, err := s.Answer(1, "b"); err != nil {
		t.Fatalf("Answer() inside the budget error = %v", err)
	}

	if err := s.Navigate(1); err != nil {
		t.Fatalf("Navigate(1) error = %v", err)
	}
	if got := s.TimeRemaining(); got != 20*time.Second {
		t.Errorf("TimeRemaining() after Navigate = %v, want 20s (budget restarts)", got)
	}

	clock.Advance(20 * time.Second)
	if _, err := s.Answer(2, "a"); !errors.Is(err, ErrQuestionLocked) {
		t.Errorf("Answer() on expired question error = %v, want ErrQuestionLocked", err)
	}
	if !s.IsLocked(1) {
		t.Error("IsLocked(1) = false after budget elapsed")
	}
	if s.Status() != StatusInProgress {
		t.Errorf("per-question expiry must not complete the session, got %v", s.Status())
	}

	// The locked question records an explicit empty selection.
	a, ok := s.AnswerFor(2)
	if !ok || a.Selected != "" {
		t.Errorf("AnswerFor(2) = %+v, %v; want recorded empty selection", a, ok)
	}
	if got := s.AnsweredCount(); got != 1 {
		t.Errorf("AnsweredCount() = %d, want 1 (empty lock entry must not count)", got)
	}
	if got := s.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining() on locked question = %v, want 0", got)
	}
}

func TestPerQuestionLockPreservesAnswer(t *testing.T) {
	clock := newFakeClock()
	s := perQuestionSession(t, 2, clock)

	if _, err := s.Answer(1, "d"); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	clock.Advance(25 * time.Second)
	s.CheckTimeouts()

	if !s.IsLocked(0) {
		t.Fatal("question 1 should be locked")
	}
	a, _ := s.AnswerFor(1)
	if a.Selected != "d" {
		t.Errorf("lock overwrote the answer: got %q, want d", a.Selected)
	}
	if _, err := s.Answer(1, "a"); !errors.Is(err, ErrQuestionLocked) {
		t.Errorf("Answer() on locked question error = %v, want ErrQuestionLocked", err)
	}
}

func TestPerQuestionNavigateRestartsBudget(t *testing.T) {
	clock := newFakeClock()
	s := perQuestionSession(t, 3, clock)

	clock.Advance(10 * time.Second)
	if err := s.Navigate(1); err != nil {
		t.Fatalf("Navigate(1) error = %v", err)
	}
	clock.Advance(15 * time.Second)
	// 25s since start, but only 15s on question 2.
	if _, err := s.Answer(2, "c"); err != nil {
		t.Errorf("Answer() error = %v, question 2's budget should not have elapsed", err)
	}
	if s.IsLocked(0) {
		t.Error("question 1 must not lock once the cursor moved off it")
	}
}

func TestAutoSaveCheckpoints(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 12, clock)

	var fired []int
	for id := 1; id <= 10; id++ {
		cp, err := s.Answer(id, "a")
		if err != nil {
			t.Fatalf("Answer(%d) error = %v", id, err)
		}
		if cp > 0 {
			fired = append(fired, cp)
		}
	}

	want := []int{5, 10}
	if len(fired) != len(want) {
		t.Fatalf("checkpoints fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("checkpoints fired = %v, want %v", fired, want)
		}
	}

	// Re-answering does not change the count and must not re-fire.
	cp, err := s.Answer(10, "b")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if cp != 0 {
		t.Errorf("re-answer fired checkpoint %d, want none", cp)
	}

	got := s.Checkpoints()
	if len(got) != 2 || got[0] != 5 || got[1] != 10 {
		t.Errorf("Checkpoints() = %v, want [5 10]", got)
	}
}

func TestShufflePreservesQuestionSet(t *testing.T) {
	clock := newFakeClock()
	s := New(bankQuestions(27), Config{
		Variant:  TimerWholeTest,
		Duration: 30 * time.Minute,
		Now:      clock.Now,
	})
	if err := s.Start(true); err != nil {
		t.Fatalf("Start(true) error = %v", err)
	}

	seen := make(map[int]bool)
	for _, q := range s.QuestionOrder() {
		if seen[q.ID] {
			t.Fatalf("duplicate question id %d after shuffle", q.ID)
		}
		seen[q.ID] = true
	}
	if len(seen) != 27 {
		t.Fatalf("shuffle changed question count: %d, want 27", len(seen))
	}
}

func TestProgress(t *testing.T) {
	clock := newFakeClock()
	s := wholeTestSession(t, 27, clock)

	answered, total := s.Progress()
	if answered != 0 || total != 27 {
		t.Fatalf("Progress() = %d/%d, want 0/27", answered, total)
	}
	for id := 1; id <= 13; id++ {
		if _, err := s.Answer(id, "a"); err != nil {
			t.Fatalf("Answer(%d) error = %v", id, err)
		}
	}
	answered, total = s.Progress()
	if answered != 13 || total != 27 {
		t.Errorf("Progress() = %d/%d, want 13/27", answered, total)
	}
}
