package models

// Choice keys a test question accepts. Every question carries exactly these
// four options; answers are stored as the bare key.
const (
	ChoiceA = "a"
	ChoiceB = "b"
	ChoiceC = "c"
	ChoiceD = "d"
)

// ChoiceKeys lists the valid choice keys in display order.
var ChoiceKeys = []string{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// Question is a single multiple-choice question. Questions are immutable once
// the bank is loaded; IDs are unique and run 1..N.
type Question struct {
	ID            int               `json:"id" validate:"required,min=1"`
	Category      string            `json:"category" validate:"required"`
	Text          string            `json:"question" validate:"required"`
	Options       map[string]string `json:"options" validate:"required"`
	CorrectAnswer string            `json:"correct_answer" validate:"required,oneof=a b c d"`
	Explanation   string            `json:"explanation"`
}

// TestInfo describes the test as a whole, loaded alongside the questions.
type TestInfo struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// QuestionBank is the validated, immutable question set for one test.
type QuestionBank struct {
	TestInfo   TestInfo   `json:"test_info"`
	Categories []string   `json:"categories"`
	Questions  []Question `json:"questions" validate:"required,min=1,dive"`
}

// ByID returns the question with the given id, or nil.
func (b *QuestionBank) ByID(id int) *Question {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i]
		}
	}
	return nil
}

// IsValidChoice reports whether choice is one of the accepted keys.
func IsValidChoice(choice string) bool {
	switch choice {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}
