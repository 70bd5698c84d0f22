package models

import (
	"time"

	"gorm.io/datatypes"
)

// CategoryStat is the per-category breakdown inside a ResultRecord.
type CategoryStat struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// QuestionDetail records how a single question was answered.
type QuestionDetail struct {
	Selected  string `json:"selected"`
	Correct   string `json:"correct"`
	IsCorrect bool   `json:"is_correct"`
	Category  string `json:"category"`
}

// ResultRecord is the scoring engine's output for one completed session.
// It is immutable once produced and deterministic: scoring the same session
// twice yields identical records.
type ResultRecord struct {
	CorrectCount     int                     `json:"correct_count"`
	TotalQuestions   int                     `json:"total_questions"`
	Percentage       float64                 `json:"percentage"`
	Grade            string                  `json:"grade"`
	GradeText        string                  `json:"grade_text"`
	Passed           bool                    `json:"passed"`
	TimeSpentSeconds int                     `json:"time_spent_seconds"`
	CategoryStats    map[string]CategoryStat `json:"category_stats"`
	Details          map[int]QuestionDetail  `json:"details"`
}

// ResultDetails is the serialized blob stored alongside the flat row.
type ResultDetails struct {
	Answers           map[string]QuestionDetail `json:"answers"`
	CategoryBreakdown map[string]CategoryStat   `json:"category_breakdown"`
	Metadata          ResultMetadata            `json:"metadata"`
}

// ResultMetadata captures per-attempt context that is not part of scoring.
type ResultMetadata struct {
	TestVersion   string    `json:"test_version"`
	TimerVariant  string    `json:"timer_variant"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	AutoSubmitted bool      `json:"auto_submitted"`
	AutoSaves     []int     `json:"auto_saves"`
}

// TestResult is the persisted row for one completed attempt. IdempotencyKey
// is stable across retries of the same completion event, so an at-least-once
// caller cannot produce duplicate rows.
type TestResult struct {
	ID uint `json:"id" gorm:"primaryKey"`

	IdempotencyKey string `json:"idempotency_key" gorm:"uniqueIndex;not null;size:255"`

	// Student identity
	Email     string `json:"email" gorm:"not null;index;size:255"`
	FirstName string `json:"first_name" gorm:"not null;size:100"`
	LastName  string `json:"last_name" gorm:"not null;size:100"`
	StudentID string `json:"student_id" gorm:"size:64"`

	// Scoring
	CorrectCount     int     `json:"correct_count" gorm:"not null"`
	TotalQuestions   int     `json:"total_questions" gorm:"not null"`
	Percentage       float64 `json:"percentage" gorm:"not null"`
	Grade            string  `json:"grade" gorm:"not null;size:16"`
	GradeText        string  `json:"grade_text" gorm:"size:100"`
	Passed           bool    `json:"passed" gorm:"index"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`

	// Attempt context
	AttemptNumber int            `json:"attempt_number" gorm:"not null;default:1"`
	AutoSubmitted bool           `json:"auto_submitted"`
	TestVersion   string         `json:"test_version" gorm:"size:32"`
	Details       datatypes.JSON `json:"details" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TestResult) TableName() string {
	return "test_results"
}
