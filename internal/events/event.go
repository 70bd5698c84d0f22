// Package events defines the outbound event envelope and publishers. Events
// are fire-and-forget: delivery failures are logged, never propagated to the
// operation that produced them.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "testhub"
	eventVersion = "1.0"
)

// Topics events are published to.
const (
	TopicNotifications = "testhub.notifications"
	TopicResults       = "testhub.results"
	TopicSessions      = "testhub.sessions"
)

// Event types.
const (
	EventResultRecorded      = "result.recorded"
	EventStudentNotification = "notification.student_result"
	EventTeacherNotification = "notification.teacher_result"
	EventSessionAutoSaved    = "session.auto_saved"
)

// Event is the envelope every published message carries.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent wraps a payload in a fully populated envelope.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ResultNotificationEvent is the payload for both student and teacher result
// notifications. Recipient differs; the result summary is shared.
type ResultNotificationEvent struct {
	Recipient   string  `json:"recipient"`
	StudentName string  `json:"student_name"`
	Email       string  `json:"email"`
	Score       string  `json:"score"`
	Percentage  float64 `json:"percentage"`
	Grade       string  `json:"grade"`
	Passed      bool    `json:"passed"`
	TestVersion string  `json:"test_version"`
}

// ResultRecordedEvent announces a persisted attempt result.
type ResultRecordedEvent struct {
	IdempotencyKey string  `json:"idempotency_key"`
	Email          string  `json:"email"`
	AttemptNumber  int     `json:"attempt_number"`
	Percentage     float64 `json:"percentage"`
	Grade          string  `json:"grade"`
	Passed         bool    `json:"passed"`
	AutoSubmitted  bool    `json:"auto_submitted"`
}

// SessionAutoSavedEvent announces an in-progress checkpoint.
type SessionAutoSavedEvent struct {
	Email         string `json:"email"`
	AnsweredCount int    `json:"answered_count"`
	TotalCount    int    `json:"total_count"`
}
