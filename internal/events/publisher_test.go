package events

import (
	"log/slog"
	"os"
	"testing"
)

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)

	event := NewEvent(EventStudentNotification, ResultNotificationEvent{
		Recipient:   "anna.kowalska@example.com",
		StudentName: "Anna Kowalska",
		Email:       "anna.kowalska@example.com",
		Score:       "22/27",
		Percentage:  81.48,
		Grade:       "4.5",
		Passed:      true,
		TestVersion: "2.1",
	})

	if err := publisher.Publish(TopicNotifications, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(published))
	}

	got := published[0]
	if got.ID == "" {
		t.Error("event ID should not be empty")
	}
	if got.Type != EventStudentNotification {
		t.Errorf("event type = %s, want %s", got.Type, EventStudentNotification)
	}
	if got.Source != "testhub" {
		t.Errorf("event source = %s, want testhub", got.Source)
	}
	if got.Version != "1.0" {
		t.Errorf("event version = %s, want 1.0", got.Version)
	}
	if got.Timestamp.IsZero() {
		t.Error("event timestamp should not be zero")
	}

	publisher.ClearEvents()
	if remaining := publisher.GetPublishedEvents(); len(remaining) != 0 {
		t.Errorf("expected no events after ClearEvents, got %d", len(remaining))
	}
}

func TestNewEventUniqueIDs(t *testing.T) {
	a := NewEvent(EventResultRecorded, nil)
	b := NewEvent(EventResultRecorded, nil)
	if a.ID == b.ID {
		t.Errorf("two events share ID %s", a.ID)
	}
}

// Integration path requires a running Kafka broker.
func TestKafkaEventPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	brokers := os.Getenv("KAFKA_TEST_BROKERS")
	if brokers == "" {
		t.Skip("KAFKA_TEST_BROKERS not set")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher, err := NewKafkaEventPublisher([]string{brokers}, logger)
	if err != nil {
		t.Fatalf("NewKafkaEventPublisher() error = %v", err)
	}
	defer publisher.Close()

	event := NewEvent(EventResultRecorded, ResultRecordedEvent{
		IdempotencyKey: "it@example.com:1:2025-03-10T09:00:00Z",
		Email:          "it@example.com",
		AttemptNumber:  1,
		Percentage:     50,
		Grade:          "3.0",
		Passed:         true,
	})
	if err := publisher.Publish(TopicResults, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}
