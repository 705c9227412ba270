package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mastery/internal/ledger/models"
	"mastery/internal/platform/kafka"
	"mastery/internal/platform/kafka/producer"
	id "mastery/pkg/domain"
)

// InMemorySink keeps events in memory for tests and standalone runs.
type InMemorySink struct {
	mu     sync.RWMutex
	events []models.Event
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Append(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByVerification returns the events recorded for one verification in order.
func (s *InMemorySink) ListByVerification(vid id.VerificationID) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Event
	for _, e := range s.events {
		if e.VerificationID == vid && e.Type != models.EventConfigChanged {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event in order.
func (s *InMemorySink) All() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Event(nil), s.events...)
}

// KafkaSink publishes events to the ledger events topic keyed by
// verification ID, so all events of a verification land on one partition.
type KafkaSink struct {
	producer producer.Publisher
	topic    string
}

func NewKafkaSink(p producer.Publisher) *KafkaSink {
	return &KafkaSink{producer: p, topic: kafka.TopicLedgerEvents}
}

func (s *KafkaSink) Append(_ context.Context, event models.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}
	return s.producer.ProduceAsync(&producer.Message{
		Topic: s.topic,
		Key:   []byte(event.VerificationID.String()),
		Value: value,
		Headers: map[string]string{
			"event_type": string(event.Type),
			"event_id":   event.ID.String(),
		},
	})
}
