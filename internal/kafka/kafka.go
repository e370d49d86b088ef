package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"defense_service/internal/model"
	"defense_service/pkg/utils"

	"github.com/segmentio/kafka-go"
)

const (
	sendRetries   = 3
	sendBaseDelay = 100 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventSender publishes defense lifecycle events keyed by defense id, so
// all events of one defense land on one partition in order.
type EventSender struct {
	writer    messageWriter
	topic     string
	baseDelay time.Duration
}

func NewEventSender(brokers []string, topic string) *EventSender {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &EventSender{
		writer:    writer,
		topic:     topic,
		baseDelay: sendBaseDelay,
	}
}

func (s *EventSender) Close() error {
	return s.writer.Close()
}

func (s *EventSender) Notify(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	message := kafka.Message{
		Key:   []byte(event.DefenseId.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}

	_, err = utils.RetryWithBackoff(ctx, sendRetries, s.baseDelay, func() (struct{}, error) {
		return struct{}{}, s.writer.WriteMessages(ctx, message)
	})
	if err != nil {
		return fmt.Errorf("failed to send %s event: %w", event.Type, err)
	}
	return nil
}

// Nop drops every event. It stands in when no brokers are configured.
type Nop struct{}

func (Nop) Notify(context.Context, model.Event) error {
	return nil
}
