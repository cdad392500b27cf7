// Package events publishes lifecycle changes of entry groups to outside
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vidall28/trocasequebras/internal/model"
)

// Event types.
const (
	TypeFinalized = "entry.finalized"
	TypeSubmitted = "entry.submitted"
	TypeResumed   = "entry.resumed"
	TypeApproved  = "entry.approved"
	TypeRejected  = "entry.rejected"
)

// Event describes one committed lifecycle change.
type Event struct {
	Type    string            `json:"type"`
	GroupID string            `json:"groupId"`
	OwnerID string            `json:"ownerId"`
	ActorID string            `json:"actorId"`
	Status  model.EntryStatus `json:"status"`
	At      time.Time         `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// KafkaWriter is the subset of *kafka.Writer used here.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by group id.
type KafkaPublisher struct {
	writer KafkaWriter
	topic  string
}

// NewKafkaWriter creates a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher wraps writer.
func NewKafkaPublisher(writer KafkaWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.GroupID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing %s to %s: %w", e.Type, p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of delivering them.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(_ context.Context, e Event) error {
	p.Logger.Info("entry event", "type", e.Type, "group", e.GroupID, "status", e.Status, "actor", e.ActorID)
	return nil
}
