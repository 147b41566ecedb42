package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"talentkyc/internal/kyc/models"
)

// Producer is the part of *kgo.Client the Kafka publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes events as JSON records keyed by owner id, so one
// owner's events stay ordered within a partition.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.OwnerID.String()),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event_kind", Value: []byte(event.Kind)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Timestamp: event.Timestamp,
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.ID, err)
	}
	return nil
}
