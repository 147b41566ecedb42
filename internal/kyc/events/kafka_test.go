package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"talentkyc/internal/kyc/models"
	id "talentkyc/pkg/domain"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestKafkaPublisherKeysByOwner(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewKafkaPublisher(producer, "kyc.events")
	docID := id.NewDocumentID()
	ev := models.Event{
		ID:           "evt-1",
		Kind:         models.EventDocumentStatusChanged,
		OwnerID:      id.OwnerID("owner-42"),
		DocumentID:   &docID,
		DocumentType: models.DocumentTypePassport,
		OldStatus:    string(models.StatusPending),
		NewStatus:    string(models.StatusVerified),
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, pub.Publish(context.Background(), ev))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "kyc.events", rec.Topic)
	assert.Equal(t, "owner-42", string(rec.Key))
	assert.Equal(t, ev.Timestamp, rec.Timestamp)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, ev.Kind, decoded.Kind)
	require.NotNil(t, decoded.DocumentID)
	assert.Equal(t, docID, *decoded.DocumentID)
	assert.Contains(t, rec.Headers, kgo.RecordHeader{Key: "event_kind", Value: []byte(ev.Kind)})
}

func TestKafkaPublisherReturnsProduceError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("not leader for partition")}
	pub := NewKafkaPublisher(producer, "kyc.events")

	err := pub.Publish(context.Background(), models.Event{ID: "evt-2", OwnerID: "owner-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-2")
	assert.Contains(t, err.Error(), "not leader for partition")
}
