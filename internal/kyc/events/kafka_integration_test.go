//go:build integration

package events_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"talentkyc/internal/kyc/events"
	"talentkyc/internal/kyc/models"
	"talentkyc/internal/platform/config"
	"talentkyc/internal/platform/kafka"
	id "talentkyc/pkg/domain"
	"talentkyc/pkg/testutil/containers"
)

func TestKafkaPublisherRoundTrip(t *testing.T) {
	broker := containers.NewKafkaContainer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	const topic = "kyc.events.it"
	producer, err := kafka.NewClient(config.KafkaConfig{Brokers: broker.Brokers, Topic: topic, ClientID: "it"})
	require.NoError(t, err)
	t.Cleanup(producer.Close)

	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, slog.New(slog.DiscardHandler)))
	// second call must tolerate the existing topic
	require.NoError(t, kafka.EnsureTopic(ctx, producer, topic, 1, slog.New(slog.DiscardHandler)))

	pub := events.NewKafkaPublisher(producer, topic)
	dispatcher := events.NewDispatcher(pub)
	docID := id.NewDocumentID()
	dispatcher.Emit(ctx, models.Event{
		Kind:       models.EventDocumentStatusChanged,
		OwnerID:    id.OwnerID("owner-it"),
		DocumentID: &docID,
		OldStatus:  string(models.StatusPending),
		NewStatus:  string(models.StatusVerified),
	})
	dispatcher.Flush(ctx)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	t.Cleanup(consumer.Close)

	fetches := consumer.PollRecords(ctx, 1)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "owner-it", string(records[0].Key))
	var got models.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, models.EventDocumentStatusChanged, got.Kind)
	assert.Equal(t, string(models.StatusVerified), got.NewStatus)
	require.NotNil(t, got.DocumentID)
	assert.Equal(t, docID, *got.DocumentID)
}
