package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/agency-crm/backend/internal/application/adapter"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// KafkaSender implements the adapter.SyncSender interface by publishing
// each mutation to a topic, keyed by wallet so one wallet's messages share a
// partition. Publish order follows delivery order, which the Dispatcher and
// Worker keep per wallet.
type KafkaSender struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaSender creates a new Kafka sender.
func NewKafkaSender(brokers []string, topic string) (*KafkaSender, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka sender requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka sender requires a topic")
	}
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
		topic: topic,
	}, nil
}

// Send publishes the request body as one message.
func (s *KafkaSender) Send(ctx context.Context, request adapter.SyncRequest) (*adapter.SyncResult, error) {
	payload, err := json.Marshal(request.Body)
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodePermanentSyncFailure,
			"failed to encode sync body",
			err,
		)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Topic: s.topic,
		Key:   []byte(request.BigFishID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "Idempotency-Key", Value: []byte(request.IdempotencyKey)},
			{Key: "X-Sync-Action", Value: []byte(request.Action)},
		},
	})
	if err != nil {
		return nil, domainerror.NewSyncError(
			domainerror.ErrCodeTemporarySyncFailure,
			"temporary sync failure",
			err,
		)
	}

	return &adapter.SyncResult{Reference: request.IdempotencyKey}, nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}

var _ adapter.SyncSender = (*KafkaSender)(nil)
