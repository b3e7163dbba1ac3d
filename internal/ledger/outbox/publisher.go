package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"badgeledger/internal/ledger/models"
)

// eventNamespace derives stable event ids from sequence numbers so consumers
// can drop redeliveries.
var eventNamespace = uuid.MustParse("6f1f4a2e-3b0c-4f57-9a53-3a2f0e6d7c11")

// EventID returns the stable id of the event with sequence seq.
func EventID(seq uint64) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(strconv.FormatUint(seq, 10)))
}

// LogPublisher writes events to the log. Used when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events []models.Event) error {
	for _, ev := range events {
		p.logger.InfoContext(ctx, "ledger event",
			"event_id", EventID(ev.Seq).String(),
			"seq", ev.Seq,
			"type", string(ev.Type),
			"request_id", ev.RequestID,
		)
	}
	return nil
}

// RecordProducer is the part of the Kafka producer the publisher needs.
type RecordProducer interface {
	Produce(ctx context.Context, records ...*kgo.Record) error
}

// KafkaPublisher encodes events as JSON records keyed by event type.
type KafkaPublisher struct {
	producer RecordProducer
}

func NewKafkaPublisher(producer RecordProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []models.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", ev.Seq, err)
		}
		records = append(records, &kgo.Record{
			Key:   []byte(ev.Type),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_id", Value: []byte(EventID(ev.Seq).String())},
				{Key: "event_seq", Value: []byte(strconv.FormatUint(ev.Seq, 10))},
			},
			Timestamp: ev.OccurredAt,
		})
	}
	return p.producer.Produce(ctx, records...)
}
