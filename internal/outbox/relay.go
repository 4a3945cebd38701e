package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// RecordProducer is the subset of the Kafka producer the relay needs.
type RecordProducer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaRelay is a subscriber that republishes every delivered event to a
// Kafka topic for downstream consumers (notification system, compliance
// dashboards). Records are keyed by resource id so partition order matches
// per-resource delivery order. A produce failure nacks the event and it is
// redelivered, so the topic gets at-least-once semantics too.
type KafkaRelay struct {
	producer RecordProducer
}

func NewKafkaRelay(producer RecordProducer) *KafkaRelay {
	return &KafkaRelay{producer: producer}
}

func (r *KafkaRelay) Handle(ctx context.Context, event *Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}
	key := []byte(string(event.ResourceType) + "/" + event.ResourceID)
	return r.producer.Produce(ctx, key, value)
}
