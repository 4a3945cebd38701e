package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sirenops/internal/resource"
	id "sirenops/pkg/domain"
)

type capturingProducer struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *capturingProducer) Produce(_ context.Context, key, value []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func TestKafkaRelayKeysByResource(t *testing.T) {
	producer := &capturingProducer{}
	relay := NewKafkaRelay(producer)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	event := &Event{
		ID:            id.EventID(uuid.New()),
		OrgID:         id.OrgID(uuid.New()),
		Type:          EventType(resource.TypeDocument, SuffixWriteBlocked),
		ResourceType:  resource.TypeDocument,
		ResourceID:    "doc-1",
		Payload:       json.RawMessage(`{"rule_id":"DOCUMENTS.LEGAL_HOLD.BLOCK.v1"}`),
		CreatedAt:     now,
		NextAttemptAt: now,
	}
	require.NoError(t, relay.Handle(context.Background(), event))

	// Partition key is resource-scoped so Kafka preserves per-resource order.
	require.Len(t, producer.keys, 1)
	assert.Equal(t, "document/doc-1", producer.keys[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(producer.values[0], &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "document.write_blocked", decoded.Type)
}

func TestKafkaRelayProduceFailureNacks(t *testing.T) {
	relay := NewKafkaRelay(&capturingProducer{err: errors.New("broker down")})

	event := &Event{
		ID:           id.EventID(uuid.New()),
		Type:         EventType(resource.TypeEmail, SuffixMutated),
		ResourceType: resource.TypeEmail,
		ResourceID:   "thread-9",
		Payload:      json.RawMessage(`{}`),
	}
	assert.Error(t, relay.Handle(context.Background(), event))
}
