package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"id": 42, "title": "iphone 15"}

	event, err := NewEvent("product.created", "42", "product", "catalog", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "product.created", event.EventType)
	assert.Equal(t, "42", event.AggregateID)
	assert.Equal(t, "product", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "catalog", event.Source)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Second)
}

func TestEvent_RoundTrip(t *testing.T) {
	event, err := NewEvent("product.deleted", "7", "product", "catalog", map[string]int64{"id": 7})
	require.NoError(t, err)
	event.WithCorrelationID("corr-123").WithMetadata("actor", "admin")

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "corr-123", decoded.CorrelationID)
	assert.Equal(t, "admin", decoded.Metadata["actor"])

	var payload struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, decoded.UnmarshalData(&payload))
	assert.Equal(t, int64(7), payload.ID)
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.False(t, cfg.Async)
}
