package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(context.Background(), &ProducerConfig{})
	require.Error(t, err)

	_, err = NewProducer(context.Background(), nil)
	require.Error(t, err)
}

func TestToRecord(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := toRecord(&Message{
		Topic:     "payment-gateway.events",
		Key:       []byte("pay_123"),
		Value:     []byte(`{"event":"payment.success"}`),
		Headers:   map[string]string{"event_type": "payment.success"},
		Timestamp: ts,
	})

	assert.Equal(t, "payment-gateway.events", rec.Topic)
	assert.Equal(t, []byte("pay_123"), rec.Key)
	assert.Equal(t, ts, rec.Timestamp)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, []byte("payment.success"), rec.Headers[0].Value)
}
