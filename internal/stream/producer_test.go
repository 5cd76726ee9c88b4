package stream

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer(t *testing.T) {
	p := NewProducer([]string{"localhost:9092", "localhost:9093"}, "guild-events")
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "guild-events", p.w.Topic)
	assert.IsType(t, &kafka.Hash{}, p.w.Balancer)
}

func TestPublish_RejectsUnencodableValue(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "guild-events")
	t.Cleanup(func() { _ = p.Close() })

	err := p.Publish(context.Background(), "42", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding message")
}
