package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewboard/crewboard-backend/pkg/logger"
)

type fakeAck struct {
	attempts int
	settled  string
	requeue  bool
}

func (a *fakeAck) Ack() error { a.settled = "ack"; return nil }
func (a *fakeAck) Nack(requeue bool) error {
	a.settled, a.requeue = "nack", requeue
	return nil
}
func (a *fakeAck) Reject(requeue bool) error {
	a.settled, a.requeue = "reject", requeue
	return nil
}
func (a *fakeAck) Attempts() int { return a.attempts }

func body(t *testing.T, eventType string) []byte {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", ChangeEvent{Count: 3})
	require.NoError(t, err)
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestConsumer_Dispatch(t *testing.T) {
	failing := func(context.Context, *Event) error { return errors.New("boom") }

	tests := []struct {
		name     string
		setup    func(c *Consumer)
		body     []byte
		attempts int
		settled  string
		requeue  bool
	}{
		{
			name:    "malformed body is rejected",
			setup:   func(*Consumer) {},
			body:    []byte("{"),
			settled: "reject",
		},
		{
			name:    "unhandled type is acked",
			setup:   func(*Consumer) {},
			body:    body(t, EventTaskCreated),
			settled: "ack",
		},
		{
			name: "handler success acks",
			setup: func(c *Consumer) {
				c.RegisterHandler(EventTaskCreated, func(context.Context, *Event) error { return nil })
			},
			body:    body(t, EventTaskCreated),
			settled: "ack",
		},
		{
			name:    "failure is requeued",
			setup:   func(c *Consumer) { c.RegisterFallback(failing) },
			body:    body(t, EventTaskCreated),
			settled: "nack",
			requeue: true,
		},
		{
			name:     "failure past the retry budget is dead-lettered",
			setup:    func(c *Consumer) { c.RegisterFallback(failing) },
			body:     body(t, EventTaskCreated),
			attempts: MaxDeliveryAttempts,
			settled:  "reject",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConsumer(nil, "test", logger.Nop())
			tt.setup(c)
			ack := &fakeAck{attempts: tt.attempts}

			c.Dispatch(context.Background(), tt.body, ack)

			assert.Equal(t, tt.settled, ack.settled)
			assert.Equal(t, tt.requeue, ack.requeue)
		})
	}
}

func TestConsumer_DispatchPrefersTypedHandler(t *testing.T) {
	c := newConsumer(nil, "test", logger.Nop())
	var got []string
	c.RegisterHandler(EventTaskDeleted, func(ctx context.Context, e *Event) error {
		got = append(got, "typed:"+CorrelationID(ctx))
		var change ChangeEvent
		require.NoError(t, e.UnmarshalData(&change))
		assert.Equal(t, 3, change.Count)
		return nil
	})
	c.RegisterFallback(func(context.Context, *Event) error {
		got = append(got, "fallback")
		return nil
	})

	c.Dispatch(context.Background(), body(t, EventTaskDeleted), &fakeAck{})
	c.Dispatch(context.Background(), body(t, EventWorkerCreated), &fakeAck{})

	assert.Equal(t, []string{"typed:corr-1", "fallback"}, got)
}
