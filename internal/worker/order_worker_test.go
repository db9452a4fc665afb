package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

type fakeAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(uint64, bool) error { a.acked++; return nil }
func (a *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}
func (a *fakeAck) Reject(uint64, bool) error { return nil }

type failingDeduper struct{}

func (failingDeduper) Seen(context.Context, string) (bool, error) { return false, errors.New("redis down") }
func (failingDeduper) Mark(context.Context, string) error         { return nil }

func newTestWorker(dedupe Deduper) (*OrderWorker, repository.ActivityRepository) {
	activity := repository.NewActivityRepository(repository.NewStore())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderWorker(nil, activity, dedupe, log), activity
}

func sampleEvent() model.OrderMessage {
	return model.OrderMessage{
		ID:         "evt-1",
		Kind:       model.OrderEventCreated,
		OrderID:    "order-1",
		UserID:     "user-1",
		Status:     model.OrderStatusPending,
		Total:      "500.00",
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestOrderWorker_Handle_Dedupes(t *testing.T) {
	w, activity := newTestWorker(NewDeduper(nil))
	ctx := context.Background()

	recorded, err := w.Handle(ctx, sampleEvent())
	require.NoError(t, err)
	assert.True(t, recorded)

	recorded, err = w.Handle(ctx, sampleEvent())
	require.NoError(t, err)
	assert.False(t, recorded)

	entries, err := activity.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "order-1", entries[0].OrderID)
	assert.Equal(t, "500.00", entries[0].Total.StringFixed(2))
}

func TestOrderWorker_Handle_Invalid(t *testing.T) {
	w, _ := newTestWorker(NewDeduper(nil))

	_, err := w.Handle(context.Background(), model.OrderMessage{})
	assert.Error(t, err)

	bad := sampleEvent()
	bad.Total = "lots"
	_, err = w.Handle(context.Background(), bad)
	assert.Error(t, err)
	assert.False(t, isTransient(err))
}

func TestOrderWorker_ProcessMessage(t *testing.T) {
	w, activity := newTestWorker(NewDeduper(nil))
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	ack := &fakeAck{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})
	assert.Equal(t, 2, ack.acked)

	entries, _ := activity.List(context.Background(), 0)
	assert.Len(t, entries, 1)
}

func TestOrderWorker_ProcessMessage_BadBodyGoesToDLQ(t *testing.T) {
	w, _ := newTestWorker(NewDeduper(nil))
	ack := &fakeAck{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestOrderWorker_ProcessMessage_DedupeOutageRequeues(t *testing.T) {
	w, _ := newTestWorker(failingDeduper{})
	body, _ := json.Marshal(sampleEvent())
	ack := &fakeAck{}
	w.processMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body})
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestDirectPublisher(t *testing.T) {
	w, activity := newTestWorker(NewDeduper(nil))
	pub := NewDirectPublisher(w)

	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	entries, _ := activity.List(context.Background(), 0)
	assert.Len(t, entries, 1)
}

func TestMemoryDeduper_Expires(t *testing.T) {
	now := time.Now()
	d := newMemoryDeduper(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, d.Mark(ctx, "k"))
	seen, _ := d.Seen(ctx, "k")
	assert.True(t, seen)

	now = now.Add(idempotencyTTL + time.Second)
	seen, _ = d.Seen(ctx, "k")
	assert.False(t, seen)
}

func TestOrderWorker_Start_NoChannel(t *testing.T) {
	w, _ := newTestWorker(NewDeduper(nil))
	assert.Error(t, w.Start(context.Background()))
}

func TestOrderWorker_StopTwice(t *testing.T) {
	w, _ := newTestWorker(NewDeduper(nil))
	assert.NotPanics(t, func() {
		w.Stop()
		w.Stop()
	})
}

func TestMemoryDeduper_MarkSweepsExpired(t *testing.T) {
	now := time.Now()
	d := newMemoryDeduper(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, d.Mark(ctx, "a"))
	now = now.Add(idempotencyTTL + time.Second)
	require.NoError(t, d.Mark(ctx, "b"))

	assert.Len(t, d.keys, 1)
	seen, _ := d.Seen(ctx, "b")
	assert.True(t, seen)
}
