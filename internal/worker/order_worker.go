package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

// OrderWorker turns order events into admin activity entries, skipping
// events it has already recorded.
type OrderWorker struct {
	channel      *amqp.Channel
	activityRepo repository.ActivityRepository
	dedupe       Deduper
	log          *slog.Logger
	done         chan struct{}
	stopOnce     sync.Once
}

func NewOrderWorker(
	ch *amqp.Channel,
	activityRepo repository.ActivityRepository,
	dedupe Deduper,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:      ch,
		activityRepo: activityRepo,
		dedupe:       dedupe,
		log:          log,
		done:         make(chan struct{}),
	}
}

// Start consumes from RabbitMQ until Stop is called or ctx ends.
func (w *OrderWorker) Start(ctx context.Context) error {
	if w.channel == nil {
		return errors.New("start consuming: no channel")
	}
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started")
	return nil
}

// Stop ends consumption. Calling it more than once is safe.
func (w *OrderWorker) Stop() { w.stopOnce.Do(func() { close(w.done) }) }

func (w *OrderWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.OrderMessage
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal order event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	recorded, err := w.Handle(ctx, event)
	if err != nil {
		w.log.Error("handle order event", "error", err, "order_id", event.OrderID)
		// a failed dedupe lookup is transient; anything else goes to the DLQ
		_ = msg.Nack(false, isTransient(err))
		return
	}
	if !recorded {
		w.log.Info("order event already handled, skipping", "order_id", event.OrderID, "event_id", event.ID)
	}
	_ = msg.Ack(false)
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Handle records one event. It reports false when the event was a duplicate.
func (w *OrderWorker) Handle(ctx context.Context, event model.OrderMessage) (bool, error) {
	if event.ID == "" || event.OrderID == "" {
		return false, errors.New("order event missing id")
	}

	log := w.log.With("order_id", event.OrderID, "user_id", event.UserID)

	key := "order_event_processed:" + event.ID
	seen, err := w.dedupe.Seen(ctx, key)
	if err != nil {
		return false, &transientError{fmt.Errorf("check idempotency key: %w", err)}
	}
	if seen {
		return false, nil
	}

	total, err := decimal.NewFromString(event.Total)
	if err != nil {
		return false, fmt.Errorf("parse total %q: %w", event.Total, err)
	}
	entry := model.Activity{
		Kind:       event.Kind,
		OrderID:    event.OrderID,
		UserID:     event.UserID,
		Status:     event.Status,
		Total:      total,
		OccurredAt: event.OccurredAt,
		RecordedAt: time.Now().UTC(),
	}
	if err := w.activityRepo.Append(ctx, entry); err != nil {
		return false, fmt.Errorf("append activity: %w", err)
	}

	if err := w.dedupe.Mark(ctx, key); err != nil {
		log.Error("set idempotency key", "error", err)
	}
	log.Info("order event recorded", "kind", event.Kind, "status", event.Status)
	return true, nil
}
