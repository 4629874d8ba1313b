package service

import (
	"context"

	"github.com/iliyamo/trip-reservation/internal/queue"
)

// QueueNotifier publishes confirmations to the message broker, where
// the notification consumer picks them up for delivery.
type QueueNotifier struct{}

// ReservationConfirmed implements Notifier over RabbitMQ.
func (QueueNotifier) ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error {
	return queue.PublishReservationConfirmed(ctx, ev)
}
