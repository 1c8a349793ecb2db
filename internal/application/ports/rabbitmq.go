package ports

import (
	"context"

	"github.com/rabbitmq/amqp091-go"

	"tempfiles-api/internal/infrastructure/mq"
)

// EventPublisher accepts domain events without blocking.
type EventPublisher interface {
	Emit(e mq.Event)
}

type RabbitMQ interface {
	EventPublisher
	PublisherWorker(ctx context.Context)
	GetConn() *amqp091.Connection
}
