package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tempfiles-api/config"
)

const (
	bufferSize     = 128
	publishTimeout = 5 * time.Second
	connectionName = "tempfiles-api"
)

// Routing keys of published events.
const (
	ActionUserRegistered    = "user.registered"
	ActionTokenIssued       = "token.issued"
	ActionTokenRevoked      = "token.revoked"
	ActionResourceCreated   = "resource.created"
	ActionResourceReclaimed = "resource.reclaimed"
)

// Actions lists every routing key the audit queue is bound to.
var Actions = []string{
	ActionUserRegistered,
	ActionTokenIssued,
	ActionTokenRevoked,
	ActionResourceCreated,
	ActionResourceReclaimed,
}

type (
	InputCh  = chan Event
	RabbitMQ struct {
		topo  Topology
		log   *zap.Logger
		conn  *amqp091.Connection
		pubCh *amqp091.Channel
		in    InputCh
	}
	Event struct {
		Id      uuid.UUID `json:"event_id"`
		TS      time.Time `json:"time_stamp"`
		Action  string    `json:"event_action"`
		Subject string    `json:"subject"`
		Payload any       `json:"payload,omitempty"`
	}
)

func NewEvent(action, subject string, payload any) Event {
	return Event{
		Id:      uuid.New(),
		TS:      time.Now().UTC(),
		Action:  action,
		Subject: subject,
		Payload: payload,
	}
}

func New(cfg config.MQ, logger *zap.Logger) *RabbitMQ {
	return &RabbitMQ{
		topo: TopologyFrom(cfg),
		log:  logger,
		in:   make(chan Event, bufferSize),
	}
}

// Connect dials the broker and opens the publishing channel.
func (r *RabbitMQ) Connect(ctx context.Context, dsn string) error {
	conn, err := Dial(ctx, dsn, connectionName)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	r.conn, r.pubCh = conn, ch

	r.log.Info("rabbitmq publisher connected", zap.String("exchange", r.topo.Exchange))

	return nil
}

// Init declares the audit topology so events published before the consumer
// attaches are still queued.
func (r *RabbitMQ) Init() error {
	if err := r.topo.Declare(r.pubCh); err != nil {
		_ = r.pubCh.Close()
		return err
	}
	return nil
}

// Emit queues e for publishing. A full buffer drops the event instead of
// stalling the caller.
func (r *RabbitMQ) Emit(e Event) {
	select {
	case r.in <- e:
	default:
		r.log.Warn("mq buffer full, event dropped",
			zap.String("action", e.Action),
			zap.String("subject", e.Subject),
		)
	}
}

func (r *RabbitMQ) PublisherWorker(ctx context.Context) {
	r.log.Info("starting publisher worker")

	defer func() {
		r.log.Info("publisher worker gracefully stopped")
	}()

	for {
		select {
		case e := <-r.in:
			if err := r.publish(ctx, e); err != nil {
				r.log.Error("mq publish error", zap.String("action", e.Action), zap.Error(err))
			}
		case <-ctx.Done():
			_ = r.pubCh.Close()
			return
		}
	}
}

func (r *RabbitMQ) publish(ctx context.Context, e Event) error {
	msg, err := e.publishing()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.pubCh.PublishWithContext(ctx, r.topo.Exchange, e.Action, false, false, msg)
}

// publishing wraps e as a persistent JSON message routed by its action.
func (e Event) publishing() (amqp091.Publishing, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("encode %s event: %w", e.Action, err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.Id.String(),
		Timestamp:    e.TS,
		Type:         e.Action,
		Body:         b,
	}, nil
}

func (r *RabbitMQ) GetConn() *amqp091.Connection { return r.conn }

// Nop drops every event. It stands in for RabbitMQ when no broker is configured.
type Nop struct{}

func (Nop) Emit(Event) {}

func (Nop) PublisherWorker(ctx context.Context) { <-ctx.Done() }

func (Nop) GetConn() *amqp091.Connection { return nil }
