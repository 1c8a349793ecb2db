package rmqconsumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tempfiles-api/config"
	"tempfiles-api/internal/infrastructure/mq"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

var auditNames = map[string]string{
	mq.ActionUserRegistered:    "UserRegistered",
	mq.ActionTokenIssued:       "TokenIssued",
	mq.ActionTokenRevoked:      "TokenRevoked",
	mq.ActionResourceCreated:   "ResourceCreated",
	mq.ActionResourceReclaimed: "ResourceReclaimed",
}

// Consumer writes every event on the audit queue to the audit log.
type Consumer struct {
	topo       mq.Topology
	log        *zap.Logger
	conn       *amqp091.Connection
	chConsume  *amqp091.Channel
	chDelivery <-chan amqp091.Delivery
}

// New reuses conn when it is open. Pass nil to have Connect dial its own.
func New(cfg config.MQ, logger *zap.Logger, conn *amqp091.Connection) *Consumer {
	return &Consumer{
		topo: mq.TopologyFrom(cfg),
		log:  logger.Named("audit"),
		conn: conn,
	}
}

func (c *Consumer) Connect(ctx context.Context, dsn string) error {
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := mq.Dial(ctx, dsn, "tempfiles-api-audit")
		if err != nil {
			return err
		}
		c.conn = conn
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.chConsume = ch

	c.log.Info("audit consumer connected", zap.String("queue", c.topo.Queue))

	return nil
}

// Init declares the topology and starts an auto-acked subscription on the
// audit queue.
func (c *Consumer) Init() error {
	if err := c.topo.Declare(c.chConsume); err != nil {
		return err
	}
	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	deliveries, err := c.chConsume.Consume(c.topo.Queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topo.Queue, err)
	}
	c.chDelivery = deliveries

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				<-ctx.Done()
				return
			}
			if err := c.delivery(msg); err != nil {
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			_ = c.chConsume.Close()
			return
		}
	}
}

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	var e mq.Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode %s event: %w", msg.RoutingKey, err)
	}

	name, ok := auditNames[msg.RoutingKey]
	if !ok {
		c.log.Warn("unknown event", zap.String("routing_key", msg.RoutingKey))
		return nil
	}

	c.log.Info(name,
		zap.Stringer("event_id", e.Id),
		zap.Time("ts", e.TS),
		zap.String("subject", e.Subject),
		zap.Any("payload", e.Payload),
	)

	return nil
}
