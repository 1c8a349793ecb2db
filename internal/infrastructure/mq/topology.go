package mq

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"tempfiles-api/config"
)

const dialTimeout = 10 * time.Second

// Declarer is the part of *amqp091.Channel that sets up the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

// Topology is the durable exchange and audit queue shared by the publisher
// and the consumer. Both declare it, so either may start first.
type Topology struct {
	Exchange    string
	Kind        string
	Queue       string
	RoutingKeys []string
}

func TopologyFrom(cfg config.MQ) Topology {
	return Topology{
		Exchange:    cfg.Exchange,
		Kind:        cfg.ExchangeType,
		Queue:       cfg.QueueName,
		RoutingKeys: Actions,
	}
}

func (t Topology) Declare(ch Declarer) error {
	if t.Exchange == "" || t.Queue == "" {
		return errors.New("exchange and queue names are required")
	}
	kind := t.Kind
	if kind == "" {
		kind = amqp091.ExchangeTopic
	}

	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", t.Queue, err)
	}
	for _, rk := range t.RoutingKeys {
		if err := ch.QueueBind(t.Queue, rk, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}
	return nil
}

// Dial opens a heartbeating connection labelled with name in the broker UI.
// ctx bounds the TCP dial only.
func Dial(ctx context.Context, dsn, name string) (*amqp091.Connection, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := amqp091.DialConfig(dsn, amqp091.Config{
		Heartbeat:  dialTimeout,
		Locale:     "en_US",
		Properties: amqp091.Table{"connection_name": name},
		Dial: func(network, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	return conn, nil
}
