/*
DESCRIPTION
  amqp.go provides Broker, a Publisher and consumer of AMQP queues.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/utils/logging"
)

// Broker is a connection to an AMQP message broker. Messages are published
// to queues through the default exchange.
type Broker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  logging.Logger
}

// Dial connects to the broker at uri and declares queues as durable queues.
// Any error has code exit.BrokerError.
func Dial(uri string, queues []string, log logging.Logger) (*Broker, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, exit.Wrap(exit.BrokerError, err, "could not dial message broker")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, exit.Wrap(exit.BrokerError, err, "could not open broker channel")
	}

	for _, q := range queues {
		if q == "" {
			continue
		}
		_, err = ch.QueueDeclare(q, true, false, false, false, nil)
		if err != nil {
			conn.Close()
			return nil, exit.Wrap(exit.BrokerError, err, "could not declare queue "+q)
		}
	}
	log.Info("connected to message broker", "queues", fmt.Sprint(queues))
	return &Broker{conn: conn, ch: ch, log: log}, nil
}

// Publish implements Publisher.
func (b *Broker) Publish(ctx context.Context, queue string, msg Message) error {
	return b.ch.PublishWithContext(ctx,
		"",
		queue,
		false, false,
		amqp.Publishing{
			ContentType:  msg.ContentType,
			Type:         msg.Type,
			MessageId:    uuid.NewString(),
			Body:         msg.Body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
		},
	)
}

// Consume returns the bodies of the messages delivered from queue, which are
// acknowledged on receipt. The channel is closed when ctx is done or the
// connection fails.
func (b *Broker) Consume(ctx context.Context, queue string) (<-chan []byte, error) {
	deliveries, err := b.ch.ConsumeWithContext(
		ctx,
		queue,
		"",
		true, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, exit.Wrap(exit.BrokerError, err, "could not consume queue "+queue)
	}

	bodies := make(chan []byte)
	go func() {
		defer close(bodies)
		for d := range deliveries {
			select {
			case bodies <- d.Body:
			case <-ctx.Done():
				return
			}
		}
		b.log.Debug("delivery channel closed", "queue", queue)
	}()
	return bodies, nil
}

// Close closes the broker connection.
func (b *Broker) Close() error {
	b.ch.Close()
	return b.conn.Close()
}
