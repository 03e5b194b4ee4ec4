package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPublisherClosed = errors.New("amqp publisher closed")

// amqpChannel is the part of *amqp.Channel the notifier uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection and a channel with the exchange declared.
type dialFunc func() (amqpChannel, io.Closer, error)

// AMQPNotifier publishes account events to a durable topic exchange, one
// routing key per event type. A closed channel or connection is redialed on
// the next Publish.
type AMQPNotifier struct {
	exchange string
	dial     dialFunc

	mu     sync.Mutex
	conn   io.Closer
	ch     amqpChannel
	closed bool
}

// NewAMQPNotifier dials once up front so a bad URL fails at boot.
func NewAMQPNotifier(url, exchange string) (*AMQPNotifier, error) {
	return newAMQPNotifier(exchange, func() (amqpChannel, io.Closer, error) {
		return dialExchange(url, exchange)
	})
}

func newAMQPNotifier(exchange string, dial dialFunc) (*AMQPNotifier, error) {
	n := &AMQPNotifier{exchange: exchange, dial: dial}
	if err := n.connectLocked(); err != nil {
		return nil, err
	}
	return n, nil
}

func dialExchange(url, exchange string) (amqpChannel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp declare exchange %q: %w", exchange, err)
	}

	return ch, conn, nil
}

// connectLocked replaces the current channel and connection. n.mu must be
// held, or n not yet shared.
func (n *AMQPNotifier) connectLocked() error {
	n.dropLocked()

	ch, conn, err := n.dial()
	if err != nil {
		return err
	}
	n.ch, n.conn = ch, conn
	return nil
}

func (n *AMQPNotifier) dropLocked() error {
	var errs []error
	if n.ch != nil && !n.ch.IsClosed() {
		errs = append(errs, n.ch.Close())
	}
	if n.conn != nil {
		errs = append(errs, n.conn.Close())
	}
	n.ch, n.conn = nil, nil
	return errors.Join(errs...)
}

func (n *AMQPNotifier) Publish(ctx context.Context, ev AccountEvent) error {
	body, err := EncodeEvent(ev)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Type:         string(ev.Type),
		Body:         body,
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return ErrPublisherClosed
	}

	if n.ch == nil || n.ch.IsClosed() {
		if err := n.connectLocked(); err != nil {
			return fmt.Errorf("amqp reconnect: %w", err)
		}
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, string(ev.Type), false, false, msg)
	if err == nil || !(errors.Is(err, amqp.ErrClosed) || n.ch.IsClosed()) {
		return err
	}

	// the channel died under us; one fresh attempt
	if err := n.connectLocked(); err != nil {
		return fmt.Errorf("amqp reconnect: %w", err)
	}
	return n.ch.PublishWithContext(ctx, n.exchange, string(ev.Type), false, false, msg)
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	return n.dropLocked()
}
