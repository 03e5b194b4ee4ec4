package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	closed    bool
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.closed {
		return amqp.ErrClosed
	}
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConn struct{ closed bool }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeBroker struct {
	channels []*fakeChannel
	conns    []*fakeConn
	dialErr  error
}

func (b *fakeBroker) dial() (amqpChannel, io.Closer, error) {
	if b.dialErr != nil {
		return nil, nil, b.dialErr
	}
	ch, conn := &fakeChannel{}, &fakeConn{}
	b.channels = append(b.channels, ch)
	b.conns = append(b.conns, conn)
	return ch, conn, nil
}

func (b *fakeBroker) last() *fakeChannel { return b.channels[len(b.channels)-1] }

var registered = AccountEvent{Type: UserRegistered, UserID: "u1", Email: "a@b.com"}

func TestAMQPNotifier_PublishesWithRoutingKey(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	if err := n.Publish(context.Background(), registered); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ch := b.last()
	if len(ch.keys) != 1 || ch.keys[0] != "user.registered" {
		t.Fatalf("unexpected routing keys %v", ch.keys)
	}
	if ch.published[0].DeliveryMode != amqp.Persistent {
		t.Fatalf("expected persistent delivery")
	}
	if ev, err := DecodeEvent(ch.published[0].Body); err != nil || ev.UserID != "u1" {
		t.Fatalf("unexpected body: %+v %v", ev, err)
	}
}

func TestAMQPNotifier_RedialsAfterChannelClosed(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	// broker restart
	b.channels[0].closed = true

	if err := n.Publish(context.Background(), registered); err != nil {
		t.Fatalf("publish after broker restart: %v", err)
	}
	if len(b.channels) != 2 {
		t.Fatalf("expected a redial, got %d dials", len(b.channels))
	}
	if !b.conns[0].closed {
		t.Fatalf("old connection should be closed")
	}
	if len(b.last().published) != 1 {
		t.Fatalf("event should go out on the new channel")
	}
}

func TestAMQPNotifier_RetriesWhenChannelDiesMidPublish(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	// IsClosed still reports open; the publish itself hits ErrClosed
	b.channels[0].err = amqp.ErrClosed

	if err := n.Publish(context.Background(), registered); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(b.channels) != 2 || len(b.last().published) != 1 {
		t.Fatalf("expected one retry on a fresh channel, dials=%d", len(b.channels))
	}
}

func TestAMQPNotifier_DialFailureIsRetriedNextTime(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	b.channels[0].closed = true
	b.dialErr = errors.New("connection refused")

	if err := n.Publish(context.Background(), registered); err == nil {
		t.Fatalf("expected error while broker is down")
	}

	b.dialErr = nil
	if err := n.Publish(context.Background(), registered); err != nil {
		t.Fatalf("publish after broker came back: %v", err)
	}
	if len(b.last().published) != 1 {
		t.Fatalf("event should be published once the broker is back")
	}
}

func TestAMQPNotifier_OtherErrorsDoNotRedial(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	boom := errors.New("publish timeout")
	b.channels[0].err = boom

	if err := n.Publish(context.Background(), registered); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(b.channels) != 1 {
		t.Fatalf("unexpected redial")
	}
}

func TestAMQPNotifier_Close(t *testing.T) {
	b := &fakeBroker{}
	n, err := newAMQPNotifier("accounts", b.dial)
	if err != nil {
		t.Fatalf("newAMQPNotifier: %v", err)
	}

	if err := n.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !b.channels[0].closed || !b.conns[0].closed {
		t.Fatalf("channel and connection should be closed")
	}

	if err := n.Publish(context.Background(), registered); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected ErrPublisherClosed, got %v", err)
	}
	if len(b.channels) != 1 {
		t.Fatalf("closed notifier must not redial")
	}
}
