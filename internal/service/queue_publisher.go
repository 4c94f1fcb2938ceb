package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/user-accounts/internal/queue"
)

// DefaultPublishTimeout bounds one publish, handshake included.
const DefaultPublishTimeout = 2 * time.Second

// AMQPPublisher publishes auth events to RabbitMQ. Each publish opens its own
// connection, so a broker outage never leaves stale state behind. Errors are
// logged and returned; callers decide whether to ignore them.
type AMQPPublisher struct {
	URL     string
	Timeout time.Duration // per publish; zero means DefaultPublishTimeout
	Log     *slog.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url with the
// default timeout. A nil logger falls back to slog.Default.
func NewAMQPPublisher(url string, log *slog.Logger) *AMQPPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &AMQPPublisher{URL: url, Timeout: DefaultPublishTimeout, Log: log}
}

// Publish sends ev to the auth.events queue as a persistent JSON message.
// It gives up when ctx ends or the publish timeout elapses, whichever is first.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := p.dial(ctx)
	if err != nil {
		p.Log.Error("rabbitmq: dial failed", "err", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	// channel open and queue declare wait on the broker without a context;
	// closing the connection releases them
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Error("rabbitmq: channel open failed", "err", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.AuthQueueName, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		p.Log.Error("rabbitmq: queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		queue.AuthQueueName, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		p.Log.Error("rabbitmq: publish failed", "type", ev.Type, "err", err)
		return err
	}
	return nil
}

// dial connects with a socket deadline taken from ctx so a silent broker
// cannot hold the handshake open. The client clears the deadline once the
// connection is open.
func (p *AMQPPublisher) dial(ctx context.Context) (*amqp.Connection, error) {
	deadline, _ := ctx.Deadline()
	return amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	})
}

// NopPublisher drops every event. Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

// Publish discards ev.
func (NopPublisher) Publish(context.Context, queue.AuthEvent) error { return nil }
