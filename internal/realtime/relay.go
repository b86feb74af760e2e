package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the fanout exchange shared by all server instances.
const DefaultExchange = "kakeibo.expenses"

// Relay forwards events between server instances through a fanout exchange.
// Each instance consumes from its own exclusive queue and ignores events it
// published itself.
type Relay struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	origin   string
}

// DialRelay connects to the broker and declares the exchange and this instance's queue.
func DialRelay(url, exchange string) (*Relay, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	r := &Relay{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		origin:   uuid.NewString(),
	}
	if err := r.setup(); err != nil {
		r.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return r, nil
}

func (r *Relay) setup() error {
	err := r.channel.ExchangeDeclare(
		r.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := r.channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	r.queue = q.Name

	if err := r.channel.QueueBind(r.queue, "", r.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Origin is the identifier stamped on events published by this instance.
func (r *Relay) Origin() string {
	return r.origin
}

// Publish sends ev to every other instance.
func (r *Relay) Publish(ctx context.Context, ev Event) error {
	ev.Origin = r.origin
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = r.channel.PublishWithContext(ctx,
		r.exchange, // exchange
		"",         // routing key (ignored by fanout)
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Unix(ev.At, 0),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// errOwnEvent marks a delivery this instance published itself.
var errOwnEvent = errors.New("event from own origin")

// decode parses a delivery body and filters out events from origin.
func decode(body []byte, origin string) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	if !ev.Valid() {
		return Event{}, fmt.Errorf("invalid %q event for group %q", ev.Type, ev.GroupID)
	}
	if ev.Origin != "" && ev.Origin == origin {
		return Event{}, errOwnEvent
	}
	return ev, nil
}

// Run consumes events from other instances and publishes them to local until
// ctx is cancelled or the broker closes the channel.
func (r *Relay) Run(ctx context.Context, local Publisher) error {
	msgs, err := r.channel.Consume(
		r.queue, // queue
		"",      // consumer
		false,   // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Relay consuming expense events", "exchange", r.exchange, "queue", r.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("relay channel closed")
			}

			ev, err := decode(delivery.Body, r.origin)
			if errors.Is(err, errOwnEvent) {
				delivery.Ack(false)
				continue
			}
			if err != nil {
				slog.ErrorContext(ctx, "Rejecting relay message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := local.Publish(ctx, ev); err != nil {
				slog.WarnContext(ctx, "Failed to forward relay event", "error", err, "group_id", ev.GroupID)
			}
			delivery.Ack(false)
		}
	}
}

// Close closes the channel and connection.
func (r *Relay) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
