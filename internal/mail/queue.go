package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueSender publishes messages to a durable AMQP queue; cmd/mailer
// delivers them.
type QueueSender struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
}

func NewQueueSender(url string, queue string) (*QueueSender, error) {
	conn, ch, err := openQueue(url, queue)
	if err != nil {
		return nil, err
	}
	return &QueueSender{conn: conn, channel: ch, queue: queue}, nil
}

func openQueue(url string, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return conn, ch, nil
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode mail message: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish mail message: %w", err)
	}
	return nil
}

func (q *QueueSender) Close() {
	_ = q.channel.Close()
	_ = q.conn.Close()
}

type outcome int

const (
	outcomeAck outcome = iota
	outcomeRequeue
	outcomeDrop
)

// Consumer reads queued messages and hands them to a Sender.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	sender  Sender
}

func NewConsumer(url string, queue string, sender Sender) (*Consumer, error) {
	conn, ch, err := openQueue(url, queue)
	if err != nil {
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queue: queue, sender: sender}, nil
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", c.queue, err)
	}

	slog.Info("mail consumer started", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}

			switch c.handle(ctx, d.Body, d.Redelivered) {
			case outcomeAck:
				_ = d.Ack(false)
			case outcomeRequeue:
				_ = d.Nack(false, true)
			case outcomeDrop:
				_ = d.Nack(false, false)
			}
		}
	}
}

// handle requeues a failed delivery once; a second failure drops it so a
// broken mailbox cannot wedge the queue.
func (c *Consumer) handle(ctx context.Context, body []byte, redelivered bool) outcome {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil || strings.TrimSpace(msg.To) == "" {
		slog.Error("dropping malformed mail message", "error", err, "bytes", len(body))
		return outcomeDrop
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		if redelivered {
			slog.Error("mail redelivery failed; dropping", "to", msg.To, "error", err)
			return outcomeDrop
		}
		slog.Warn("mail delivery failed; requeueing", "to", msg.To, "error", err)
		return outcomeRequeue
	}

	slog.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
	return outcomeAck
}

func (c *Consumer) Close() {
	_ = c.channel.Close()
	_ = c.conn.Close()
}
