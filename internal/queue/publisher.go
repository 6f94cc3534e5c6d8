package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/fixer-backend/internal/metrics"
)

// Publisher sends events to RabbitMQ.  The connection is dialled lazily
// and re-dialled after a failure; callers treat errors as non-fatal.
type Publisher struct {
	url      string
	exchange string
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for url.  Nothing is dialled until the
// first Publish.
func NewPublisher(url, exchange string, log *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{url: url, exchange: exchange, log: log, metrics: m}
}

// Publish marshals ev and delivers it as a persistent message to its queue.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	err := p.publish(ctx, ev)
	p.metrics.EventPublished(ev.Queue(), err)
	if err != nil {
		p.log.Warn("event publish failed", "queue", ev.Queue(), "error", err)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(ev.Queue(), true, false, false, false, nil); err != nil {
		p.reset()
		return fmt.Errorf("queue declare: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         ev.Queue(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, ev.Queue(), false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns the open channel, dialling if needed.  Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// Nop discards events.  It is used when RABBITMQ_URL is unset.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
