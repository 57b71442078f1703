package events

import (
	"context"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing key event (topic exchange).
const (
	KhatmaCreated      = "khatma.created"
	KhatmaCompleted    = "khatma.completed"
	KhatmaReopened     = "khatma.reopened"
	KhatmaDeleted      = "khatma.deleted"
	KhatmaJuzClaimed   = "khatma.juz.claimed"
	KhatmaJuzReleased  = "khatma.juz.released"
	KhatmaJuzCompleted = "khatma.juz.completed"

	ActivityLogged = "activity.logged"
)

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
	Close() error
}

/* =========================
   RabbitMQ (topic exchange)
========================= */

type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

/* =========================
   Nop
========================= */

type NopPublisher struct{}

func (NopPublisher) PublishJSON(context.Context, string, any) error { return nil }
func (NopPublisher) Close() error                                  { return nil }

// NewPublisher: RabbitMQ kalau url diisi, selain itu nop.
func NewPublisher(url, exchange string) Publisher {
	if url == "" {
		log.Println("[EVENTS] RABBIT_URL kosong, event khatma tidak dipublish")
		return NopPublisher{}
	}
	p, err := NewAMQPPublisher(url, exchange)
	if err != nil {
		log.Printf("[EVENTS] gagal konek RabbitMQ, fallback nop: %v", err)
		return NopPublisher{}
	}
	log.Printf("[EVENTS] publishing ke exchange %q", exchange)
	return p
}
