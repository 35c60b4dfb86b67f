package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	RoutingInterviewCompleted = "interview.completed"
	RoutingPaymentCompleted   = "payment.completed"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

type InterviewCompleted struct {
	SessionID    string    `json:"session_id"`
	Topic        string    `json:"topic"`
	Questions    int       `json:"questions"`
	Scores       []int     `json:"scores"`
	AverageScore float64   `json:"average_score"`
	CompletedAt  time.Time `json:"completed_at"`
}

type PaymentCompleted struct {
	CheckoutSessionID string `json:"checkout_session_id"`
	UserID            string `json:"user_id"`
	Credits           int    `json:"credits"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	CouponCode        string `json:"coupon_code,omitempty"`
	ReferredBy        string `json:"referred_by,omitempty"`
}

// EventPublisher publishes JSON events to a topic exchange.
// With an empty URI it is disabled and every Publish is a logged no-op.
type EventPublisher struct {
	mu           sync.Mutex
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	enabled      bool
}

func NewEventPublisher(rabbitURI, exchangeName string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Warn().Msg("RABBITMQ_URI is empty, event publishing is disabled")
		return &EventPublisher{enabled: false}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName, err)
	}

	log.Info().Str("exchange", exchangeName).Msg("Event publisher connected")
	return &EventPublisher{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		enabled:      true,
	}, nil
}

func (p *EventPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if !p.enabled {
		log.Debug().Str("routing_key", routingKey).Msg("Event publishing disabled, skipping event")
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", routingKey, err)
	}

	log.Info().Str("routing_key", routingKey).Msg("Published event")
	return nil
}

func (p *EventPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close RabbitMQ channel")
	}
	return p.conn.Close()
}
