package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/stepflow/internal/envelope"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeStepInvoke    MessageType = "step.invoke"
	MessageTypeStepCompleted MessageType = "step.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// StepInvokePayload — запрос на вызов шага.
//
// ReplyTo — очередь для ответа; пусто — ответ уходит в steps.completed.
type StepInvokePayload struct {
	Step    string           `json:"step"`
	Request envelope.Request `json:"request"`
	ReplyTo string           `json:"reply_to,omitempty"`
}

// StepCompletedPayload — результат вызова шага.
type StepCompletedPayload struct {
	Step       string            `json:"step"`
	GUID       string            `json:"guid"`
	Response   envelope.Response `json:"response"`
	DurationMs int64             `json:"duration_ms"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishStepInvoke публикует запрос на вызов шага.
// Потребитель: step worker.
func (p *Publisher) PublishStepInvoke(ctx context.Context, payload StepInvokePayload) error {
	return p.Publish(ctx, ExchangeSteps, RoutingKeyInvoke, NewMessage(MessageTypeStepInvoke, payload))
}

// PublishStepCompleted публикует результат вызова.
//
// Если replyTo задан — напрямую в эту очередь через default exchange,
// иначе в steps.completed.
func (p *Publisher) PublishStepCompleted(ctx context.Context, replyTo string, payload StepCompletedPayload) error {
	msg := NewMessage(MessageTypeStepCompleted, payload)

	if replyTo != "" {
		return p.Publish(ctx, ExchangeDefault, RoutingKey(replyTo), msg)
	}
	return p.Publish(ctx, ExchangeSteps, RoutingKeyCompleted, msg)
}
