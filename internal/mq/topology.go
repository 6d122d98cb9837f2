package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeSteps Exchange = "stepflow.steps"
	ExchangeDLQ   Exchange = "stepflow.dlq"

	// ExchangeDefault — безымянный exchange, маршрутизирует по имени очереди.
	ExchangeDefault Exchange = ""
)

// Queues — имена очередей.
const (
	QueueStepsInvoke    Queue = "steps.invoke"
	QueueStepsCompleted Queue = "steps.completed"
	QueueDLQSteps       Queue = "dlq.steps"
)

// Routing keys.
const (
	RoutingKeyInvoke    RoutingKey = "invoke"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQSteps  RoutingKey = "steps"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

func topologyExchanges() []exchangeDecl {
	return []exchangeDecl{
		{ExchangeSteps, amqp.ExchangeDirect},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}
}

func topologyQueues() []queueDecl {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSteps),
	}

	return []queueDecl{
		// steps.invoke — отклонённые вызовы уходят в DLQ
		{QueueStepsInvoke, dlqArgs},

		// steps.completed — без DLQ (события завершения)
		{QueueStepsCompleted, nil},

		{QueueDLQSteps, nil},
	}
}

func topologyBindings() []bindingDecl {
	return []bindingDecl{
		{QueueStepsInvoke, RoutingKeyInvoke, ExchangeSteps},
		{QueueStepsCompleted, RoutingKeyCompleted, ExchangeSteps},
		{QueueDLQSteps, RoutingKeyDLQSteps, ExchangeDLQ},
	}
}

// declareTopology объявляет exchanges, queues и bindings на канале ch.
// Операция идемпотентна.
func declareTopology(ch *amqp.Channel) error {
	for _, ex := range topologyExchanges() {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	for _, q := range topologyQueues() {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	for _, b := range topologyBindings() {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  stepflow RabbitMQ topology:

    stepflow.steps (direct)
    ├── steps.invoke [routing: invoke]
    │       Consumer: step worker
    │       DLQ: dlq.steps
    └── steps.completed [routing: completed]
            Consumer: caller (or reply_to queue)

    stepflow.dlq (direct)
    └── dlq.steps [routing: steps]
            Manual processing
  `
}
