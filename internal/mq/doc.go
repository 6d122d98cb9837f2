// Package mq предоставляет AMQP транспорт для вызова шагов через RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений с ack/nack
//
// Типы сообщений:
//   - step.invoke    — запрос на вызов шага (конверт Request)
//   - step.completed — результат вызова (конверт Response)
//
// Exchanges:
//   - stepflow.steps — вызовы шагов
//   - stepflow.dlq   — dead letter queue
package mq
