package mq

import "errors"

// Ошибки транспорта.
var (
	// ErrNoChannel — канал недоступен (соединение восстанавливается).
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrConnectionClosed — соединение закрыто вызовом Close.
	ErrConnectionClosed = errors.New("amqp connection closed")

	// ErrReject — сообщение не может быть обработано никогда.
	// Обработчик, вернувший ошибку с ErrReject, отправляет сообщение в DLQ
	// без повторной доставки.
	ErrReject = errors.New("message rejected")
)
