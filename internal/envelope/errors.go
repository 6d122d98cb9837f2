package envelope

import "errors"

// Ошибки конвертов.
var (
	// ErrDecode — Data не является валидным base64.
	ErrDecode = errors.New("invalid base64 data")

	// ErrMalformedEnvelope — JSON конверта не разбирается.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrProtocol — Response нарушает контракт конверта.
	ErrProtocol = errors.New("envelope protocol violation")
)
