package envelope

import (
	"encoding/base64"
	"fmt"
)

// Encode кодирует байты в стандартный base64 с padding.
func Encode(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}

// EncodeString кодирует строку в base64.
func EncodeString(s string) string {
	return Encode([]byte(s))
}

// Decode декодирует base64-строку.
//
// Ошибка декодирования — нарушение протокола на стороне отправителя,
// оборачивается в ErrDecode.
func Decode(data string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return b, nil
}

// DecodeString декодирует base64-строку в строку.
func DecodeString(data string) (string, error) {
	b, err := Decode(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
