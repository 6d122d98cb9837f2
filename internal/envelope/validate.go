package envelope

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// Validate проверяет, что Response соблюдает контракт конверта.
//
// Проверяет:
//   - Result — одно из Success, Failure, Exception
//   - Success ⇒ StatusCode в диапазоне 2xx
//   - Exception ⇒ StatusCode >= 500
//   - Failure ⇒ StatusCode не 2xx
//   - ContentType не пустой
//   - Data — валидный base64
//
// Нарушение — баг реализации шага, а не runtime-ситуация.
func Validate(resp Response) error {
	if !resp.Result.IsValid() {
		return fmt.Errorf("%w: unknown result %q", ErrProtocol, resp.Result)
	}

	switch resp.Result {
	case ResultSuccess:
		if !isSuccessStatus(resp.StatusCode) {
			return fmt.Errorf("%w: Success with status %d", ErrProtocol, resp.StatusCode)
		}
	case ResultException:
		if resp.StatusCode < http.StatusInternalServerError {
			return fmt.Errorf("%w: Exception with status %d", ErrProtocol, resp.StatusCode)
		}
	case ResultFailure:
		if resp.StatusCode <= 0 || isSuccessStatus(resp.StatusCode) {
			return fmt.Errorf("%w: Failure with status %d", ErrProtocol, resp.StatusCode)
		}
	}

	if resp.ContentType == "" {
		return fmt.Errorf("%w: empty content type", ErrProtocol)
	}

	if _, err := base64.StdEncoding.DecodeString(resp.Data); err != nil {
		return fmt.Errorf("%w: data is not base64: %v", ErrProtocol, err)
	}

	return nil
}

// ValidateRequest проверяет Data запроса.
// Пустой Data допустим — шаг может не потреблять вход.
func ValidateRequest(req Request) error {
	if req.Data == "" {
		return nil
	}
	if _, err := Decode(req.Data); err != nil {
		return err
	}
	return nil
}
