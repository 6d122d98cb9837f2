package repo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/stepflow/internal/envelope"
)

// Транспорт, через который пришёл вызов.
const (
	TransportHTTP  = "http"
	TransportAMQP  = "amqp"
	TransportCLI   = "cli"
	TransportChain = "chain"
)

// Invocation — запись журнала вызовов шага.
//
// RequestData и ResponseData хранятся в base64, как в конверте.
type Invocation struct {
	ID           uuid.UUID `json:"id"`
	GUID         string    `json:"guid"`
	Step         string    `json:"step"`
	Result       string    `json:"result"`
	StatusCode   int       `json:"status_code"`
	RequestData  string    `json:"request_data,omitempty"`
	ResponseData string    `json:"response_data,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Transport    string    `json:"transport"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewInvocation создаёт запись по паре конвертов.
func NewInvocation(step, transport string, req envelope.Request, resp envelope.Response, d time.Duration) *Invocation {
	if transport == "" {
		transport = TransportHTTP
	}
	return &Invocation{
		ID:           uuid.New(),
		GUID:         req.GUID,
		Step:         step,
		Result:       string(resp.Result),
		StatusCode:   resp.StatusCode,
		RequestData:  req.Data,
		ResponseData: resp.Data,
		DurationMs:   d.Milliseconds(),
		Transport:    transport,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate проверяет обязательные поля записи.
func (inv *Invocation) Validate() error {
	if inv == nil {
		return fmt.Errorf("%w: nil", ErrInvalidInvocation)
	}
	if inv.Step == "" {
		return fmt.Errorf("%w: step is required", ErrInvalidInvocation)
	}
	if !envelope.Result(inv.Result).IsValid() {
		return fmt.Errorf("%w: unknown result %q", ErrInvalidInvocation, inv.Result)
	}
	return nil
}
