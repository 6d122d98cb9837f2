package envelope

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ContentTypeText — MIME-тип декодированного Data по умолчанию.
const ContentTypeText = "text/plain"

// Result — классификация исхода выполнения шага.
//
// Оркестратор использует Result как селектор ребра графа:
//
//	Success   → следующий шаг (Data передаётся дальше)
//	Exception → шаг-обработчик исключений
//	Failure   → цепочка завершается
type Result string

const (
	// ResultSuccess — шаг выполнен успешно, StatusCode в диапазоне 2xx.
	ResultSuccess Result = "Success"

	// ResultFailure — бизнес-отказ, StatusCode на усмотрение шага (не 2xx).
	ResultFailure Result = "Failure"

	// ResultException — внутренняя ошибка шага, StatusCode >= 500.
	ResultException Result = "Exception"
)

// IsValid возвращает true для известных значений Result.
func (r Result) IsValid() bool {
	switch r {
	case ResultSuccess, ResultFailure, ResultException:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление Result.
func (r Result) String() string {
	return string(r)
}

// Request — входной конверт шага.
//
// Создаётся вызывающей стороной (оркестратор, тестовый harness) на каждый вызов
// и не переживает его.
type Request struct {
	// GUID — correlation-идентификатор. Непрозрачен, на уникальность не проверяется.
	GUID string `json:"GUID"`

	// Data — полезная нагрузка в base64. Может отсутствовать у шагов-генераторов.
	Data string `json:"Data,omitempty"`
}

// Response — выходной конверт шага.
//
// Шаг возвращает ровно один Response на каждый Request.
type Response struct {
	// Result — классификация исхода.
	Result Result `json:"Result"`

	// StatusCode — HTTP-подобный код: 200 для Success, 500 для Exception.
	StatusCode int `json:"StatusCode"`

	// ContentType — MIME-тип декодированного Data.
	ContentType string `json:"ContentType"`

	// Data — результат шага или диагностическое сообщение, в base64.
	Data string `json:"Data"`
}

// NewRequest создаёт Request, кодируя payload в base64.
// nil payload даёт Request без Data.
func NewRequest(guid string, payload []byte) Request {
	req := Request{GUID: guid}
	if payload != nil {
		req.Data = Encode(payload)
	}
	return req
}

// NewRequestText создаёт Request с текстовым payload.
func NewRequestText(guid, text string) Request {
	return NewRequest(guid, []byte(text))
}

// HasData возвращает true, если в запросе есть Data.
func (r Request) HasData() bool {
	return r.Data != ""
}

// Payload декодирует Data запроса.
func (r Request) Payload() ([]byte, error) {
	return Decode(r.Data)
}

// Text декодирует Data запроса как строку.
func (r Request) Text() (string, error) {
	return DecodeString(r.Data)
}

// Success создаёт успешный Response (200).
func Success(payload []byte) Response {
	return Response{
		Result:      ResultSuccess,
		StatusCode:  http.StatusOK,
		ContentType: ContentTypeText,
		Data:        Encode(payload),
	}
}

// SuccessText создаёт успешный Response с текстовым payload.
func SuccessText(text string) Response {
	return Success([]byte(text))
}

// Failure создаёт Response с бизнес-отказом.
//
// Код выбирает шаг; 2xx и неположительные коды заменяются на 400,
// т.к. Failure не может нести успешный статус.
func Failure(status int, msg string) Response {
	if status <= 0 || isSuccessStatus(status) {
		status = http.StatusBadRequest
	}
	return Response{
		Result:      ResultFailure,
		StatusCode:  status,
		ContentType: ContentTypeText,
		Data:        EncodeString(msg),
	}
}

// Exception создаёт Response с внутренней ошибкой шага (500).
func Exception(msg string) Response {
	return ExceptionStatus(http.StatusInternalServerError, msg)
}

// ExceptionStatus создаёт Exception с указанным кодом.
// Коды ниже 500 заменяются на 500.
func ExceptionStatus(status int, msg string) Response {
	if status < http.StatusInternalServerError {
		status = http.StatusInternalServerError
	}
	return Response{
		Result:      ResultException,
		StatusCode:  status,
		ContentType: ContentTypeText,
		Data:        EncodeString(msg),
	}
}

// IsSuccess возвращает true для Result = Success.
func (r Response) IsSuccess() bool {
	return r.Result == ResultSuccess
}

// IsException возвращает true для Result = Exception.
func (r Response) IsException() bool {
	return r.Result == ResultException
}

// Payload декодирует Data ответа.
func (r Response) Payload() ([]byte, error) {
	return Decode(r.Data)
}

// Text декодирует Data ответа как строку.
func (r Response) Text() (string, error) {
	return DecodeString(r.Data)
}

// ParseRequest разбирает JSON-представление Request.
func ParseRequest(body []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return req, nil
}

// ParseResponse разбирает JSON-представление Response и проверяет протокол.
func ParseResponse(body []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := Validate(resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// MarshalResponse сериализует Response в JSON.
func MarshalResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}
