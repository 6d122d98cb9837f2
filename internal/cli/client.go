package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/repo"
)

// ErrNotFound — step host ответил 404.
var ErrNotFound = errors.New("not found")

// --- Response types (зеркалят api/dto.go, CLI не импортирует internal/api) ---

// StepInfo — шаг из API.
type StepInfo struct {
	Name    string `json:"name"`
	Process string `json:"process"`
}

// ChainInfo — встроенный граф из API.
type ChainInfo struct {
	Name  string       `json:"name"`
	Entry string       `json:"entry"`
	Steps []chain.Node `json:"steps"`
}

// ChainRun — результат цепочки, выполненной на step host.
type ChainRun struct {
	Trace   *chain.Trace       `json:"trace"`
	Outcome *envelope.Response `json:"outcome,omitempty"`
	Routed  bool               `json:"routed"`
}

// --- API response wrappers ---

type dataResponse[T any] struct {
	Data T `json:"data"`
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, возвращённая step host.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает ErrNotFound для ответов 404.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// --- Client ---

// Client — HTTP-клиент step host.
//
// Реализует chain.Invoker: цепочку можно вести локально,
// вызывая шаги удалённого хоста.
type Client struct {
	http *resty.Client
}

// NewClient создаёт клиент для step host.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

// ListSteps возвращает зарегистрированные шаги.
func (c *Client) ListSteps(ctx context.Context) ([]StepInfo, error) {
	var out listResponse[StepInfo]
	if err := c.get(ctx, "/api/v1/steps", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Process вызывает шаг и возвращает конверт ответа.
func (c *Client) Process(ctx context.Context, step string, req envelope.Request) (envelope.Response, error) {
	var out envelope.Response
	if err := c.post(ctx, "/api/v1/steps/"+url.PathEscape(step)+"/process", req, &out); err != nil {
		return envelope.Response{}, err
	}
	return out, nil
}

// Invoke реализует chain.Invoker.
func (c *Client) Invoke(ctx context.Context, unit string, req envelope.Request) (envelope.Response, error) {
	return c.Process(ctx, unit, req)
}

// ListChains возвращает встроенные графы хоста.
func (c *Client) ListChains(ctx context.Context) ([]ChainInfo, error) {
	var out listResponse[ChainInfo]
	if err := c.get(ctx, "/api/v1/chains", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// RunChain выполняет встроенный граф на стороне хоста.
//
// При ошибке цепочки возвращает и частичный результат, если хост его прислал.
func (c *Client) RunChain(ctx context.Context, name string, req envelope.Request) (*ChainRun, error) {
	var (
		out dataResponse[ChainRun]
		er  struct {
			errorResponse
			Data *ChainRun `json:"data"`
		}
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&er).
		Post("/api/v1/chains/" + url.PathEscape(name) + "/run")
	if err := checkError(resp, err, &er.errorResponse); err != nil {
		return er.Data, err
	}
	return &out.Data, nil
}

// ListInvocations возвращает записи журнала: по GUID, если он задан,
// иначе последние limit записей.
func (c *Client) ListInvocations(ctx context.Context, guid string, limit int) ([]repo.Invocation, error) {
	params := map[string]string{}
	if guid != "" {
		params["guid"] = guid
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var out listResponse[repo.Invocation]
	if err := c.get(ctx, "/api/v1/invocations", params, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params map[string]string, result any) error {
	var er errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		SetError(&er).
		Get(path)
	return checkError(resp, err, &er)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	var er errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&er).
		Post(path)
	return checkError(resp, err, &er)
}

func checkError(resp *resty.Response, err error, er *errorResponse) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	return &APIError{
		StatusCode: resp.StatusCode(),
		Code:       er.Error.Code,
		Message:    er.Error.Message,
	}
}
