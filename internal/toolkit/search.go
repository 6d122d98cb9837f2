package toolkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultSearchEndpoint   = "http://localhost:8888/search"
	defaultSearchMaxResults = 10
	defaultHTTPTimeout      = 30 * time.Second
)

// SearchResult — один результат поиска.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchConfig — конфигурация SearchClient.
type SearchConfig struct {
	// Endpoint — адрес SearXNG /search (default: http://localhost:8888/search).
	Endpoint string

	// MaxResults — предел результатов (default: 10).
	MaxResults int

	Timeout time.Duration
}

// SearchClient — клиент SearXNG-совместимого поиска.
type SearchClient struct {
	endpoint   string
	maxResults int
	client     *resty.Client
}

// NewSearchClient создаёт SearchClient.
func NewSearchClient(cfg SearchConfig) *SearchClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSearchMaxResults
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	// Без повторов: отказ провайдера сразу отображается в результат проверки.
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &SearchClient{
		endpoint:   endpoint,
		maxResults: maxResults,
		client:     client,
	}
}

// searxResponse — формат ответа SearXNG (format=json).
type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search выполняет запрос и возвращает результаты в порядке ранжирования.
func (c *SearchClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	var out searxResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":      query,
			"format": "json",
		}).
		SetResult(&out).
		Get(c.endpoint)
	if err != nil {
		return nil, &FetchError{URL: c.endpoint, Err: err}
	}
	if resp.IsError() {
		return nil, &FetchError{URL: c.endpoint, StatusCode: resp.StatusCode()}
	}

	results := make([]SearchResult, 0, min(len(out.Results), c.maxResults))
	for _, r := range out.Results {
		if len(results) == c.maxResults {
			break
		}
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(r.Title),
			URL:     r.URL,
			Snippet: strings.TrimSpace(r.Content),
		})
	}

	return results, nil
}

// String форматирует результат для печати.
func (r SearchResult) String() string {
	return fmt.Sprintf("%s (%s)", r.Title, r.URL)
}
