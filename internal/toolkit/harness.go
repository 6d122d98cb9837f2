package toolkit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/shaiso/stepflow/internal/telemetry"
)

// Searcher — поиск.
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Fetcher — загрузка страницы.
type Fetcher interface {
	Scrape(ctx context.Context, url string) (string, error)
}

// Querier — запрос к LLM.
type Querier interface {
	Query(ctx context.Context, prompt, provider string) (string, error)
}

// Имена проверок.
const (
	CheckSearch = "search"
	CheckScrape = "scrape"
	CheckLLM    = "query_llm"
)

// Значения по умолчанию для проверок.
const (
	DefaultSearchQuery = "test query"
	DefaultScrapeURL   = "https://example.com"
	DefaultLLMPrompt   = "Hello, are you working?"
)

// CheckStatus — исход проверки.
type CheckStatus string

const (
	StatusOK      CheckStatus = "ok"
	StatusError   CheckStatus = "error"
	StatusSkipped CheckStatus = "skipped"
)

// CheckResult — результат одной проверки.
type CheckResult struct {
	Name     string        `json:"name"`
	Status   CheckStatus   `json:"status"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report — результаты прогона harness.
type Report struct {
	Checks []CheckResult `json:"checks"`
}

// OK сообщает, что все проверки прошли.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status != StatusOK {
			return false
		}
	}
	return len(r.Checks) > 0
}

// HarnessConfig — конфигурация Harness.
type HarnessConfig struct {
	Search  Searcher
	Scraper Fetcher
	LLM     Querier

	Query    string // default: "test query"
	URL      string // default: "https://example.com"
	Prompt   string // default: "Hello, are you working?"
	Provider string // default: "anthropic"

	// Out — куда печатать результаты (default: os.Stdout).
	Out io.Writer

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// Harness последовательно проверяет search, scrape и query_llm.
//
// Первая ошибка прерывает прогон и возвращается вызывающему;
// оставшиеся проверки помечаются skipped.
type Harness struct {
	cfg HarnessConfig
}

// NewHarness создаёт Harness.
func NewHarness(cfg HarnessConfig) *Harness {
	if cfg.Query == "" {
		cfg.Query = DefaultSearchQuery
	}
	if cfg.URL == "" {
		cfg.URL = DefaultScrapeURL
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultLLMPrompt
	}
	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Harness{cfg: cfg}
}

type check struct {
	name  string
	title string
	label string
	run   func(ctx context.Context) (string, error)
}

// Run выполняет проверки по порядку.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	checks := []check{
		{CheckSearch, "Testing search engine...", "Search results:", h.search},
		{CheckScrape, "Testing web scraper...", "Web content:", h.scrape},
		{CheckLLM, "Testing LLM API...", "LLM response:", h.query},
	}

	report := &Report{}

	for i, c := range checks {
		if i > 0 {
			fmt.Fprintln(h.cfg.Out)
		}
		fmt.Fprintln(h.cfg.Out, c.title)

		start := time.Now()
		out, err := c.run(ctx)
		res := CheckResult{Name: c.name, Duration: time.Since(start)}

		if err != nil {
			res.Status = StatusError
			res.Error = err.Error()
			report.Checks = append(report.Checks, res)
			h.cfg.Metrics.SmokeCheck(c.name, string(StatusError))
			h.cfg.Logger.Error("smoke check failed", "check", c.name, "error", err)

			for _, rest := range checks[i+1:] {
				report.Checks = append(report.Checks, CheckResult{Name: rest.name, Status: StatusSkipped})
			}
			return report, fmt.Errorf("%s: %w", c.name, err)
		}

		res.Status = StatusOK
		res.Output = out
		report.Checks = append(report.Checks, res)
		h.cfg.Metrics.SmokeCheck(c.name, string(StatusOK))
		h.cfg.Logger.Debug("smoke check passed", "check", c.name, "duration", res.Duration)

		fmt.Fprintln(h.cfg.Out, c.label, out)
	}

	return report, nil
}

func (h *Harness) search(ctx context.Context) (string, error) {
	if h.cfg.Search == nil {
		return "", &ConfigurationError{Reason: "search client is not configured"}
	}
	results, err := h.cfg.Search.Search(ctx, h.cfg.Query)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func (h *Harness) scrape(ctx context.Context) (string, error) {
	if h.cfg.Scraper == nil {
		return "", &ConfigurationError{Reason: "scraper is not configured"}
	}
	return h.cfg.Scraper.Scrape(ctx, h.cfg.URL)
}

func (h *Harness) query(ctx context.Context) (string, error) {
	if h.cfg.LLM == nil {
		return "", &ConfigurationError{Reason: "llm client is not configured"}
	}
	return h.cfg.LLM.Query(ctx, h.cfg.Prompt, h.cfg.Provider)
}
