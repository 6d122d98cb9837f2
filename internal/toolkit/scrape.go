package toolkit

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

const (
	defaultScrapeMaxBytes = 2 << 20
	defaultUserAgent      = "stepflow-toolkit/1.0"
)

// ScrapeConfig — конфигурация Scraper.
type ScrapeConfig struct {
	Timeout time.Duration

	// MaxBytes — предел тела ответа (default: 2 MiB).
	MaxBytes int64

	UserAgent string
}

// Scraper загружает страницу и извлекает из неё видимый текст.
type Scraper struct {
	maxBytes int64
	client   *resty.Client
}

// NewScraper создаёт Scraper.
func NewScraper(cfg ScrapeConfig) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultScrapeMaxBytes
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	return &Scraper{
		maxBytes: maxBytes,
		client:   client,
	}
}

// Scrape загружает url.
//
// HTML сводится к тексту; прочие типы содержимого возвращаются как есть.
// Сетевая ошибка или HTTP статус >= 400 — *FetchError.
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() >= 400 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	raw, err := io.ReadAll(io.LimitReader(body, s.maxBytes))
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	if strings.Contains(resp.Header().Get("Content-Type"), "html") {
		return ExtractText(string(raw)), nil
	}
	return strings.TrimSpace(string(raw)), nil
}

// Элементы, текст которых не показывается пользователю.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// ExtractText возвращает видимый текст HTML документа: одна непустая
// строка на текстовый блок, пробелы внутри строки схлопнуты.
func ExtractText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))

	var (
		lines []string
		depth int // вложенность в skipElements
	)

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(lines, "\n")

		case html.StartTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] {
				depth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if skipElements[string(name)] && depth > 0 {
				depth--
			}

		case html.TextToken:
			if depth > 0 {
				continue
			}
			if line := strings.Join(strings.Fields(string(z.Text())), " "); line != "" {
				lines = append(lines, line)
			}
		}
	}
}
