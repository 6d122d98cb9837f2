package toolkit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Провайдеры LLM.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

const (
	defaultMaxTokens  = 1024
	defaultLLMTimeout = 60 * time.Second
)

// Модели по умолчанию.
var defaultModels = map[string]string{
	ProviderAnthropic: "claude-3-5-sonnet-latest",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3",
}

// ProviderConfig — параметры одного провайдера.
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// LLMConfig — конфигурация LLM.
type LLMConfig struct {
	// DefaultProvider — провайдер для пустого имени (default: anthropic).
	DefaultProvider string

	Providers map[string]ProviderConfig
}

// ModelFactory создаёт chat-модель провайдера.
type ModelFactory func(ctx context.Context, provider string, cfg ProviderConfig) (model.BaseChatModel, error)

// LLM — клиент языковых моделей через eino.
type LLM struct {
	cfg     LLMConfig
	factory ModelFactory
}

// NewLLM создаёт LLM. factory == nil — модели eino-ext.
func NewLLM(cfg LLMConfig, factory ModelFactory) *LLM {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = ProviderAnthropic
	}
	if factory == nil {
		factory = NewChatModel
	}
	return &LLM{cfg: cfg, factory: factory}
}

// NormalizeProvider приводит имя провайдера к каноническому.
// "claude" — синоним "anthropic".
func NormalizeProvider(name string) (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(name)); p {
	case ProviderAnthropic, "claude":
		return ProviderAnthropic, nil
	case ProviderOpenAI, ProviderOllama:
		return p, nil
	default:
		return "", &ConfigurationError{
			Provider: name,
			Reason:   "unsupported provider",
			Err:      ErrUnknownProvider,
		}
	}
}

// Query отправляет prompt модели провайдера и возвращает текст ответа.
func (l *LLM) Query(ctx context.Context, prompt, provider string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyQuery
	}

	if provider == "" {
		provider = l.cfg.DefaultProvider
	}
	name, err := NormalizeProvider(provider)
	if err != nil {
		return "", err
	}

	pcfg := l.providerConfig(name)
	if name != ProviderOllama && pcfg.APIKey == "" {
		return "", &ConfigurationError{
			Provider: name,
			Reason:   "api key is not set",
			Err:      ErrMissingAPIKey,
		}
	}

	m, err := l.factory(ctx, name, pcfg)
	if err != nil {
		return "", &ConfigurationError{Provider: name, Reason: "create chat model", Err: err}
	}

	resp, err := m.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", name, err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyResponse)
	}

	return resp.Content, nil
}

// providerConfig возвращает параметры провайдера с умолчаниями.
func (l *LLM) providerConfig(name string) ProviderConfig {
	pcfg := l.cfg.Providers[name]
	if name == ProviderAnthropic && pcfg == (ProviderConfig{}) {
		pcfg = l.cfg.Providers["claude"]
	}

	if pcfg.Model == "" {
		pcfg.Model = defaultModels[name]
	}
	if pcfg.MaxTokens <= 0 {
		pcfg.MaxTokens = defaultMaxTokens
	}
	if pcfg.Timeout <= 0 {
		pcfg.Timeout = defaultLLMTimeout
	}
	return pcfg
}

// NewChatModel создаёт модель eino-ext для провайдера.
func NewChatModel(ctx context.Context, provider string, cfg ProviderConfig) (model.BaseChatModel, error) {
	switch provider {
	case ProviderAnthropic:
		ccfg := &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}
		if cfg.BaseURL != "" {
			ccfg.BaseURL = &cfg.BaseURL
		}
		return claude.NewChatModel(ctx, ccfg)

	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: &cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
