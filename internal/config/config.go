package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shaiso/stepflow/internal/mq"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/scheduler"
	"github.com/shaiso/stepflow/internal/telemetry"
	"github.com/shaiso/stepflow/internal/toolkit"
)

// EnvPrefix — префикс переменных окружения (STEPFLOW_HTTP_ADDR и т.д.).
const EnvPrefix = "STEPFLOW"

// ErrInvalidConfig — конфигурация не прошла проверку.
var ErrInvalidConfig = errors.New("invalid config")

// Config — конфигурация step host и stepctl.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	StepLog  StepLogConfig  `mapstructure:"steplog"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	DB       DBConfig       `mapstructure:"db"`
	Chain    ChainConfig    `mapstructure:"chain"`
	SelfTest SelfTestConfig `mapstructure:"selftest"`
	Toolkit  ToolkitConfig  `mapstructure:"toolkit"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LogConfig — логирование процесса.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // DEBUG | INFO | WARN | ERROR
	Format string `mapstructure:"format"` // json | text
}

// StepLogConfig — журнал шагов в формате {"TimestampUtc","Severity","Message"}.
type StepLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"` // stdout | stderr
}

// HTTPConfig — HTTP step host.
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AMQPConfig — AMQP транспорт шагов.
type AMQPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Prefetch int    `mapstructure:"prefetch"`
}

// DBConfig — журнал вызовов в Postgres.
type DBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ChainConfig — исполнитель цепочек.
type ChainConfig struct {
	MaxHops int `mapstructure:"max_hops"`
}

// SelfTestConfig — ручной self-test шагов.
type SelfTestConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig — Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ToolkitConfig — smoke-проверки API-клиентов.
type ToolkitConfig struct {
	Search SearchConfig `mapstructure:"search"`
	Scrape ScrapeConfig `mapstructure:"scrape"`
	LLM    LLMConfig    `mapstructure:"llm"`

	// Cron — расписание `stepctl smoke --cron`.
	Cron string `mapstructure:"cron"`
}

// SearchConfig — поисковый endpoint.
type SearchConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	MaxResults int           `mapstructure:"max_results"`
	Query      string        `mapstructure:"query"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ScrapeConfig — загрузка страниц.
type ScrapeConfig struct {
	URL      string        `mapstructure:"url"`
	MaxBytes int64         `mapstructure:"max_bytes"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LLMConfig — LLM провайдеры.
type LLMConfig struct {
	Provider  string                    `mapstructure:"provider"`
	Prompt    string                    `mapstructure:"prompt"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig — параметры одного провайдера.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// Переменные окружения провайдеров, читаемые без префикса.
var providerKeyEnv = map[string]string{
	toolkit.ProviderAnthropic: "ANTHROPIC_API_KEY",
	toolkit.ProviderOpenAI:    "OPENAI_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "json")

	v.SetDefault("steplog.enabled", true)
	v.SetDefault("steplog.output", "stdout")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("amqp.enabled", false)
	v.SetDefault("amqp.url", mq.DefaultURL())
	v.SetDefault("amqp.prefetch", 5)

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.dsn", repo.DefaultDSN)

	v.SetDefault("chain.max_hops", 64)

	v.SetDefault("selftest.enabled", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("toolkit.search.endpoint", "http://localhost:8888/search")
	v.SetDefault("toolkit.search.max_results", 10)
	v.SetDefault("toolkit.search.query", toolkit.DefaultSearchQuery)
	v.SetDefault("toolkit.search.timeout", 30*time.Second)
	v.SetDefault("toolkit.scrape.url", toolkit.DefaultScrapeURL)
	v.SetDefault("toolkit.scrape.max_bytes", 2<<20)
	v.SetDefault("toolkit.scrape.timeout", 30*time.Second)
	v.SetDefault("toolkit.llm.provider", toolkit.ProviderAnthropic)
	v.SetDefault("toolkit.llm.prompt", toolkit.DefaultLLMPrompt)
	v.SetDefault("toolkit.cron", "*/5 * * * *")

	for _, p := range []string{toolkit.ProviderAnthropic, toolkit.ProviderOpenAI, toolkit.ProviderOllama} {
		for _, field := range []string{"api_key", "base_url", "model"} {
			v.SetDefault("toolkit.llm.providers."+p+"."+field, "")
		}
	}
}

// Load читает конфигурацию.
//
// Порядок приоритета: переменные окружения STEPFLOW_*, файл path
// (если задан), значения по умолчанию. Ключи провайдеров также
// читаются из ANTHROPIC_API_KEY и OPENAI_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for provider, env := range providerKeyEnv {
		key := "toolkit.llm.providers." + provider + ".api_key"
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	expandEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandEnvVars подставляет ${VAR} в ключах провайдеров.
func expandEnvVars(cfg *Config) {
	for name, p := range cfg.Toolkit.LLM.Providers {
		if strings.HasPrefix(p.APIKey, "$") {
			p.APIKey = os.ExpandEnv(p.APIKey)
			cfg.Toolkit.LLM.Providers[name] = p
		}
	}
}

// Validate проверяет значения конфигурации.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is required", ErrInvalidConfig)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log.format must be json or text, got %q", ErrInvalidConfig, c.Log.Format)
	}

	switch c.StepLog.Output {
	case "stdout", "stderr":
	default:
		return fmt.Errorf("%w: steplog.output must be stdout or stderr, got %q", ErrInvalidConfig, c.StepLog.Output)
	}

	if c.Chain.MaxHops <= 0 {
		return fmt.Errorf("%w: chain.max_hops must be positive", ErrInvalidConfig)
	}

	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("%w: db.dsn is required when db is enabled", ErrInvalidConfig)
	}
	if c.AMQP.Enabled && c.AMQP.URL == "" {
		return fmt.Errorf("%w: amqp.url is required when amqp is enabled", ErrInvalidConfig)
	}

	if _, err := toolkit.NormalizeProvider(c.Toolkit.LLM.Provider); err != nil {
		return fmt.Errorf("%w: toolkit.llm.provider: %w", ErrInvalidConfig, err)
	}
	if err := scheduler.ValidateCronExpr(c.Toolkit.Cron); err != nil {
		return fmt.Errorf("%w: toolkit.cron: %w", ErrInvalidConfig, err)
	}

	return nil
}

// LoggerConfig возвращает настройки логгера.
func (c *Config) LoggerConfig() telemetry.LogConfig {
	return telemetry.LogConfig{Level: c.Log.Level, Format: c.Log.Format}
}

// StepLogWriter возвращает поток журнала шагов; nil, если журнал выключен.
func (c *Config) StepLogWriter() io.Writer {
	if !c.StepLog.Enabled {
		return nil
	}
	if c.StepLog.Output == "stderr" {
		return os.Stderr
	}
	return os.Stdout
}

// SearchClientConfig возвращает настройки поискового клиента.
func (c *Config) SearchClientConfig() toolkit.SearchConfig {
	s := c.Toolkit.Search
	return toolkit.SearchConfig{Endpoint: s.Endpoint, MaxResults: s.MaxResults, Timeout: s.Timeout}
}

// ScraperConfig возвращает настройки загрузчика страниц.
func (c *Config) ScraperConfig() toolkit.ScrapeConfig {
	s := c.Toolkit.Scrape
	return toolkit.ScrapeConfig{Timeout: s.Timeout, MaxBytes: s.MaxBytes}
}

// LLMClientConfig возвращает настройки LLM провайдеров.
func (c *Config) LLMClientConfig() toolkit.LLMConfig {
	providers := make(map[string]toolkit.ProviderConfig, len(c.Toolkit.LLM.Providers))
	for name, p := range c.Toolkit.LLM.Providers {
		providers[name] = toolkit.ProviderConfig{
			APIKey:  p.APIKey,
			BaseURL: p.BaseURL,
			Model:   p.Model,
		}
	}

	return toolkit.LLMConfig{
		DefaultProvider: c.Toolkit.LLM.Provider,
		Providers:       providers,
	}
}
