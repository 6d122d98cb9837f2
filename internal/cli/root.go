package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/stepflow/internal/config"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
	"github.com/shaiso/stepflow/internal/toolkit"
	"github.com/shaiso/stepflow/internal/worker"
)

// ErrHostRequired — команда работает только с удалённым step host.
var ErrHostRequired = errors.New("--host is required for this command")

// App — общее состояние команд stepctl.
//
// Поля заполняются в PersistentPreRunE после разбора флагов.
type App struct {
	configPath string
	host       string
	jsonOutput bool
	stepLog    bool

	cfg      *config.Config
	logger   *slog.Logger
	registry *steps.Registry
	out      *Output

	// toolkit — клиенты smoke-проверок; nil — собираются из конфигурации.
	toolkit *toolkitClients
}

type toolkitClients struct {
	search  toolkit.Searcher
	scraper toolkit.Fetcher
	llm     toolkit.Querier
}

// NewRootCmd создаёт корневую команду stepctl.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(&App{}, version)
}

func newRootCmd(app *App, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "stepctl",
		Short:         "stepctl — invoke, chain and smoke-test step units",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.init(cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to YAML config file")
	flags.StringVar(&app.host, "host", "", "Step host URL (in-process registry if empty)")
	flags.BoolVar(&app.jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVar(&app.stepLog, "step-log", false, "Write step log records to stderr")

	root.AddCommand(
		newStepsCmd(app),
		newChainCmd(app),
		newSmokeCmd(app),
		newInvocationsCmd(app),
	)

	return root
}

func (a *App) init(w, errW io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = telemetry.NewLogger(telemetry.LogConfig{
		Level:  cfg.Log.Level,
		Format: "text",
		Output: errW,
	})

	stepLog := telemetry.DiscardStepLogger("steps")
	if a.stepLog {
		stepLog = telemetry.NewStepLogger("steps", telemetry.StepLogOptions{Out: errW})
	}
	a.registry = steps.DefaultRegistry(steps.Options{Log: stepLog})

	a.out = NewOutput(a.jsonOutput, w, errW)
	return nil
}

// backend возвращает Backend по флагу --host.
func (a *App) backend() Backend {
	if a.host != "" {
		return RemoteBackend{Client: NewClient(a.host)}
	}
	return LocalBackend{Executor: worker.NewExecutor(worker.ExecutorConfig{
		Registry: a.registry,
		Logger:   a.logger,
	})}
}

// client возвращает клиент step host или ErrHostRequired.
func (a *App) client() (*Client, error) {
	if a.host == "" {
		return nil, ErrHostRequired
	}
	return NewClient(a.host), nil
}

// smokeClients возвращает клиенты smoke-проверок.
func (a *App) smokeClients() *toolkitClients {
	if a.toolkit != nil {
		return a.toolkit
	}
	return &toolkitClients{
		search:  toolkit.NewSearchClient(a.cfg.SearchClientConfig()),
		scraper: toolkit.NewScraper(a.cfg.ScraperConfig()),
		llm:     toolkit.NewLLM(a.cfg.LLMClientConfig(), nil),
	}
}
