// Step host — HTTP граница вызова шагов.
//
// Step host:
//   - Обслуживает /api/v1/steps и /api/v1/chains
//   - Опционально пишет журнал вызовов в Postgres (db.enabled)
//   - Опционально обслуживает очередь steps.invoke (amqp.enabled)
//   - Отдаёт /healthz и /metrics
//
// Конфигурация: файл из STEPFLOW_CONFIG и переменные STEPFLOW_*.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/stepflow/internal/api"
	"github.com/shaiso/stepflow/internal/chain"
	"github.com/shaiso/stepflow/internal/config"
	"github.com/shaiso/stepflow/internal/mq"
	"github.com/shaiso/stepflow/internal/repo"
	"github.com/shaiso/stepflow/internal/steps"
	"github.com/shaiso/stepflow/internal/telemetry"
	"github.com/shaiso/stepflow/internal/worker"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load(os.Getenv("STEPFLOW_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.LoggerConfig())
	logger.Info("starting step-host")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	stepLog := telemetry.NewStepLogger("steps", telemetry.StepLogOptions{
		Out:    cfg.StepLogWriter(),
		Mirror: logger,
	})
	registry := steps.DefaultRegistry(steps.Options{Log: stepLog})

	if cfg.SelfTest.Enabled {
		runSelfTest(registry, logger)
	}

	// Журнал вызовов
	var journal *repo.InvocationRepo
	if cfg.DB.Enabled {
		pool, err := repo.NewPool(ctx, cfg.DB.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		journal = repo.NewInvocationRepo(pool)
		logger.Info("invocation journal enabled")
	}

	execCfg := worker.ExecutorConfig{
		Registry: registry,
		Metrics:  metrics,
		Logger:   logger,
	}
	if journal != nil {
		execCfg.Journal = journal
	}
	executor := worker.NewExecutor(execCfg)

	// AMQP транспорт
	if cfg.AMQP.Enabled {
		if sw := startWorker(ctx, cfg, executor, logger); sw != nil {
			defer sw.Stop()
		}
	}

	handlerCfg := api.Config{
		Executor: executor,
		Runner: chain.NewRunner(chain.RunnerConfig{
			Invoker: executor,
			MaxHops: cfg.Chain.MaxHops,
			Metrics: metrics,
			Logger:  logger,
		}),
		Metrics: metrics,
		Logger:  logger,
	}
	if journal != nil {
		handlerCfg.Invocations = journal
	}
	handler := api.NewHandler(handlerCfg)

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Round(time.Second))
	})
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// startWorker подключается к RabbitMQ и запускает Worker.
// Недоступный брокер не останавливает HTTP хост.
func startWorker(ctx context.Context, cfg *config.Config, executor *worker.Executor, logger *slog.Logger) *worker.Worker {
	conn, err := mq.NewConnection(mq.ConnectionConfig{
		URL:             cfg.AMQP.URL,
		DeclareTopology: true,
		Logger:          logger,
	})
	if err != nil {
		logger.Warn("RabbitMQ not available, serving HTTP only", "error", err)
		return nil
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	logger.Debug("amqp topology", "layout", mq.TopologyInfo())

	w := worker.New(worker.Config{
		Executor:  executor,
		Publisher: mq.NewPublisher(conn, logger),
		Conn:      conn,
		Prefetch:  cfg.AMQP.Prefetch,
		Logger:    logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		return nil
	}
	return w
}

// runSelfTest прогоняет self-test всех шагов перед стартом.
func runSelfTest(registry *steps.Registry, logger *slog.Logger) {
	st := steps.SelfTest{Enabled: true, Out: os.Stdout}

	for _, name := range registry.Names() {
		unit, err := registry.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(os.Stdout, "== %s\n", name)
		if _, err := st.RunDefault(unit); err != nil {
			logger.Error("self-test failed", "step", name, "error", err)
		}
	}
}
