package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/stepflow/internal/scheduler"
	"github.com/shaiso/stepflow/internal/toolkit"
)

func newSmokeCmd(app *App) *cobra.Command {
	var (
		cron     bool
		schedule string
		provider string
		query    string
		url      string
		prompt   string
	)

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check the search, scrape and LLM clients",
		Long: "Runs search, scrape and query_llm in order and stops at the first error.\n" +
			"With --cron the checks repeat on toolkit.cron (or --schedule) until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			tk := app.cfg.Toolkit
			clients := app.smokeClients()

			harness := toolkit.NewHarness(toolkit.HarnessConfig{
				Search:   clients.search,
				Scraper:  clients.scraper,
				LLM:      clients.llm,
				Query:    firstNonEmpty(query, tk.Search.Query),
				URL:      firstNonEmpty(url, tk.Scrape.URL),
				Prompt:   firstNonEmpty(prompt, tk.LLM.Prompt),
				Provider: firstNonEmpty(provider, tk.LLM.Provider),
				Out:      app.out.Writer(),
				Logger:   app.logger,
			})

			if !cron {
				report, err := harness.Run(cmd.Context())
				if app.out.JSONMode() {
					app.out.JSON(report)
				}
				return err
			}

			p, err := scheduler.New(scheduler.Config{
				Name:       "smoke",
				Spec:       firstNonEmpty(schedule, tk.Cron),
				RunOnStart: true,
				Job: func(ctx context.Context) error {
					_, err := harness.Run(ctx)
					return err
				},
				Logger: app.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cron, "cron", false, "Repeat the checks on a cron schedule")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression (toolkit.cron if empty)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: anthropic (claude), openai, ollama")
	cmd.Flags().StringVar(&query, "query", "", "Search query")
	cmd.Flags().StringVar(&url, "url", "", "URL to scrape")
	cmd.Flags().StringVar(&prompt, "prompt", "", "LLM prompt")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
