package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newInvocationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invocations",
		Short: "Inspect the step host invocation journal",
	}

	cmd.AddCommand(newInvocationsListCmd(app))
	return cmd
}

func newInvocationsListCmd(app *App) *cobra.Command {
	var (
		guid  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.client()
			if err != nil {
				return err
			}

			list, err := client.ListInvocations(cmd.Context(), guid, limit)
			if err != nil {
				return err
			}

			headers := []string{"GUID", "STEP", "RESULT", "STATUS", "DURATION_MS", "TRANSPORT", "CREATED"}
			rows := make([][]string, len(list))
			for i, inv := range list {
				rows[i] = []string{
					inv.GUID,
					inv.Step,
					inv.Result,
					strconv.Itoa(inv.StatusCode),
					strconv.FormatInt(inv.DurationMs, 10),
					inv.Transport,
					inv.CreatedAt.Format("2006-01-02 15:04:05"),
				}
			}

			app.out.Print(headers, rows, list)
			return nil
		},
	}

	cmd.Flags().StringVar(&guid, "guid", "", "Filter by request GUID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}
