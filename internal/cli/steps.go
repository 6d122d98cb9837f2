package cli

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/stepflow/internal/envelope"
	"github.com/shaiso/stepflow/internal/steps"
)

func newStepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Invoke step units",
	}

	cmd.AddCommand(
		newStepsListCmd(app),
		newStepsInvokeCmd(app),
		newStepsSelfTestCmd(app),
	)

	return cmd
}

func newStepsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List step units",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := app.backend().Steps(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{name}
			}

			app.out.Print([]string{"NAME"}, rows, names)
			return nil
		},
	}
}

// requestFlags — флаги, из которых собирается конверт запроса.
type requestFlags struct {
	guid    string
	data    string
	dataB64 string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.guid, "guid", "", "Request GUID (random UUID if empty)")
	cmd.Flags().StringVar(&f.data, "data", "", "Request data as text (base64-encoded for you)")
	cmd.Flags().StringVar(&f.dataB64, "data-b64", "", "Request data, already base64-encoded")
	cmd.MarkFlagsMutuallyExclusive("data", "data-b64")
}

func (f *requestFlags) request(cmd *cobra.Command) envelope.Request {
	guid := f.guid
	if guid == "" {
		guid = uuid.NewString()
	}

	switch {
	case cmd.Flags().Changed("data-b64"):
		return envelope.Request{GUID: guid, Data: f.dataB64}
	case cmd.Flags().Changed("data"):
		return envelope.NewRequestText(guid, f.data)
	default:
		return envelope.Request{GUID: guid}
	}
}

func newStepsInvokeCmd(app *App) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "invoke NAME",
		Short: "Invoke a step unit with a request envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.backend().Process(cmd.Context(), args[0], rf.request(cmd))
			if err != nil {
				return err
			}

			app.out.Print(responseHeaders, [][]string{responseRow(resp)}, resp)
			return nil
		},
	}

	rf.register(cmd)
	return cmd
}

func newStepsSelfTestCmd(app *App) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "selftest [NAME...]",
		Short: "Run the in-process self-test of step units",
		Long: "Builds a synthetic request, calls the unit in-process and prints the raw response\n" +
			"and the decoded data. Enabled by selftest.enabled (STEPFLOW_SELFTEST_ENABLED=true).",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := steps.SelfTest{
				Enabled: app.cfg.SelfTest.Enabled,
				Out:     app.out.Writer(),
			}
			if !st.Enabled {
				return fmt.Errorf("%w: set selftest.enabled or STEPFLOW_SELFTEST_ENABLED=true", steps.ErrSelfTestDisabled)
			}

			names := args
			if len(names) == 0 {
				names = app.registry.Names()
			}

			custom := cmd.Flags().Changed("data") || cmd.Flags().Changed("data-b64") || cmd.Flags().Changed("guid")

			for _, name := range names {
				unit, err := app.registry.Get(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(app.out.Writer(), "== %s\n", name)

				if custom {
					_, err = st.Run(unit, rf.request(cmd))
				} else {
					_, err = st.RunDefault(unit)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	rf.register(cmd)
	return cmd
}

var responseHeaders = []string{"RESULT", "STATUS", "CONTENT_TYPE", "DATA", "DECODED"}

func responseRow(resp envelope.Response) []string {
	return []string{
		string(resp.Result),
		strconv.Itoa(resp.StatusCode),
		resp.ContentType,
		resp.Data,
		decoded(resp.Data),
	}
}

// decoded возвращает текст base64 данных или пометку, если они не декодируются.
func decoded(data string) string {
	if data == "" {
		return ""
	}
	text, err := envelope.DecodeString(data)
	if err != nil {
		return "<invalid base64>"
	}
	return text
}
