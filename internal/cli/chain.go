package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/stepflow/internal/chain"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Run and validate step chains",
	}

	cmd.AddCommand(
		newChainListCmd(app),
		newChainRunCmd(app),
		newChainValidateCmd(app),
	)

	return cmd
}

// loadGraph возвращает граф из файла или встроенный граф по имени.
func loadGraph(file string, args []string) (*chain.Graph, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read graph file: %w", err)
		}
		return chain.ParseGraph(data)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("graph name or --file is required (built-in: %v)", chain.BuiltinNames())
	}
	return chain.Builtin(args[0])
}

func newChainListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			var graphs []ChainInfo

			if app.host != "" {
				list, err := NewClient(app.host).ListChains(cmd.Context())
				if err != nil {
					return err
				}
				graphs = list
			} else {
				for _, name := range chain.BuiltinNames() {
					g, err := chain.Builtin(name)
					if err != nil {
						return err
					}
					graphs = append(graphs, ChainInfo{Name: g.Name, Entry: g.Entry, Steps: g.Steps})
				}
			}

			rows := make([][]string, len(graphs))
			for i, g := range graphs {
				rows[i] = []string{g.Name, g.Entry, strconv.Itoa(len(g.Steps))}
			}

			app.out.Print([]string{"NAME", "ENTRY", "STEPS"}, rows, graphs)
			return nil
		},
	}
}

func newChainRunCmd(app *App) *cobra.Command {
	var (
		rf      requestFlags
		file    string
		maxHops int
		onHost  bool
	)

	cmd := &cobra.Command{
		Use:   "run [NAME]",
		Short: "Run a chain: built-in by NAME or declared in --file",
		Long: "Runs the chain locally, invoking each unit in-process or on --host.\n" +
			"With --on-host the whole built-in chain runs on the step host.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rf.request(cmd)

			if onHost {
				client, err := app.client()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					return fmt.Errorf("--on-host needs a built-in chain NAME")
				}

				run, err := client.RunChain(cmd.Context(), args[0], req)
				if run != nil && run.Trace != nil {
					printTrace(app.out, run.Trace, run)
				}
				return err
			}

			g, err := loadGraph(file, args)
			if err != nil {
				return err
			}

			if maxHops <= 0 {
				maxHops = app.cfg.Chain.MaxHops
			}

			runner := chain.NewRunner(chain.RunnerConfig{
				Invoker: app.backend(),
				MaxHops: maxHops,
				Logger:  app.logger,
			})

			trace, err := runner.Run(cmd.Context(), g, req)
			if trace != nil {
				printTrace(app.out, trace, trace)
			}
			return err
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON graph file")
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "Hop limit (chain.max_hops if 0)")
	cmd.Flags().BoolVar(&onHost, "on-host", false, "Run the built-in chain on the step host")

	return cmd
}

func newChainValidateCmd(app *App) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "validate [NAME]",
		Short: "Validate a chain graph against the available units",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(file, args)
			if err != nil {
				return err
			}

			names, err := app.backend().Steps(cmd.Context())
			if err != nil {
				return err
			}
			known := make(map[string]bool, len(names))
			for _, n := range names {
				known[n] = true
			}

			if err := chain.Validate(g, func(unit string) bool { return known[unit] }); err != nil {
				return err
			}

			app.out.Success(fmt.Sprintf("Chain %s is valid: %d steps, entry %s", g.Name, len(g.Steps), g.Entry))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON graph file")
	return cmd
}

// printTrace выводит переходы цепочки.
func printTrace(out *Output, trace *chain.Trace, jsonData any) {
	headers := []string{"#", "NODE", "UNIT", "RESULT", "STATUS", "EDGE", "NEXT", "DECODED"}

	var rows [][]string
	if trace != nil {
		rows = make([][]string, len(trace.Hops))
		for i, h := range trace.Hops {
			rows[i] = []string{
				strconv.Itoa(i + 1),
				h.NodeID,
				h.Unit,
				string(h.Response.Result),
				strconv.Itoa(h.Response.StatusCode),
				string(h.Edge),
				h.Next,
				decoded(h.Response.Data),
			}
		}
	}

	out.Print(headers, rows, jsonData)
}
