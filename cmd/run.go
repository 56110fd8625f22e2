package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/martin/scriptctl/internal/console"
	"github.com/martin/scriptctl/internal/controller"
	"github.com/martin/scriptctl/internal/execution"
	"github.com/martin/scriptctl/internal/state"
)

var runParams []string

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a script to completion without the TUI",
	Long: `Run starts a script and streams its output to stdout until it
finishes. Input prompts from the script are answered from stdin. Ctrl+C
requests the server to stop the execution.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		values, err := parseParamFlags(runParams)
		if err != nil {
			return err
		}

		client, logger, err := newClient(true)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		sc, err := client.ScriptInfo(ctx, name)
		if err != nil {
			return fmt.Errorf("fetching script %q: %w", name, err)
		}

		// Fill in defaults for parameters not given on the command line,
		// then validate before touching the server.
		merged := sc.DefaultValues()
		for k, v := range values {
			merged[k] = v
		}
		if err := sc.ValidateValues(merged); err != nil {
			return err
		}

		store, err := state.Open()
		if err != nil {
			logger.Warn("state store unavailable", "error", err)
			store = nil
		} else {
			defer store.Close()
		}

		surface := console.New(cmd.OutOrStdout(), cmd.InOrStdin())
		c := controller.New(sc, surface,
			func() controller.Handle { return execution.NewHandle(client, name) },
			logger,
			controller.WithStartCallback(recordStart(store, name)))
		defer c.Dispose()

		surface.SetParameterValues(merged)
		surface.Execute()
		if !c.Executing() {
			// The failure message already went to the surface.
			return fmt.Errorf("execution of %q did not start", name)
		}

		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigc)

		for {
			select {
			case <-surface.Done():
				return nil
			case <-sigc:
				surface.Stop()
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	},
}

func init() {
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "parameter value as key=value (repeatable)")
	rootCmd.AddCommand(runCmd)
}
