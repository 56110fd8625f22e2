package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/martin/scriptctl/internal/state"
)

var stopCmd = &cobra.Command{
	Use:   "stop <script>",
	Short: "Stop the running execution of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		client, _, err := newClient(true)
		if err != nil {
			return err
		}

		store, err := state.Open()
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer store.Close()

		id, err := store.ActiveExecution(name)
		if err != nil {
			return err
		}
		if id == "" {
			return fmt.Errorf("no running execution of %q", name)
		}

		if err := client.StopScript(cmd.Context(), id); err != nil {
			return fmt.Errorf("stopping execution %s: %w", id, err)
		}
		if err := store.MarkFinished(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stopped execution %s of %q\n", id, name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
