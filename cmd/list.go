package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List scripts available on the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listScripts(cmd)
	},
}

func listScripts(cmd *cobra.Command) error {
	client, _, err := newClient(true)
	if err != nil {
		return err
	}

	names, err := client.ListScripts(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing scripts: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
}
