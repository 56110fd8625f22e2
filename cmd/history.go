package cmd

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/martin/scriptctl/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show executions started from this machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := state.Open()
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer store.Close()

		executions, err := store.History(historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSCRIPT\tSTATUS\tSTARTED\tPARAMETERS")
		for _, e := range executions {
			status := "finished"
			if e.Running {
				status = "running"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Script, status,
				e.StartedAt.Format("2006-01-02 15:04:05"),
				formatParams(e.Parameters))
		}
		return w.Flush()
	},
}

func formatParams(values map[string]string) string {
	if len(values) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values[k])
	}
	return strings.Join(parts, " ")
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of executions to show")
	rootCmd.AddCommand(historyCmd)
}
