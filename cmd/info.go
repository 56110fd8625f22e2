package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/martin/scriptctl/internal/script"
)

var infoCmd = &cobra.Command{
	Use:   "info <script>",
	Short: "Show a script's description and parameters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient(true)
		if err != nil {
			return err
		}

		sc, err := client.ScriptInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("fetching script %q: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sc.Name)
		if sc.Description != "" {
			fmt.Fprintln(out, sc.Description)
		}
		if len(sc.Parameters) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PARAMETER\tTYPE\tDEFAULT\tDESCRIPTION")
		for _, p := range sc.Parameters {
			name := p.Name
			if p.Required {
				name += "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, paramType(p), p.Default, p.Description)
		}
		return w.Flush()
	},
}

func paramType(p script.Parameter) string {
	switch p.Type {
	case script.TypeList:
		return "list(" + strings.Join(p.Values, "|") + ")"
	case script.TypeInt:
		bounds := intBounds(p)
		if bounds != "" {
			return "int " + bounds
		}
		return "int"
	case script.TypeFlag:
		return "flag"
	default:
		return "text"
	}
}

func intBounds(p script.Parameter) string {
	switch {
	case p.Min != nil && p.Max != nil:
		return fmt.Sprintf("[%d..%d]", *p.Min, *p.Max)
	case p.Min != nil:
		return fmt.Sprintf(">=%d", *p.Min)
	case p.Max != nil:
		return fmt.Sprintf("<=%d", *p.Max)
	default:
		return ""
	}
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
