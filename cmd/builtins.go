package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/jsh/core"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands the shell runs itself.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 8, 8, 4, ' ', 0)
		for _, b := range core.AllBuiltins {
			fmt.Fprintf(tw, "%s\t%s\n", b.Usage, b.Summary)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
