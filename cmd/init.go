package cmd

import (
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write the default shell configuration to dir (default: the current directory).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		return config.Initialize(dir, logger.New(cmd.ErrOrStderr(), logger.LevelWarn))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
