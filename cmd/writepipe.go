package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/jsh/core/sys"
	"github.com/pborman/getopt/v2"
	"github.com/spf13/cobra"
)

// writepipeCmd is a helper for exercising the shell's redirections against
// named pipes.
var writepipeCmd = &cobra.Command{
	Use:   "writepipe -n NAME [MESSAGE...]",
	Short: "Create the named pipe NAME and write MESSAGE (default: NAME) into it.",
	// Flags are parsed with getopt to keep the helper's historic interface.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		opts := getopt.New()
		opts.SetProgram(cmd.Name())
		opts.SetParameters("[MESSAGE...]")
		name := opts.StringLong("name", 'n', "", "path of the pipe to create", "NAME")
		helpOpt := opts.BoolLong("help", 'h', "show help and exit")

		if err := opts.Getopt(append([]string{cmd.Name()}, args...), nil); err != nil {
			opts.PrintUsage(cmd.ErrOrStderr())
			return err
		}
		if *helpOpt {
			opts.PrintUsage(cmd.OutOrStdout())
			return nil
		}
		if *name == "" {
			opts.PrintUsage(cmd.ErrOrStderr())
			return errors.New("missing required --name")
		}

		message := *name + "\n"
		if rest := opts.Args(); len(rest) > 0 {
			message = strings.Join(rest, " ") + "\n"
		}

		fmt.Fprintln(cmd.OutOrStdout(), *name)
		return sys.WriteFifo(*name, message)
	},
}

func init() {
	rootCmd.AddCommand(writepipeCmd)
}
