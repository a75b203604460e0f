package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/jsh/core"
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ExitParseError is the exit status of -c when the line couldn't be run.
const ExitParseError = 2

var (
	cfgPath string
	command string
)

func loadConfig() (*config.Configuration, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}

	configuration, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

func newLogger(cmd *cobra.Command, cfg *config.Configuration) *logger.Logger {
	w := cmd.ErrOrStderr()

	isTerminal := false
	if f, ok := w.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
	}

	out := logger.New(w, cfg.Level())
	out.SetColor(cfg.ColorEnabled(isTerminal))
	return out
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsh",
	Short: "A small job control shell",
	Long: `An interactive shell with pipelines, && chaining, quoting,
< and > redirection, ${NAME} substitution and the export built-in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := newLogger(cmd, cfg)

		if cmd.Flags().Changed("command") {
			os.Exit(runCommand(cfg, log, command))
		}

		shell, err := core.NewShell(cfg, log)
		if err != nil {
			return err
		}
		defer shell.Close()

		return shell.Run()
	},
}

// runCommand runs a single line without taking over the terminal and returns
// the status to exit with.
func runCommand(cfg *config.Configuration, log *logger.Logger, line string) int {
	if core.IsExit(line) {
		return 0
	}

	shell, err := core.NewDetachedShell(cfg, log, env.NewOSEnv())
	if err != nil {
		log.Fatalf("%v", err)
		return 1
	}
	if err := shell.Execute(line); err != nil {
		return ExitParseError
	}
	return shell.Status()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "configuration directory, built-in defaults if empty")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single line and exit with its status")
}
