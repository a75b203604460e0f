package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/job"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/josephlewis42/jsh/core/parsing"
	"github.com/josephlewis42/jsh/core/process"
	"github.com/josephlewis42/jsh/core/sys"
)

// ExitKeyword ends the read loop.
const ExitKeyword = "exit"

// LineReader supplies lines of input. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

var _ LineReader = (*readline.Instance)(nil)

// Shell is one shell session. It owns the terminal for its lifetime.
type Shell struct {
	config   *config.Configuration
	log      *logger.Logger
	env      env.Store
	terminal sys.Terminal
	signals  *sys.Signals
	executor *job.Executor
	lines    LineReader
}

// NewShell creates an interactive session on the process's controlling
// terminal. It fails if the shell isn't running interactively.
func NewShell(cfg *config.Configuration, log *logger.Logger) (*Shell, error) {
	tty, err := sys.AcquireTerminal(os.Stdin)
	if err != nil {
		return nil, err
	}
	signals := sys.HandleSignals()

	shell, err := newSession(cfg, log, env.NewOSEnv(), tty, signals)
	if err != nil {
		signals.Stop()
		return nil, err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       ExitKeyword,
	})
	if err != nil {
		signals.Stop()
		return nil, err
	}
	shell.lines = rl

	log.Debugf("shell started in process group %d", tty.Pgid())
	return shell, nil
}

// NewDetachedShell creates a session that never touches the terminal, used to
// run commands non-interactively.
func NewDetachedShell(cfg *config.Configuration, log *logger.Logger, store env.Store) (*Shell, error) {
	return newSession(cfg, log, store, sys.Detached{}, nil)
}

func newSession(cfg *config.Configuration, log *logger.Logger, store env.Store, terminal sys.Terminal, signals *sys.Signals) (*Shell, error) {
	if err := env.SetStatus(store, 0); err != nil {
		return nil, err
	}
	if path := cfg.EnvPath(); path != "" {
		if err := env.LoadDotenv(store, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	launcher := process.NewLauncher(store, terminal, log)
	return &Shell{
		config:   cfg,
		log:      log,
		env:      store,
		terminal: terminal,
		signals:  signals,
		executor: job.NewExecutor(launcher),
	}, nil
}

// Env is the session's environment store.
func (s *Shell) Env() env.Store {
	return s.env
}

// Status is the exit status of the last command.
func (s *Shell) Status() int {
	status, err := strconv.Atoi(s.env.Getenv(env.StatusVar))
	if err != nil {
		return 1
	}
	return status
}

// IsExit reports whether line is the exit keyword, ignoring stray newlines.
func IsExit(line string) bool {
	return strings.Trim(line, "\r\n") == ExitKeyword
}

// Execute runs a single line of input: variables are substituted, the line is
// split into a job and the job executed. Errors have already been logged by
// the time they are returned.
func (s *Shell) Execute(line string) error {
	s.log.Debugf("input: %q", line)

	substituted := parsing.Substitute(line, s.env, s.config.MaxSubstitutions)
	if substituted != line {
		s.log.Debugf("substituted: %q", substituted)
	}

	j := job.Parse(substituted)
	s.log.Debugf("job has %d command(s)", len(j.Inputs))

	return s.executor.Execute(j)
}

func (s *Shell) drainInterrupts() {
	if s.signals == nil {
		return
	}
	for {
		select {
		case sig := <-s.signals.Interrupts():
			s.log.Debugf("received %s", sig)
		default:
			return
		}
	}
}

// Run reads and executes lines until the input ends or the exit keyword is
// read. Interrupting the prompt discards the line and prompts again.
func (s *Shell) Run() error {
	if s.lines == nil {
		return errors.New("shell has no input")
	}

	for {
		s.drainInterrupts()

		line, err := s.lines.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		case IsExit(line):
			return nil
		case strings.TrimSpace(line) == "":
			continue
		}

		_ = s.Execute(line)
	}
}

// Close releases the input and restores the signal dispositions and the
// terminal.
func (s *Shell) Close() error {
	var firstErr error
	if s.lines != nil {
		firstErr = s.lines.Close()
	}
	if s.signals != nil {
		s.signals.Stop()
	}
	if err := s.terminal.Reclaim(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
