package core

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readResult struct {
	line string
	err  error
}

// scriptedInput replays canned Readline results and then reports EOF.
type scriptedInput struct {
	results []readResult
	closed  bool
}

func (s *scriptedInput) Readline() (string, error) {
	if len(s.results) == 0 {
		return "", io.EOF
	}
	r := s.results[0]
	s.results = s.results[1:]
	return r.line, r.err
}

func (s *scriptedInput) Close() error {
	s.closed = true
	return nil
}

func lines(in ...string) *scriptedInput {
	out := &scriptedInput{}
	for _, l := range in {
		out.results = append(out.results, readResult{line: l})
	}
	return out
}

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()

	var log bytes.Buffer
	shell, err := NewDetachedShell(config.Default(), logger.New(&log, logger.LevelDebug), env.NewMapEnvFromEnvList(os.Environ()))
	require.NoError(t, err)
	return shell, &log
}

func TestIsExit(t *testing.T) {
	cases := map[string]bool{
		"exit":     true,
		"exit\n":   true,
		"\nexit\n": true,
		"exit\r\n": true,
		" exit":    false,
		"exit 1":   false,
		"exits":    false,
		"":         false,
	}

	for line, want := range cases {
		assert.Equalf(t, want, IsExit(line), "IsExit(%q)", line)
	}
}

func TestNewDetachedShell_initialStatus(t *testing.T) {
	shell, _ := newTestShell(t)
	assert.Equal(t, env.SuccessStatus, shell.Env().Getenv(env.StatusVar))
	assert.Equal(t, 0, shell.Status())
}

func TestNewDetachedShell_envFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GREETING=hello\n"), 0644))

	cfg := config.Default()
	cfg.EnvFile = envFile

	store := env.NewMapEnv()
	_, err := NewDetachedShell(cfg, logger.Discard(), store)
	require.NoError(t, err)
	assert.Equal(t, "hello", store.Getenv("GREETING"))

	cfg.EnvFile = filepath.Join(dir, "missing")
	_, err = NewDetachedShell(cfg, logger.Discard(), env.NewMapEnv())
	assert.Error(t, err)
}

func TestShell_Execute(t *testing.T) {
	t.Run("substitution", func(t *testing.T) {
		shell, log := newTestShell(t)
		out := filepath.Join(t.TempDir(), "out")

		require.NoError(t, shell.Execute("export var=value"))
		require.NoError(t, shell.Execute("echo ${var} ${undefined}x > "+out))

		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "value x\n", string(got))
		assert.Contains(t, log.String(), "substituted")
	})

	t.Run("status variable", func(t *testing.T) {
		shell, _ := newTestShell(t)
		out := filepath.Join(t.TempDir(), "out")

		require.NoError(t, shell.Execute("sh -c 'exit 5'"))
		assert.Equal(t, 5, shell.Status())

		require.NoError(t, shell.Execute("echo ${?} > "+out))
		got, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "5\n", string(got))
		assert.Equal(t, 0, shell.Status())
	})

	t.Run("cyclic variables terminate", func(t *testing.T) {
		shell, _ := newTestShell(t)
		shell.config.MaxSubstitutions = 100

		require.NoError(t, shell.Env().Setenv("a", "${b}"))
		require.NoError(t, shell.Env().Setenv("b", "${a}"))
		require.NoError(t, shell.Execute("true ${a}"))
		assert.Equal(t, 0, shell.Status())
	})

	t.Run("parse error", func(t *testing.T) {
		shell, log := newTestShell(t)

		assert.Error(t, shell.Execute(`echo "unclosed`))
		assert.Contains(t, log.String(), "unclosed quotation")
	})
}

func TestShell_Run(t *testing.T) {
	t.Run("exit stops reading", func(t *testing.T) {
		shell, _ := newTestShell(t)
		input := lines("export a=1", "exit\n", "export b=2")
		shell.lines = input

		require.NoError(t, shell.Run())
		assert.Equal(t, "1", shell.Env().Getenv("a"))
		assert.Equal(t, "", shell.Env().Getenv("b"))
		assert.Len(t, input.results, 1, "nothing after exit is read")
	})

	t.Run("eof", func(t *testing.T) {
		shell, _ := newTestShell(t)
		shell.lines = lines("", "   ", "export a=1")

		require.NoError(t, shell.Run())
		assert.Equal(t, "1", shell.Env().Getenv("a"))
	})

	t.Run("interrupt prompts again", func(t *testing.T) {
		shell, _ := newTestShell(t)
		shell.lines = &scriptedInput{results: []readResult{
			{line: "export half", err: readline.ErrInterrupt},
			{line: "export a=1"},
		}}

		require.NoError(t, shell.Run())
		assert.Equal(t, "1", shell.Env().Getenv("a"))
	})

	t.Run("errors continue", func(t *testing.T) {
		shell, log := newTestShell(t)
		shell.lines = lines("export", "/nonexistent/jsh-test-binary", "export a=1")

		require.NoError(t, shell.Run())
		assert.Equal(t, "1", shell.Env().Getenv("a"))
		assert.Contains(t, log.String(), "ERROR")
	})

	t.Run("read error", func(t *testing.T) {
		shell, _ := newTestShell(t)
		shell.lines = &scriptedInput{results: []readResult{{err: io.ErrUnexpectedEOF}}}

		assert.ErrorIs(t, shell.Run(), io.ErrUnexpectedEOF)
	})

	t.Run("no input", func(t *testing.T) {
		shell, _ := newTestShell(t)
		assert.Error(t, shell.Run())
	})
}

func TestShell_Close(t *testing.T) {
	shell, _ := newTestShell(t)
	input := lines()
	shell.lines = input

	assert.NoError(t, shell.Close())
	assert.True(t, input.closed)
}

func TestAllBuiltins(t *testing.T) {
	names := make(map[string]bool)
	for _, b := range AllBuiltins {
		assert.NotEmpty(t, b.Usage, b.Name)
		assert.NotEmpty(t, b.Summary, b.Name)
		assert.False(t, names[b.Name], "duplicate builtin %q", b.Name)
		names[b.Name] = true
	}
	assert.True(t, names["export"])
	assert.True(t, names["exit"])
}
