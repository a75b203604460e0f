package sys

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFileOwnership(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	f, err := OpenOutput(name)
	require.NoError(t, err)
	assert.True(t, f.Valid())
	assert.Equal(t, name, f.Name())

	moved := f.Move()
	assert.False(t, f.Valid())
	assert.True(t, moved.Valid())
	assert.NoError(t, f.Close(), "closing an empty handle is a no-op")

	_, err = moved.OS().WriteString("still open\n")
	assert.NoError(t, err)
	require.NoError(t, moved.Close())
	assert.NoError(t, moved.Close())

	contents, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "still open\n", string(contents))

	var nilFile *File
	assert.False(t, nilFile.Valid())
	assert.Equal(t, -1, nilFile.Fd())
	assert.Nil(t, nilFile.Move())
	assert.NoError(t, nilFile.Close())
}

func TestOpenInputMissing(t *testing.T) {
	_, err := OpenInput(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenOutputTruncates(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(name, []byte("old contents"), 0644))

	f, err := OpenOutput(name)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	contents, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestPipe(t *testing.T) {
	r, w, err := Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.OS().WriteString("hi test\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	out, err := io.ReadAll(r.OS())
	require.NoError(t, err)
	assert.Equal(t, "hi test\n", string(out))
}

func TestRedirect(t *testing.T) {
	name := filepath.Join(t.TempDir(), "stdout")
	out, err := OpenOutput(name)
	require.NoError(t, err)

	restore, err := Redirect(nil, out, nil)
	require.NoError(t, err)
	_, writeErr := os.Stdout.WriteString("redirected\n")
	require.NoError(t, restore())
	require.NoError(t, writeErr)

	assert.False(t, out.Valid(), "redirect consumes the handle")

	contents, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "redirected\n", string(contents))
}

func TestDetached(t *testing.T) {
	var term Terminal = Detached{}
	assert.False(t, term.Attached())
	assert.Equal(t, -1, term.Fd())
	assert.NoError(t, term.Give(1))
	assert.NoError(t, term.Reclaim())
}

func TestAcquireTerminalRequiresTTY(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = AcquireTerminal(r)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestWait(t *testing.T) {
	start := func(t *testing.T, script string) *os.Process {
		t.Helper()
		proc, err := os.StartProcess("/bin/sh", []string{"sh", "-c", script}, &os.ProcAttr{
			Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
			Sys:   &syscall.SysProcAttr{Setpgid: true},
		})
		require.NoError(t, err)
		t.Cleanup(func() { proc.Release() })
		return proc
	}

	t.Run("exit code", func(t *testing.T) {
		proc := start(t, "exit 3")
		ws, err := Wait(proc.Pid)
		require.NoError(t, err)
		assert.Equal(t, 3, ExitCode(ws))
	})

	t.Run("killed", func(t *testing.T) {
		proc := start(t, "kill -9 $$")
		ws, err := Wait(proc.Pid)
		require.NoError(t, err)
		assert.Equal(t, 128+9, ExitCode(ws))
	})

	t.Run("stopped", func(t *testing.T) {
		proc := start(t, "kill -STOP $$")
		ws, err := Wait(proc.Pid)
		require.NoError(t, err)
		assert.True(t, ws.Stopped())
		assert.Equal(t, 128+int(syscall.SIGSTOP), ExitCode(ws))

		require.NoError(t, Continue(proc.Pid))
		ws, err = Wait(proc.Pid)
		require.NoError(t, err)
		assert.Equal(t, 0, ExitCode(ws))
	})
}

// ignoredSignals reads the SigIgn mask from a /proc/<pid>/status dump.
func ignoredSignals(t *testing.T, status string) uint64 {
	t.Helper()
	for _, line := range strings.Split(status, "\n") {
		if hex := strings.TrimPrefix(line, "SigIgn:"); hex != line {
			mask, err := strconv.ParseUint(strings.TrimSpace(hex), 16, 64)
			require.NoError(t, err)
			return mask
		}
	}
	t.Fatalf("no SigIgn line in %q", status)
	return 0
}

func sigBit(sig syscall.Signal) uint64 { return 1 << (uint(sig) - 1) }

func TestHandleSignals_childDispositions(t *testing.T) {
	own, err := os.ReadFile("/proc/self/status")
	require.NoError(t, err)
	inherited := ignoredSignals(t, string(own)) & sigBit(syscall.SIGTTOU)

	signals := HandleSignals()
	defer signals.Stop()

	out, err := exec.Command("cat", "/proc/self/status").Output()
	require.NoError(t, err)

	ignored := ignoredSignals(t, string(out))
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP, syscall.SIGTTIN} {
		assert.Zerof(t, ignored&sigBit(sig), "%s is ignored in the child (SigIgn %x)", sig, ignored)
	}
	assert.Equal(t, inherited, ignored&sigBit(syscall.SIGTTOU), "SIGTTOU keeps the disposition the shell started with")
}

func TestTcsetpgrp(t *testing.T) {
	f, err := os.Open(os.DevNull)
	require.NoError(t, err)
	defer f.Close()

	err = Tcsetpgrp(int(f.Fd()), unix.Getpgrp())
	assert.ErrorIs(t, err, unix.ENOTTY)

	called := false
	assert.NoError(t, withTTOUBlocked(func() error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestWriteFifo(t *testing.T) {
	name := filepath.Join(t.TempDir(), "fifo")

	errs := make(chan error, 1)
	go func() {
		errs <- WriteFifo(name, "hello\n")
	}()

	// Opening for read blocks until the writer shows up, so wait for the
	// pipe to exist first.
	require.Eventually(t, func() bool {
		info, err := os.Stat(name)
		return err == nil && info.Mode()&os.ModeNamedPipe != 0
	}, 5*time.Second, 10*time.Millisecond)

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(got))
	assert.NoError(t, <-errs)
}
