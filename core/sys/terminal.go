package sys

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when the shell is not attached to a terminal.
var ErrNotTerminal = errors.New("not running interactively: stdin is not a terminal")

// Terminal decides who owns the controlling terminal while jobs run.
type Terminal interface {
	// Attached reports whether foreground jobs are handed the terminal.
	Attached() bool
	// Fd is the terminal descriptor in the shell, or -1 when detached.
	Fd() int
	// Give makes pgid the terminal's foreground process group.
	Give(pgid int) error
	// Reclaim returns the terminal to the shell and reapplies its saved
	// attributes.
	Reclaim() error
}

// Tcgetpgrp returns the foreground process group of the terminal.
func Tcgetpgrp(fd int) (int, error) {
	return unix.IoctlGetInt(fd, unix.TIOCGPGRP)
}

// Tcsetpgrp makes pgid the foreground process group of the terminal. It
// works from a background process group too: SIGTTOU is blocked on the
// calling thread for the duration of the call.
func Tcsetpgrp(fd, pgid int) error {
	return withTTOUBlocked(func() error {
		return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
	})
}

// ttouBit is the position of SIGTTOU in a signal set.
const ttouBit = uint(unix.SIGTTOU - 1)

// withTTOUBlocked runs fn on a dedicated OS thread with SIGTTOU blocked. The
// kernel lets a background process change the terminal when the signal is
// blocked, and the process-wide disposition (which children inherit) stays
// untouched.
func withTTOUBlocked(fn func() error) error {
	errc := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var set, old unix.Sigset_t
		set.Val[ttouBit/64] |= 1 << (ttouBit % 64)
		if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &old); err != nil {
			errc <- fmt.Errorf("block SIGTTOU: %w", err)
			return
		}

		err := fn()
		if rerr := unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil); rerr != nil && err == nil {
			err = fmt.Errorf("unblock SIGTTOU: %w", rerr)
		}
		errc <- err
	}()
	return <-errc
}

// TTY is the controlling terminal of an interactive shell along with the
// attribute snapshot taken when the shell started.
type TTY struct {
	file  *os.File
	fd    int
	pgid  int
	state *term.State
}

var _ Terminal = (*TTY)(nil)

// AcquireTerminal waits until the shell is in the foreground of the terminal
// f, moves the shell into its own process group, takes the terminal and
// snapshots its attributes.
func AcquireTerminal(f *os.File) (*TTY, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	for {
		foreground, err := Tcgetpgrp(fd)
		if err != nil {
			return nil, fmt.Errorf("tcgetpgrp: %w", err)
		}
		own := unix.Getpgrp()
		if foreground == own {
			break
		}
		// Stop until someone puts us in the foreground.
		if err := unix.Kill(-own, unix.SIGTTIN); err != nil {
			return nil, fmt.Errorf("kill: %w", err)
		}
	}

	pid := unix.Getpid()
	// Session leaders already lead their group and may not call setpgid.
	if err := unix.Setpgid(pid, pid); err != nil && unix.Getpgrp() != pid {
		return nil, fmt.Errorf("failed to set process group id: %w", err)
	}

	if err := Tcsetpgrp(fd, pid); err != nil {
		return nil, fmt.Errorf("failed to grab control of terminal: %w", err)
	}

	state, err := term.GetState(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to get terminal attributes: %w", err)
	}

	return &TTY{
		file:  f,
		fd:    fd,
		pgid:  pid,
		state: state,
	}, nil
}

// Attached implements Terminal.Attached.
func (t *TTY) Attached() bool { return true }

// Fd implements Terminal.Fd.
func (t *TTY) Fd() int { return t.fd }

// Pgid is the shell's own process group.
func (t *TTY) Pgid() int { return t.pgid }

// Give implements Terminal.Give.
func (t *TTY) Give(pgid int) error {
	if err := Tcsetpgrp(t.fd, pgid); err != nil {
		return fmt.Errorf("tcsetpgrp %d: %w", pgid, err)
	}
	return nil
}

// Reclaim implements Terminal.Reclaim.
func (t *TTY) Reclaim() error {
	return withTTOUBlocked(func() error {
		if err := unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, t.pgid); err != nil {
			return fmt.Errorf("tcsetpgrp %d: %w", t.pgid, err)
		}
		if err := term.Restore(t.fd, t.state); err != nil {
			return fmt.Errorf("restore terminal attributes: %w", err)
		}
		return nil
	})
}

// Detached is used when the shell has no controlling terminal, for example
// when running a single command line. Children stay in the background of
// whatever terminal there is.
type Detached struct{}

var _ Terminal = Detached{}

func (Detached) Attached() bool { return false }
func (Detached) Fd() int        { return -1 }
func (Detached) Give(int) error { return nil }
func (Detached) Reclaim() error { return nil }
