package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	StdinFd  = 0
	StdoutFd = 1
	StderrFd = 2
)

type savedStream struct {
	target int
	saved  int
}

// Redirect points the shell's own standard streams at the given handles for
// the duration of an in-process built-in. Non-nil handles are consumed. The
// returned function puts the original streams back and must always be called.
func Redirect(stdin, stdout, stderr *File) (restore func() error, err error) {
	var saved []savedStream

	restore = func() error {
		var firstErr error
		for i := len(saved) - 1; i >= 0; i-- {
			s := saved[i]
			if err := unix.Dup3(s.saved, s.target, 0); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("restore fd %d: %w", s.target, err)
			}
			if err := unix.Close(s.saved); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close saved fd %d: %w", s.saved, err)
			}
		}
		saved = nil
		return firstErr
	}

	for _, r := range []struct {
		target int
		handle *File
	}{
		{StdinFd, stdin},
		{StdoutFd, stdout},
		{StderrFd, stderr},
	} {
		// A handle that already is the target stream has nothing to do.
		if !r.handle.Valid() || r.handle.Fd() == r.target {
			continue
		}

		orig, err := unix.FcntlInt(uintptr(r.target), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			closeAll(stdin, stdout, stderr)
			return restore, fmt.Errorf("save fd %d: %w", r.target, err)
		}
		saved = append(saved, savedStream{target: r.target, saved: orig})

		if err := unix.Dup3(r.handle.Fd(), r.target, 0); err != nil {
			closeAll(stdin, stdout, stderr)
			return restore, fmt.Errorf("dup fd %d: %w", r.target, err)
		}

		if err := r.handle.Close(); err != nil {
			closeAll(stdin, stdout, stderr)
			return restore, err
		}
	}

	return restore, nil
}

func closeAll(files ...*File) {
	for _, f := range files {
		_ = f.Close()
	}
}
