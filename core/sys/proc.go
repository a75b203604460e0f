package sys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// NoGroup marks a process group id that has not been assigned yet.
const NoGroup = -1

// Setpgid moves pid into the process group pgid. EACCES means the child has
// already exec'd, by which time it placed itself in the group.
func Setpgid(pid, pgid int) error {
	err := unix.Setpgid(pid, pgid)
	if errors.Is(err, unix.EACCES) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("setpgid %d %d: %w", pid, pgid, err)
	}
	return nil
}

// Continue sends SIGCONT to every process in the group.
func Continue(pgid int) error {
	if err := unix.Kill(-pgid, unix.SIGCONT); err != nil {
		return fmt.Errorf("kill -CONT -%d: %w", pgid, err)
	}
	return nil
}

// Wait blocks until pid exits or stops.
func Wait(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return ws, fmt.Errorf("wait %d: %w", pid, err)
		}
		if wpid != pid {
			return ws, fmt.Errorf("waited on pid %d but got %d", pid, wpid)
		}
		return ws, nil
	}
}

// ExitCode converts a wait status into a shell exit status: the exit code, or
// 128 plus the number of the signal that killed or stopped the process.
func ExitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	case ws.Stopped():
		return 128 + int(ws.StopSignal())
	default:
		return 1
	}
}
