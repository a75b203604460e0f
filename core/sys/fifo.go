package sys

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FifoPerm is the mode named pipes are created with, before the umask.
const FifoPerm = 0666

// WriteFifo creates the named pipe name if it doesn't exist yet and writes
// message into it. It blocks until a reader opens the other end.
func WriteFifo(name, message string) error {
	if err := unix.Mkfifo(name, FifoPerm); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("mkfifo %s: %w", name, err)
	}

	f, err := os.OpenFile(name, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(message); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
