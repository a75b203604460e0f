// Package process turns one command string into a process descriptor and
// launches it.
package process

import (
	"github.com/josephlewis42/jsh/core/sys"
)

// Group is the process group shared by the stages of a pipeline. ID stays
// sys.NoGroup until the first stage starts and adopts that stage's pid.
type Group struct {
	ID int
}

// NewGroup creates an unassigned group.
func NewGroup() *Group {
	return &Group{ID: sys.NoGroup}
}

// Common holds what every descriptor carries regardless of its kind. A nil
// stream inherits the shell's stream.
type Common struct {
	Stdin  *sys.File
	Stdout *sys.File
	Stderr *sys.File

	Group      *Group
	Foreground bool
}

// Base implements Descriptor.Base.
func (c *Common) Base() *Common { return c }

// SetStdin replaces the input stream, closing the one it replaces.
func (c *Common) SetStdin(f *sys.File) {
	_ = c.Stdin.Close()
	c.Stdin = f
}

// SetStdout replaces the output stream, closing the one it replaces.
func (c *Common) SetStdout(f *sys.File) {
	_ = c.Stdout.Close()
	c.Stdout = f
}

// SetStderr replaces the error stream, closing the one it replaces.
func (c *Common) SetStderr(f *sys.File) {
	_ = c.Stderr.Close()
	c.Stderr = f
}

// take moves the streams out of c, leaving it empty.
func (c *Common) take() Common {
	return Common{
		Stdin:      c.Stdin.Move(),
		Stdout:     c.Stdout.Move(),
		Stderr:     c.Stderr.Move(),
		Group:      c.Group,
		Foreground: c.Foreground,
	}
}

// Close releases every stream the descriptor still owns.
func (c *Common) Close() error {
	var firstErr error
	for _, f := range []*sys.File{c.Stdin, c.Stdout, c.Stderr} {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Descriptor is a parsed command: either a *Binary or an *Export.
type Descriptor interface {
	Base() *Common
	Close() error

	isDescriptor()
}

// Binary runs an executable. Args[0] is the program name.
type Binary struct {
	Common
	Args []string
}

func (*Binary) isDescriptor() {}

// Export assigns Value to the environment variable Name.
type Export struct {
	Common
	Name  string
	Value string
}

func (*Export) isDescriptor() {}

var (
	_ Descriptor = (*Binary)(nil)
	_ Descriptor = (*Export)(nil)
)
