package sys

import (
	"fmt"
	"os"
)

// OutputPerm is the permission a redirection target is created with, before
// the umask is applied.
const OutputPerm = 0666

// File is an owned OS handle. A handle has exactly one owner at a time; a nil
// *File stands for "inherit the shell's stream".
type File struct {
	f *os.File
}

// NewFile takes ownership of f.
func NewFile(f *os.File) *File {
	if f == nil {
		return nil
	}
	return &File{f: f}
}

// Valid reports whether the handle is still open and owned.
func (f *File) Valid() bool {
	return f != nil && f.f != nil
}

// OS returns the underlying file without giving up ownership.
func (f *File) OS() *os.File {
	if f == nil {
		return nil
	}
	return f.f
}

// Fd returns the descriptor number or -1.
func (f *File) Fd() int {
	if !f.Valid() {
		return -1
	}
	return int(f.f.Fd())
}

// Name returns the name the file was opened with.
func (f *File) Name() string {
	if !f.Valid() {
		return ""
	}
	return f.f.Name()
}

// Move transfers ownership to the returned handle and leaves f empty.
func (f *File) Move() *File {
	if !f.Valid() {
		return nil
	}
	out := &File{f: f.f}
	f.f = nil
	return out
}

// Close releases the handle. It is safe on nil and on closed handles.
func (f *File) Close() error {
	if !f.Valid() {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

// Pipe creates an anonymous pipe and returns its read and write ends.
func Pipe() (r, w *File, err error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("pipe: %w", err)
	}
	return NewFile(pr), NewFile(pw), nil
}

// OpenInput opens an existing file for reading.
func OpenInput(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return NewFile(f), nil
}

// OpenOutput creates or truncates a file for writing.
func OpenOutput(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, OutputPerm)
	if err != nil {
		return nil, err
	}
	return NewFile(f), nil
}
