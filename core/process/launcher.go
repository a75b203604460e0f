package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/josephlewis42/jsh/core/sys"
)

const (
	// ExitNotExecutable is the status of a command that was found but could
	// not be run.
	ExitNotExecutable = 126

	// ExitNotFound is the status of a command that could not be found.
	ExitNotFound = 127
)

// ErrExec is matched by every *ExecError.
var ErrExec = errors.New("couldn't execute")

// ExecError is returned when a binary could not be started. Status is the
// exit status recorded for it.
type ExecError struct {
	Name   string
	Status int
	Err    error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrExec, e.Name, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

func (e *ExecError) Is(target error) bool { return target == ErrExec }

// Launcher starts descriptors on behalf of a shell session.
type Launcher struct {
	Env      env.Store
	Terminal sys.Terminal
	Log      *logger.Logger
}

// NewLauncher creates a launcher. A nil terminal is treated as detached and
// a nil logger discards everything.
func NewLauncher(store env.Store, terminal sys.Terminal, log *logger.Logger) *Launcher {
	if terminal == nil {
		terminal = sys.Detached{}
	}
	if log == nil {
		log = logger.Discard()
	}

	return &Launcher{
		Env:      store,
		Terminal: terminal,
		Log:      log,
	}
}

// Child is a started binary that has not been waited on yet.
type Child struct {
	Pid  int
	Args []string

	proc *os.Process
}

// Start launches d. Binaries are forked and returned as a Child that must be
// passed to Wait; the export built-in runs to completion in the shell and
// yields a nil Child. Either way the descriptor's streams are consumed.
func (l *Launcher) Start(d Descriptor) (*Child, error) {
	switch d := d.(type) {
	case *Binary:
		return l.startBinary(d)
	case *Export:
		return nil, l.runExport(d)
	default:
		panic(fmt.Sprintf("unknown descriptor type %T", d))
	}
}

// Execute runs d to completion: Start, then Wait, then hand the terminal
// back to the shell if d ran in the foreground.
func (l *Launcher) Execute(d Descriptor) error {
	child, err := l.Start(d)
	if child == nil {
		return err
	}

	if _, werr := l.Wait(child); err == nil {
		err = werr
	}
	if d.Base().Foreground {
		if rerr := l.Reclaim(); err == nil {
			err = rerr
		}
	}
	return err
}

func stream(f *sys.File, inherit *os.File) *os.File {
	if f.Valid() {
		return f.OS()
	}
	return inherit
}

func lookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if errors.Is(err, exec.ErrDot) {
		return path, nil
	}
	return path, err
}

func (l *Launcher) startBinary(b *Binary) (*Child, error) {
	// The child holds its own copies after the fork.
	defer b.Close()

	name := b.Args[0]
	if b.Group == nil {
		b.Group = NewGroup()
	}

	path, err := lookPath(name)
	if err != nil {
		return nil, l.execFailed(name, err)
	}

	attr := &os.ProcAttr{
		Env: l.Env.Environ(),
		Files: []*os.File{
			stream(b.Stdin, os.Stdin),
			stream(b.Stdout, os.Stdout),
			stream(b.Stderr, os.Stderr),
		},
	}

	// Without a terminal to hand over, children stay in the shell's own
	// process group so they keep whatever foreground status it has.
	if !l.Terminal.Attached() {
		proc, err := os.StartProcess(path, b.Args, attr)
		if err != nil {
			return nil, l.execFailed(name, err)
		}
		l.Log.Debugf("started %q as pid %d", name, proc.Pid)
		return &Child{Pid: proc.Pid, Args: b.Args, proc: proc}, nil
	}

	pgid := b.Group.ID
	if pgid == sys.NoGroup {
		pgid = 0
	}
	attr.Sys = &syscall.SysProcAttr{
		Setpgid:    true,
		Pgid:       pgid,
		Foreground: b.Foreground,
		Ctty:       l.Terminal.Fd(),
	}

	proc, err := os.StartProcess(path, b.Args, attr)
	if err != nil {
		return nil, l.execFailed(name, err)
	}

	if b.Group.ID == sys.NoGroup {
		b.Group.ID = proc.Pid
	}
	child := &Child{Pid: proc.Pid, Args: b.Args, proc: proc}
	l.Log.Debugf("started %q as pid %d in group %d", name, proc.Pid, b.Group.ID)

	// The child already did all of this before exec. Repeating it here
	// closes the race where the shell moves on before the child runs.
	if err := sys.Setpgid(proc.Pid, b.Group.ID); err != nil {
		l.Log.Errorf("%s: %v", name, err)
		return child, err
	}
	if b.Foreground {
		if err := l.Terminal.Give(b.Group.ID); err != nil {
			l.Log.Errorf("%s: %v", name, err)
			return child, err
		}
	}
	if err := sys.Continue(b.Group.ID); err != nil {
		l.Log.Errorf("%s: %v", name, err)
		return child, err
	}
	return child, nil
}

func (l *Launcher) execFailed(name string, err error) error {
	code := ExitNotFound
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.ENOEXEC) || errors.Is(err, syscall.EISDIR) {
		code = ExitNotExecutable
	}

	l.Log.Errorf("%s: %v", name, err)
	if serr := env.SetStatus(l.Env, code); serr != nil {
		l.Log.Errorf("setting status: %v", serr)
	}
	return &ExecError{Name: name, Status: code, Err: err}
}

// Wait blocks until the child exits or stops, records its status in "?" and
// returns it.
func (l *Launcher) Wait(c *Child) (int, error) {
	defer c.proc.Release()

	ws, err := sys.Wait(c.Pid)
	if err != nil {
		l.Log.Errorf("%s: %v", c.Args[0], err)
		return 0, err
	}

	code := sys.ExitCode(ws)
	if ws.Stopped() {
		l.Log.Warnf("%s: stopped by %s, job control for stopped processes is not supported", c.Args[0], ws.StopSignal())
	}
	l.Log.Debugf("pid %d (%s) finished with status %d", c.Pid, c.Args[0], code)

	return code, env.SetStatus(l.Env, code)
}

// Reclaim hands the terminal back to the shell.
func (l *Launcher) Reclaim() error {
	if !l.Terminal.Attached() {
		return nil
	}
	if err := l.Terminal.Reclaim(); err != nil {
		l.Log.Errorf("reclaiming terminal: %v", err)
		return err
	}
	return nil
}

// runExport sets the variable inside the shell with the descriptor's
// redirections applied for the duration of the assignment.
func (l *Launcher) runExport(e *Export) error {
	defer e.Close()

	restore, err := sys.Redirect(e.Stdin, e.Stdout, e.Stderr)
	defer func() {
		if err := restore(); err != nil {
			l.Log.Errorf("%s: restoring streams: %v", ExportBuiltin, err)
		}
	}()
	if err != nil {
		l.Log.Errorf("%s: %v", ExportBuiltin, err)
		_ = env.SetStatus(l.Env, 1)
		return err
	}

	if err := l.Env.Setenv(e.Name, e.Value); err != nil {
		l.Log.Errorf("%s: %v", ExportBuiltin, err)
		_ = env.SetStatus(l.Env, 1)
		return err
	}
	return env.SetStatus(l.Env, 0)
}
