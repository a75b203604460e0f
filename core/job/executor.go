package job

import (
	"errors"
	"fmt"

	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/josephlewis42/jsh/core/process"
	"github.com/josephlewis42/jsh/core/sys"
)

// Executor runs jobs through a process.Launcher.
type Executor struct {
	Launcher *process.Launcher
	Log      *logger.Logger
}

// NewExecutor creates an executor that logs through the launcher's logger.
func NewExecutor(launcher *process.Launcher) *Executor {
	return &Executor{
		Launcher: launcher,
		Log:      launcher.Log,
	}
}

// Execute parses every command of the job, then runs it one pipeline at a
// time. A pipeline is a run of commands joined by "|"; all of its stages are
// started before any is waited on, and they share one process group. A
// pipeline after "&&" only runs if "?" holds the success status.
//
// A parse error anywhere abandons the whole job before anything runs. A
// command that can't be found only fails its own stage.
func (e *Executor) Execute(j *Job) error {
	defer j.Close()

	if err := e.parse(j); err != nil {
		e.Log.Errorf("%v", err)
		return err
	}

	for start := 0; start < len(j.Processes); {
		end := start
		for end < len(j.Operators) && j.Operators[end] == Pipe {
			end++
		}

		if err := e.runPipeline(j, j.Processes[start:end+1]); err != nil {
			return err
		}

		if end == len(j.Operators) {
			break
		}
		if !env.Succeeded(e.Launcher.Env) {
			e.Log.Debugf("skipping %q, status was %s", j.Inputs[end+1], e.Launcher.Env.Getenv(env.StatusVar))
			break
		}
		start = end + 1
	}

	return nil
}

func (e *Executor) parse(j *Job) error {
	for _, input := range j.Inputs {
		d, err := process.Parse(input)
		if err != nil {
			return fmt.Errorf("parsing %q: %w", input, err)
		}
		j.Processes = append(j.Processes, d)
	}
	return nil
}

// runPipeline starts every stage, waits for all of them and leaves the last
// stage's status in "?".
func (e *Executor) runPipeline(j *Job, stages []process.Descriptor) error {
	// A group can't be joined once its leader is reaped, so every pipeline
	// gets a fresh one.
	j.Group = process.NewGroup()

	statuses := make([]int, len(stages))
	children := make([]*process.Child, len(stages))

	var launchErr error
	for i, d := range stages {
		base := d.Base()
		base.Group = j.Group
		base.Foreground = j.Foreground

		if i < len(stages)-1 {
			r, w, err := sys.Pipe()
			if err != nil {
				e.Log.Errorf("%v", err)
				launchErr = err
				break
			}
			base.SetStdout(w)
			stages[i+1].Base().SetStdin(r)
		}

		child, err := e.Launcher.Start(d)
		children[i] = child

		var execErr *process.ExecError
		switch {
		case errors.As(err, &execErr):
			statuses[i] = execErr.Status
		case err != nil && child == nil:
			statuses[i] = 1
		case err != nil:
			launchErr = err
		}
		if launchErr != nil {
			break
		}
	}

	// Stages that never started must drop their pipe ends so the ones that
	// did see EOF or EPIPE instead of blocking forever.
	for _, d := range stages {
		_ = d.Close()
	}

	var waitErr error
	for i, child := range children {
		if child == nil {
			continue
		}
		status, err := e.Launcher.Wait(child)
		if err != nil {
			status = 1
			if waitErr == nil {
				waitErr = err
			}
		}
		statuses[i] = status
	}

	if j.Foreground && j.Group.ID != sys.NoGroup {
		_ = e.Launcher.Reclaim()
	}

	status := statuses[len(statuses)-1]
	if launchErr != nil {
		status = 1
	}
	if err := env.SetStatus(e.Launcher.Env, status); err != nil {
		return err
	}
	if launchErr != nil {
		return launchErr
	}
	return waitErr
}
