// Package job splits an input line on control operators and executes the
// resulting chain of pipelines.
package job

import (
	"sort"
	"strings"

	"github.com/josephlewis42/jsh/core/process"
)

// Operator joins two commands in a job.
type Operator int

const (
	// And runs the right side only if the left side succeeded.
	And Operator = iota
	// Pipe connects the left side's output to the right side's input.
	Pipe
)

var operatorText = map[Operator]string{
	And:  "&&",
	Pipe: "|",
}

// operators in scanning order.
var operators = []Operator{And, Pipe}

func (o Operator) String() string {
	return operatorText[o]
}

// Job is one input line split into commands.
type Job struct {
	// Inputs holds the raw command text between operators.
	Inputs []string
	// Operators[i] joins Inputs[i] and Inputs[i+1].
	Operators []Operator
	// Processes are the parsed Inputs, filled in by the Executor.
	Processes []process.Descriptor

	Foreground bool
	// Group is the process group of the pipeline currently running.
	Group *process.Group
}

type occurrence struct {
	offset int
	op     Operator
}

// Parse splits input on every "&&" and "|". It never fails: operators at the
// edges or next to each other produce empty commands.
func Parse(input string) *Job {
	var found []occurrence
	for _, op := range operators {
		text := op.String()
		for from := 0; ; {
			idx := strings.Index(input[from:], text)
			if idx < 0 {
				break
			}
			found = append(found, occurrence{offset: from + idx, op: op})
			from += idx + len(text)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	j := &Job{
		Foreground: true,
		Group:      process.NewGroup(),
	}

	start := 0
	for _, o := range found {
		j.Inputs = append(j.Inputs, input[start:o.offset])
		j.Operators = append(j.Operators, o.op)
		start = o.offset + len(o.op.String())
	}
	j.Inputs = append(j.Inputs, input[start:])

	return j
}

// String joins the inputs back together with their operators.
func (j *Job) String() string {
	var b strings.Builder
	for i, in := range j.Inputs {
		if i > 0 {
			b.WriteString(j.Operators[i-1].String())
		}
		b.WriteString(in)
	}
	return b.String()
}

// Close releases the streams of every parsed process. Processes that already
// ran have nothing left to release.
func (j *Job) Close() error {
	var firstErr error
	for _, p := range j.Processes {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
