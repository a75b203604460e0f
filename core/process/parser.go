package process

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/jsh/core/sys"
)

// ExportBuiltin is the name of the only built-in command.
const ExportBuiltin = "export"

var (
	ErrUnclosedQuote = errors.New("unclosed quotation")
	ErrNoFilename    = errors.New("no filename provided")
	ErrExportSyntax  = errors.New("export: expected name=value")
	ErrEmptyCommand  = errors.New("empty command")
)

type parseState int

const (
	stateRegular parseState = iota
	stateQuote
	stateDblQuote
	stateInputFilename
	stateOutputFilename
)

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

type parser struct {
	stack    []parseState
	arg      strings.Builder
	filename strings.Builder
	args     []string
	streams  Common
}

// Parse converts a single command into a descriptor. Quoting, whitespace
// splitting and '<' / '>' redirections are resolved here; redirection targets
// are opened immediately and owned by the returned descriptor.
func Parse(input string) (Descriptor, error) {
	p := &parser{stack: []parseState{stateRegular}}

	d, err := p.parse(input)
	if err != nil {
		_ = p.streams.Close()
		return nil, err
	}
	return d, nil
}

func (p *parser) top() parseState {
	return p.stack[len(p.stack)-1]
}

func (p *parser) push(s parseState) {
	p.stack = append(p.stack, s)
}

func (p *parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

// buffer is where quoted text goes: the token of the state the quote opened in.
func (p *parser) buffer() *strings.Builder {
	for i := len(p.stack) - 1; i >= 0; i-- {
		switch p.stack[i] {
		case stateInputFilename, stateOutputFilename:
			return &p.filename
		case stateRegular:
			return &p.arg
		}
	}
	return &p.arg
}

func (p *parser) flushArg() {
	if p.arg.Len() == 0 {
		return
	}
	p.args = append(p.args, p.arg.String())
	p.arg.Reset()
}

// openRedirect opens the accumulated filename for the current redirection
// state and returns to the state below it.
func (p *parser) openRedirect() error {
	name := p.filename.String()
	p.filename.Reset()

	state := p.top()
	p.pop()

	if state == stateInputFilename {
		f, err := sys.OpenInput(name)
		if err != nil {
			return err
		}
		p.streams.SetStdin(f)
		return nil
	}

	f, err := sys.OpenOutput(name)
	if err != nil {
		return err
	}
	p.streams.SetStdout(f)
	return nil
}

func redirectState(c byte) parseState {
	if c == '<' {
		return stateInputFilename
	}
	return stateOutputFilename
}

func (p *parser) parse(input string) (Descriptor, error) {
	for i := 0; i < len(input); i++ {
		c := input[i]

		switch p.top() {
		case stateRegular:
			switch {
			case isSpace(c):
				p.flushArg()
			case c == '<', c == '>':
				p.flushArg()
				p.push(redirectState(c))
			case c == '\'':
				p.push(stateQuote)
			case c == '"':
				p.push(stateDblQuote)
			default:
				p.arg.WriteByte(c)
			}

		case stateInputFilename, stateOutputFilename:
			switch {
			case isSpace(c), c == '<', c == '>':
				if p.filename.Len() == 0 {
					if isSpace(c) {
						continue
					}
					return nil, fmt.Errorf("%w before %q", ErrNoFilename, c)
				}
				if err := p.openRedirect(); err != nil {
					return nil, err
				}
				if c == '<' || c == '>' {
					p.push(redirectState(c))
				}
			case c == '\'':
				p.push(stateQuote)
			case c == '"':
				p.push(stateDblQuote)
			default:
				p.filename.WriteByte(c)
			}

		case stateQuote, stateDblQuote:
			closing := byte('\'')
			if p.top() == stateDblQuote {
				closing = '"'
			}
			if c == closing {
				p.pop()
			} else {
				p.buffer().WriteByte(c)
			}
		}
	}

	switch p.top() {
	case stateQuote, stateDblQuote:
		return nil, ErrUnclosedQuote
	case stateInputFilename, stateOutputFilename:
		if p.filename.Len() == 0 {
			return nil, ErrNoFilename
		}
		if err := p.openRedirect(); err != nil {
			return nil, err
		}
	}
	p.flushArg()

	return p.classify()
}

func (p *parser) classify() (Descriptor, error) {
	if len(p.args) == 0 {
		return nil, ErrEmptyCommand
	}

	if p.args[0] != ExportBuiltin {
		return &Binary{Common: p.streams.take(), Args: p.args}, nil
	}

	if len(p.args) < 2 {
		return nil, fmt.Errorf("%w: missing argument", ErrExportSyntax)
	}

	// Both the name and the value must be non-empty.
	assignment := p.args[1]
	eq := strings.IndexByte(assignment, '=')
	if eq <= 0 || eq == len(assignment)-1 {
		return nil, fmt.Errorf("%w: %q", ErrExportSyntax, assignment)
	}

	return &Export{
		Common: p.streams.take(),
		Name:   assignment[:eq],
		Value:  assignment[eq+1:],
	}, nil
}
