// Package parsing performs the textual rewrites applied to a line before it
// is split into jobs.
package parsing

import (
	"strings"

	"github.com/josephlewis42/jsh/core/env"
)

// DefaultMaxSubstitutions bounds the number of replacements made on one line
// so that self-referencing variables cannot expand forever.
const DefaultMaxSubstitutions = 1000000

// PeekChar returns the byte at index or false if the index is out of range.
func PeekChar(s string, index int) (byte, bool) {
	if index < 0 || index >= len(s) {
		return 0, false
	}
	return s[index], true
}

// Substitute replaces every ${name} in input with the variable's value.
//
// Undefined variables expand to the empty string. A '$' not followed by '{'
// is plain text. An unterminated ${ leaves the rest of the input untouched.
// Scanning resumes at the start of each inserted value, so values that
// reference other variables are expanded too; at most maxPasses replacements
// are made and anything left over is returned unexpanded.
func Substitute(input string, vars env.Getter, maxPasses int) string {
	out := input
	pos := 0

	for passes := 0; passes < maxPasses; {
		idx := strings.IndexByte(out[pos:], '$')
		if idx < 0 {
			return out
		}
		start := pos + idx

		if next, ok := PeekChar(out, start+1); !ok || next != '{' {
			pos = start + 1
			continue
		}

		end := strings.IndexByte(out[start+2:], '}')
		if end < 0 {
			return out
		}
		end += start + 2

		name := out[start+2 : end]
		out = out[:start] + vars.Getenv(name) + out[end+1:]
		pos = start
		passes++
	}

	return out
}
