package core

import "github.com/josephlewis42/jsh/core/process"

// Builtin is a command the shell handles itself instead of running a binary.
type Builtin struct {
	Name    string
	Usage   string
	Summary string
}

// AllBuiltins holds every built-in, in the order they're documented.
var AllBuiltins = []Builtin{
	{
		Name:    process.ExportBuiltin,
		Usage:   "export NAME=VALUE",
		Summary: "Set NAME to VALUE in the environment of the shell and the commands it runs.",
	},
	{
		Name:    ExitKeyword,
		Usage:   "exit",
		Summary: "Leave the shell with status 0.",
	},
}
