// Package logger is the leveled diagnostic logger for the shell. Diagnostics
// are written to their own stream so they never mix with command output.
package logger
