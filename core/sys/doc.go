// Package sys wraps the operating system calls the shell needs for job
// control: owned file handles, pipes, stream redirection, process groups,
// terminal ownership and signal dispositions.
//
// Every wrapper reports failure as an error; callers abandon the operation in
// progress rather than the shell.
package sys
