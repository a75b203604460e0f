package sys

import (
	"os"
	"os/signal"
	"syscall"
)

// Signals holds the shell's job-control signal dispositions. The shell
// catches SIGINT for itself and discards SIGQUIT, SIGTSTP and SIGTTIN.
//
// Nothing is ignored: caught signals revert to their default action in every
// exec'd child, ignored ones would not. SIGTTOU keeps its default action and
// is blocked only around the shell's own terminal handoffs, see Tcsetpgrp.
type Signals struct {
	interrupts chan os.Signal
	discard    chan os.Signal
}

// HandleSignals installs the shell's dispositions.
func HandleSignals() *Signals {
	s := &Signals{
		interrupts: make(chan os.Signal, 1),
		discard:    make(chan os.Signal, 8),
	}

	signal.Notify(s.interrupts, syscall.SIGINT)
	signal.Notify(s.discard, syscall.SIGQUIT, syscall.SIGTSTP, syscall.SIGTTIN)

	go func() {
		for range s.discard {
		}
	}()

	return s
}

// Interrupts delivers SIGINTs received by the shell itself.
func (s *Signals) Interrupts() <-chan os.Signal {
	return s.interrupts
}

// Stop restores the default dispositions.
func (s *Signals) Stop() {
	signal.Stop(s.interrupts)
	signal.Stop(s.discard)
	close(s.discard)
}
