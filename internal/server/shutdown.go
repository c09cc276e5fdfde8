package server

import "sync"

// ShutdownSignal is a one-shot stop request. The controller signals it, the
// server manager waits on Done. Signalling more than once, or after the
// server has already exited, is a no-op.
type ShutdownSignal struct {
	once sync.Once
	done chan struct{}
}

// NewShutdownSignal creates an unsignalled ShutdownSignal
func NewShutdownSignal() *ShutdownSignal {
	return &ShutdownSignal{done: make(chan struct{})}
}

// Signal requests shutdown
func (s *ShutdownSignal) Signal() {
	s.once.Do(func() { close(s.done) })
}

// Done is closed once Signal has been called
func (s *ShutdownSignal) Done() <-chan struct{} {
	return s.done
}

// Signalled reports whether Signal has been called
func (s *ShutdownSignal) Signalled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
