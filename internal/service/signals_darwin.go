//go:build darwin

package service

import (
	"context"
	"os"
	"syscall"
)

func osSignals() []os.Signal {
	return []os.Signal{syscall.SIGINFO}
}

func (s *Service) handleOSSignal(_ context.Context, sig os.Signal) bool {
	if sig == syscall.SIGINFO {
		s.logStatus()
		return true
	}
	return false
}
