//go:build linux

package service

import (
	"context"
	"os"
	"syscall"
)

func osSignals() []os.Signal {
	return []os.Signal{syscall.SIGPWR}
}

func (s *Service) handleOSSignal(_ context.Context, sig os.Signal) bool {
	if sig == syscall.SIGPWR {
		// Power state changed (suspend or resume); the network watchdog will
		// pick up any resulting connectivity change on its next probe.
		s.log.Infof("received power event signal")
		return true
	}
	return false
}
