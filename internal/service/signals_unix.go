//go:build linux || darwin

package service

import (
	"context"
	"os"
	"syscall"
)

func platformSignals() []os.Signal {
	base := []os.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP}
	return append(base, osSignals()...)
}

func (s *Service) handlePlatformSignal(ctx context.Context, sig os.Signal) bool {
	switch sig {
	case syscall.SIGUSR1:
		s.pause()
	case syscall.SIGUSR2:
		s.resume()
	case syscall.SIGHUP:
		s.reloadConfig()
	default:
		return s.handleOSSignal(ctx, sig)
	}
	return true
}
