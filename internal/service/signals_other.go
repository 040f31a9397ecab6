//go:build !linux && !darwin

package service

import (
	"context"
	"os"
)

func platformSignals() []os.Signal {
	return nil
}

func (s *Service) handlePlatformSignal(_ context.Context, _ os.Signal) bool {
	return false
}
