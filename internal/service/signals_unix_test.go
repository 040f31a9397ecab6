//go:build linux || darwin

package service

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlePlatformSignal_PauseAndResume(t *testing.T) {
	// Arrange
	h := newLoopHarness()
	h.svc.state.Running = true

	// Act
	handled := h.svc.handlePlatformSignal(context.Background(), syscall.SIGUSR1)

	// Assert
	assert.True(t, handled)
	assert.True(t, h.svc.state.Paused)
	assert.Contains(t, h.notifier.statuses, "Service paused")

	// Act: resume.
	handled = h.svc.handlePlatformSignal(context.Background(), syscall.SIGUSR2)

	assert.True(t, handled)
	assert.False(t, h.svc.state.Paused)
	assert.Contains(t, h.notifier.statuses, "Service resumed")
}

func TestHandlePlatformSignal_PauseIdempotent(t *testing.T) {
	h := newLoopHarness()

	h.svc.handlePlatformSignal(context.Background(), syscall.SIGUSR1)
	h.svc.handlePlatformSignal(context.Background(), syscall.SIGUSR1)

	assert.True(t, h.svc.state.Paused)
	count := 0
	for _, status := range h.notifier.statuses {
		if status == "Service paused" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestHandlePlatformSignal_ReloadOnHangup(t *testing.T) {
	h := newLoopHarness()

	handled := h.svc.handlePlatformSignal(context.Background(), syscall.SIGHUP)

	assert.True(t, handled)
	assert.Equal(t, 1, h.settings.reloadCalls)
	assert.Contains(t, h.notifier.statuses, "Configuration reloaded")
}
