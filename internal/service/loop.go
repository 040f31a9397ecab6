package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mailbear/mailbear/interfaces"
	mberrors "github.com/mailbear/mailbear/internal/errors"
	"github.com/mailbear/mailbear/internal/logger"
)

const (
	defaultConfigCheckInterval  = 30 * time.Second
	defaultNetworkCheckInterval = 60 * time.Second
	defaultPauseSleep           = 5 * time.Second
	defaultOfflineSleep         = 30 * time.Second
	defaultErrorBackoff         = 30 * time.Second
	defaultMaxConsecutiveErrors = 5

	// maxBackoffStep caps how long one tick sleeps during error backoff so
	// signals keep being serviced promptly.
	maxBackoffStep = 5 * time.Second
)

// cycler is the slice of the processing engine the service loop drives.
type cycler interface {
	RunCycle(ctx context.Context) (int, error)
	Authenticate(ctx context.Context, forceRefresh bool) error
}

// Service is the long-lived daemon loop: one poll cycle per tick, with config
// and network watchdogs, signal control, and error backoff in between.
type Service struct {
	engine   cycler
	settings interfaces.SettingsProvider
	notifier interfaces.Notifier
	log      logger.Logger

	state State

	configCheckInterval  time.Duration
	networkCheckInterval time.Duration
	pauseSleep           time.Duration
	offlineSleep         time.Duration
	errorBackoff         time.Duration
	maxConsecutiveErrors int

	signals chan os.Signal

	now          func() time.Time
	checkNetwork func() bool
	tick         func(ctx context.Context, d time.Duration) bool
}

func New(eng cycler, settings interfaces.SettingsProvider, notifier interfaces.Notifier, log logger.Logger) *Service {
	return &Service{
		engine:   eng,
		settings: settings,
		notifier: notifier,
		log:      log,

		configCheckInterval:  defaultConfigCheckInterval,
		networkCheckInterval: defaultNetworkCheckInterval,
		pauseSleep:           defaultPauseSleep,
		offlineSleep:         defaultOfflineSleep,
		errorBackoff:         defaultErrorBackoff,
		maxConsecutiveErrors: defaultMaxConsecutiveErrors,

		// Buffered so a burst of signals between drains is not lost.
		signals: make(chan os.Signal, 8),

		now:          time.Now,
		checkNetwork: CheckConnectivity,
		tick: func(ctx context.Context, d time.Duration) bool {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(d):
				return true
			}
		},
	}
}

// Run drives the service until a termination signal or context cancellation.
// Each iteration services pending signals, runs the watchdogs, and then
// either sleeps (paused, offline, backing off) or runs exactly one poll
// cycle followed by the poll-interval sleep.
func (s *Service) Run(ctx context.Context) error {
	s.state = State{
		Running:          true,
		NetworkAvailable: true,
		StartedAt:        s.now(),
	}

	signal.Notify(s.signals, s.watchedSignals()...)
	defer signal.Stop(s.signals)

	s.log.Info("service started")
	s.notifier.NotifyServiceStatus("Service started")

	for s.state.Running {
		if ctx.Err() != nil {
			break
		}
		s.drainSignals(ctx)
		if !s.state.Running {
			break
		}

		s.checkConfig()
		s.checkNetworkStatus(ctx)

		if s.state.Paused {
			s.sleepInterruptible(ctx, s.pauseSleep)
			continue
		}
		if !s.state.NetworkAvailable {
			s.sleepInterruptible(ctx, s.offlineSleep)
			continue
		}

		if s.state.ConsecutiveErrors >= s.maxConsecutiveErrors {
			remaining := s.errorBackoff - s.now().Sub(s.state.LastErrorTime)
			if remaining > 0 {
				if remaining > maxBackoffStep {
					remaining = maxBackoffStep
				}
				s.sleepInterruptible(ctx, remaining)
				continue
			}
			// The counter is reset only by a successful cycle, so a cycle
			// that fails again here opens a fresh backoff window instead of
			// restoring full-rate polling.
			s.log.Info("error backoff elapsed, attempting another cycle")
		}

		s.runCycle(ctx)
		s.sleepInterruptible(ctx, s.settings.PollInterval())
	}

	s.log.Info("service stopped")
	s.notifier.NotifyServiceStatus("Service stopped")
	return nil
}

// runCycle executes one guarded poll cycle. A panic inside the cycle is
// contained here and treated as hitting the error threshold, so the loop
// backs off instead of dying.
func (s *Service) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("recovered from panic in poll cycle: %v", r)
			if s.state.ConsecutiveErrors < s.maxConsecutiveErrors {
				s.state.ConsecutiveErrors = s.maxConsecutiveErrors
			}
			s.state.LastErrorTime = s.now()
		}
	}()

	count, err := s.engine.RunCycle(ctx)
	if err != nil {
		if mberrors.IsConfiguration(err) {
			// Not transient; wait for a config reload instead of backing off.
			s.log.Errorf("configuration problem, waiting for reload: %v", err)
			return
		}
		s.state.ConsecutiveErrors++
		s.state.LastErrorTime = s.now()
		s.log.Errorf("error in poll cycle (consecutive failures: %d): %v", s.state.ConsecutiveErrors, err)
		if s.state.ConsecutiveErrors == s.maxConsecutiveErrors {
			msg := fmt.Sprintf("Multiple consecutive errors (%d). Backing off for %s.",
				s.state.ConsecutiveErrors, s.errorBackoff)
			s.log.Error(msg)
			s.notifier.NotifyError(msg)
		}
		return
	}

	s.state.ConsecutiveErrors = 0
	if count > 0 {
		s.state.ProcessedTotal += count
		s.notifier.NotifyNewEmails(count)
	}
}

// checkConfig reloads the settings file when its mtime moved, at most once
// per check interval.
func (s *Service) checkConfig() {
	if s.now().Sub(s.state.LastConfigCheck) < s.configCheckInterval {
		return
	}
	s.state.LastConfigCheck = s.now()

	reloaded, err := s.settings.ReloadIfChanged()
	if err != nil {
		s.log.Errorf("error reloading configuration: %v", err)
		return
	}
	if reloaded {
		s.log.Info("configuration reloaded")
		s.notifier.NotifyServiceStatus("Configuration reloaded")
	}
}

// checkNetworkStatus probes connectivity at most once per check interval and
// reacts to transitions. A restore triggers exactly one forced
// re-authentication so a token refresh that failed while offline is redone
// eagerly.
func (s *Service) checkNetworkStatus(ctx context.Context) {
	if !s.settings.NetworkMonitoringEnabled() {
		return
	}
	if s.now().Sub(s.state.LastNetworkCheck) < s.networkCheckInterval {
		return
	}
	s.state.LastNetworkCheck = s.now()

	connected := s.checkNetwork()
	if connected == s.state.NetworkAvailable {
		if connected {
			s.state.NetworkFailures = 0
		}
		return
	}

	if connected {
		s.log.Info("network connection restored")
		s.notifier.NotifyNetworkStatus(true)
		s.state.NetworkAvailable = true
		s.state.NetworkFailures = 0
		if err := s.engine.Authenticate(ctx, true); err != nil {
			s.log.Errorf("re-authentication after network restore failed: %v", err)
		}
		return
	}

	s.state.NetworkFailures++
	s.log.Warnf("network connection lost (failure count: %d)", s.state.NetworkFailures)
	s.notifier.NotifyNetworkStatus(false)
	s.state.NetworkAvailable = false
}

// drainSignals services every pending signal without blocking.
func (s *Service) drainSignals(ctx context.Context) {
	for {
		select {
		case sig := <-s.signals:
			s.handleSignal(ctx, sig)
		default:
			return
		}
	}
}

func (s *Service) handleSignal(ctx context.Context, sig os.Signal) {
	switch sig {
	case syscall.SIGTERM, syscall.SIGINT:
		s.log.Infof("received %v, shutting down", sig)
		s.state.Running = false
	default:
		if !s.handlePlatformSignal(ctx, sig) {
			s.log.Warnf("ignoring unexpected signal: %v", sig)
		}
	}
}

func (s *Service) pause() {
	if s.state.Paused {
		return
	}
	s.state.Paused = true
	s.log.Info("service paused")
	s.notifier.NotifyServiceStatus("Service paused")
}

func (s *Service) resume() {
	if !s.state.Paused {
		return
	}
	s.state.Paused = false
	s.log.Info("service resumed")
	s.notifier.NotifyServiceStatus("Service resumed")
}

func (s *Service) reloadConfig() {
	if err := s.settings.Reload(); err != nil {
		s.log.Errorf("error reloading configuration: %v", err)
		return
	}
	s.log.Info("configuration reloaded on request")
	s.notifier.NotifyServiceStatus("Configuration reloaded")
}

// logStatus writes a one-shot status snapshot to the log.
func (s *Service) logStatus() {
	s.log.Infof("status: uptime=%s paused=%t network=%t consecutive_errors=%d processed=%d",
		s.now().Sub(s.state.StartedAt).Round(time.Second),
		s.state.Paused,
		s.state.NetworkAvailable,
		s.state.ConsecutiveErrors,
		s.state.ProcessedTotal,
	)
}

// sleepInterruptible sleeps up to d in one-second steps, servicing signals
// between steps so pause, resume, and shutdown stay responsive mid-sleep.
func (s *Service) sleepInterruptible(ctx context.Context, d time.Duration) {
	deadline := s.now().Add(d)
	for s.state.Running {
		s.drainSignals(ctx)
		if !s.state.Running {
			return
		}
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		if !s.tick(ctx, step) {
			return
		}
	}
}

func (s *Service) watchedSignals() []os.Signal {
	base := []os.Signal{syscall.SIGTERM, syscall.SIGINT}
	return append(base, platformSignals()...)
}
