package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mailbear/mailbear/interfaces"
	mberrors "github.com/mailbear/mailbear/internal/errors"
	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/models"
	"github.com/mailbear/mailbear/internal/retry"
	"github.com/mailbear/mailbear/internal/transform"
)

const (
	defaultMaxResults           = 10
	defaultMaxConsecutiveErrors = 5
	defaultErrorBackoff         = 30 * time.Second
	defaultRateLimitCooldown    = 10 * time.Second
	authFailureThreshold        = 3
)

// Deps wires the collaborators into the processing engine.
type Deps struct {
	Settings interfaces.SettingsProvider
	State    interfaces.StateStore
	Auth     interfaces.Authenticator
	Sink     interfaces.NoteSink
	Notifier interfaces.Notifier
	Log      logger.Logger
}

// Engine runs the poll cycle: acquire candidates, filter processed ones, and
// pipe each through transform, sink, acknowledge. It owns only its own error
// counters; service-level state stays with the service loop.
type Engine struct {
	settings    interfaces.SettingsProvider
	state       interfaces.StateStore
	auth        interfaces.Authenticator
	sink        interfaces.NoteSink
	notifier    interfaces.Notifier
	log         logger.Logger
	transformer *transform.Transformer

	source interfaces.MailSource

	maxResults           int64
	maxConsecutiveErrors int
	errorBackoff         time.Duration
	rateLimitCooldown    time.Duration

	authPolicy    retry.Policy
	listPolicy    retry.Policy
	messagePolicy retry.Policy

	authFailures      int
	consecutiveErrors int
	lastErrorTime     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

func New(deps Deps) *Engine {
	return &Engine{
		settings:    deps.Settings,
		state:       deps.State,
		auth:        deps.Auth,
		sink:        deps.Sink,
		notifier:    deps.Notifier,
		log:         deps.Log,
		transformer: transform.New(deps.Log),

		maxResults:           defaultMaxResults,
		maxConsecutiveErrors: defaultMaxConsecutiveErrors,
		errorBackoff:         defaultErrorBackoff,
		rateLimitCooldown:    defaultRateLimitCooldown,

		authPolicy: retry.Policy{
			MaxRetries:     3,
			InitialBackoff: 2 * time.Second,
			Multiplier:     2,
			Jitter:         0.1,
			Retryable:      mberrors.IsRetryableTransport,
		},
		listPolicy: retry.Policy{
			MaxRetries:     3,
			InitialBackoff: time.Second,
			Multiplier:     2,
			Jitter:         0.1,
			Retryable:      mberrors.IsRetryableTransport,
		},
		messagePolicy: retry.Policy{
			MaxRetries:     2,
			InitialBackoff: time.Second,
			Multiplier:     2,
			Jitter:         0.1,
		},

		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// Authenticate obtains credentials and initializes the mail source, with
// bounded retry inside this one call. Exhausted retries feed a separate
// auth-failure counter: repeated failures usually need user intervention,
// so they escalate to a critical notification at the threshold instead of
// being retried forever.
func (e *Engine) Authenticate(ctx context.Context, forceRefresh bool) error {
	source, err := retry.Do(ctx, e.authPolicy, e.log, "authenticate", func() (interfaces.MailSource, error) {
		return e.auth.Authenticate(ctx, forceRefresh)
	})
	if err != nil {
		e.authFailures++
		e.log.Errorf("authentication failed (attempt %d): %v", e.authFailures, err)
		if e.authFailures >= authFailureThreshold {
			msg := fmt.Sprintf("Authentication failed after %d attempts. Check credentials and network connectivity.", e.authFailures)
			e.log.Error(msg)
			e.notifier.NotifyError(msg)
		}
		return err
	}

	e.source = source
	e.authFailures = 0
	return nil
}

// RunCycle executes exactly one poll cycle and returns the number of newly
// processed messages. Configuration problems surface as configuration-class
// errors and never contact the source.
func (e *Engine) RunCycle(ctx context.Context) (int, error) {
	if !e.settings.Loaded() {
		msg := "Configuration not loaded, cannot process emails"
		e.log.Error(msg)
		e.notifier.NotifyError(msg)
		return 0, mberrors.ErrSettingsNotLoaded
	}
	if e.source == nil {
		msg := "Mail source not initialized, please authenticate first"
		e.log.Error(msg)
		e.notifier.NotifyError(msg)
		return 0, mberrors.ErrNotAuthenticated
	}
	senders := e.settings.SenderEmails()
	if len(senders) == 0 {
		msg := "Sender email not configured"
		e.log.Error(msg)
		e.notifier.NotifyError(msg)
		return 0, mberrors.ErrNoSenderConfigured
	}

	e.log.Infof("checking for emails from %s", strings.Join(senders, ", "))
	processedIDs := e.state.ProcessedIDs()

	messages, err := retry.Do(ctx, e.listPolicy, e.log, "list candidates", func() ([]models.Message, error) {
		return e.source.Search(ctx, senders, e.maxResults, true, processedIDs)
	})
	if err != nil {
		if mberrors.IsRateLimited(err) {
			// Rate limiting signals systemic pressure beyond one call; take a
			// fixed cooldown on top of the retry utility's own delays.
			e.log.Warnf("rate limited by the mail source, cooling down for %s", e.rateLimitCooldown)
			e.sleep(ctx, e.rateLimitCooldown)
		}
		return 0, err
	}

	if len(messages) == 0 {
		e.log.Info("no new emails to process")
		return 0, nil
	}
	e.log.Infof("found %d new emails to process", len(messages))

	count := 0
	for _, msg := range messages {
		if e.ProcessMessage(ctx, msg) {
			count++
		}
	}
	return count, nil
}

// ProcessMessage runs the per-message pipeline with a short retry budget for
// transient sink failures. It reports whether the message was newly
// processed; failures never abort the batch.
func (e *Engine) ProcessMessage(ctx context.Context, msg models.Message) bool {
	processed, err := retry.Do(ctx, e.messagePolicy, e.log, "process message "+msg.ID, func() (bool, error) {
		return e.processOnce(ctx, msg)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Failed to create note for email: %s", msg.Subject)
		e.log.Errorf("%s: %v", errMsg, err)
		e.notifier.NotifyError(errMsg)
		return false
	}
	return processed
}

// processOnce is one attempt of the pipeline. Only sink failures return an
// error (and are therefore retried); configuration problems are notified and
// swallowed, and acknowledgment hiccups after a created note are logged but
// do not fail the message.
func (e *Engine) processOnce(ctx context.Context, msg models.Message) (bool, error) {
	// Defensive re-check: a concurrent run or a retry could have duplicated
	// the fetch.
	if e.state.IsProcessed(msg.ID) {
		e.log.Debugf("message %s already processed, skipping", msg.ID)
		return false, nil
	}

	note, err := e.transformer.BuildNote(
		msg,
		e.settings.NoteTitleTemplate(),
		e.settings.NoteBodyTemplate(),
		e.settings.Tags(),
	)
	if err != nil {
		errMsg := fmt.Sprintf("Error processing email %s: %v", msg.ID, err)
		e.log.Error(errMsg)
		e.notifier.NotifyError(errMsg)
		return false, nil
	}

	e.log.Infof("creating note for email: %s", msg.Subject)
	if err := e.sink.CreateNote(ctx, note); err != nil {
		return false, errors.Wrapf(err, "error creating note for message %s", msg.ID)
	}

	// Acknowledge in this exact order: mark read, optionally archive, then
	// persist the processed mark. A crash in between re-processes the
	// message next cycle (duplicate note) instead of silently losing it.
	if err := e.source.MarkRead(ctx, msg.ID); err != nil {
		e.log.Errorf("error marking message %s as read: %v", msg.ID, err)
	}
	if e.settings.ArchiveOnSuccess() {
		e.log.Debugf("archiving message %s", msg.ID)
		if err := e.source.Archive(ctx, msg.ID); err != nil {
			e.log.Errorf("error archiving message %s: %v", msg.ID, err)
		}
	}
	e.state.MarkProcessed(msg.ID)

	e.log.Infof("successfully processed email: %s", msg.Subject)
	return true, nil
}

// ProcessBatch drives repeated poll cycles for the run command: once, or
// polling forever until the context is cancelled. Consecutive cycle failures
// past the threshold trigger a critical notification and a fixed cooldown.
func (e *Engine) ProcessBatch(ctx context.Context, once bool, sendNotification bool) int {
	processed := 0

	for {
		count, err := e.RunCycle(ctx)
		if err != nil {
			if mberrors.IsConfiguration(err) {
				return processed
			}
			e.consecutiveErrors++
			e.log.Errorf("error processing emails (attempt %d): %v", e.consecutiveErrors, err)

			if e.consecutiveErrors >= e.maxConsecutiveErrors {
				msg := fmt.Sprintf("Multiple consecutive errors (%d). Pausing email processing for %s.",
					e.consecutiveErrors, e.errorBackoff)
				e.log.Error(msg)
				e.notifier.NotifyError(msg)
				e.lastErrorTime = e.now()

				if once {
					break
				}
				if !e.sleep(ctx, e.errorBackoff) {
					break
				}
				continue
			}
		} else {
			e.consecutiveErrors = 0
			processed += count
			if count > 0 && sendNotification {
				e.notifier.NotifyNewEmails(count)
			}
		}

		if once {
			break
		}
		e.log.Infof("waiting %s before next check", e.settings.PollInterval())
		if !e.sleep(ctx, e.settings.PollInterval()) {
			break
		}
	}

	return processed
}

// ConsecutiveErrors exposes the standalone batch error counter.
func (e *Engine) ConsecutiveErrors() int { return e.consecutiveErrors }

// AuthFailures exposes the auth-failure counter for status snapshots.
func (e *Engine) AuthFailures() int { return e.authFailures }

// Authenticated reports whether a mail source has been initialized.
func (e *Engine) Authenticated() bool { return e.source != nil }
