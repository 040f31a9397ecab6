package errors

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

var (
	// configuration errors, never retried
	ErrSettingsNotLoaded  = errors.New("settings not loaded")
	ErrNoSenderConfigured = errors.New("no sender email configured")
	ErrNotAuthenticated   = errors.New("mail source not initialized, authenticate first")

	// sink errors
	ErrNoteCreationFailed = errors.New("note creation failed")
)

// retryableStatusCodes are the transport responses worth retrying: rate
// limiting and upstream unavailability. Other 4xx codes are permanent.
var retryableStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// IsConfiguration reports whether err is a configuration-class error that
// must surface immediately instead of entering retry or backoff handling.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrSettingsNotLoaded) ||
		errors.Is(err, ErrNoSenderConfigured) ||
		errors.Is(err, ErrNotAuthenticated)
}

// IsRetryableTransport classifies transient transport failures: retryable
// HTTP status codes, timeouts, and connectivity errors.
func IsRetryableTransport(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := StatusCode(err); ok {
		return retryableStatusCodes[code]
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsRateLimited reports whether err carries an HTTP 429 status.
func IsRateLimited(err error) bool {
	code, ok := StatusCode(err)
	return ok && code == 429
}

// StatusCode extracts the HTTP status code from a Google API error chain.
func StatusCode(err error) (int, bool) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}
