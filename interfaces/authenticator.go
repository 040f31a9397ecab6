package interfaces

import "context"

// Authenticator obtains credentials for the mail provider and returns a
// ready-to-use source. forceRefresh discards any cached token first.
type Authenticator interface {
	Authenticate(ctx context.Context, forceRefresh bool) (MailSource, error)
}
