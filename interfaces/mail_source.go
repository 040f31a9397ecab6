package interfaces

import (
	"context"

	"github.com/mailbear/mailbear/internal/models"
)

// MailSource is the upstream mailbox adapter. Search applies the provider's
// result cap before the exclusion filter, so a page full of already-processed
// messages can legitimately yield zero candidates for one cycle.
type MailSource interface {
	Search(ctx context.Context, senders []string, maxResults int64, unreadOnly bool, excludeIDs []string) ([]models.Message, error)
	MarkRead(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) error
}
