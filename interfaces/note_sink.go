package interfaces

import (
	"context"

	"github.com/mailbear/mailbear/internal/models"
)

// NoteSink is the downstream note-taking target.
type NoteSink interface {
	CreateNote(ctx context.Context, note models.Note) error
}
