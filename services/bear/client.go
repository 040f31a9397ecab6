package bear

import (
	"context"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/mailbear/mailbear/interfaces"
	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/models"
)

const baseURL = "bear://x-callback-url"

// Client creates notes in Bear through its x-callback-url scheme, invoked
// via the platform URL opener.
type Client struct {
	log    logger.Logger
	opener func(ctx context.Context, callbackURL string) error
}

var _ interfaces.NoteSink = (*Client)(nil)

func NewClient(log logger.Logger) *Client {
	return &Client{
		log:    log,
		opener: openURL,
	}
}

func openURL(ctx context.Context, callbackURL string) error {
	command := "xdg-open"
	if runtime.GOOS == "darwin" {
		command = "open"
	}
	if err := exec.CommandContext(ctx, command, callbackURL).Run(); err != nil {
		return errors.Wrapf(err, "error invoking %s", command)
	}
	return nil
}

// CreateNote builds the create-note callback URL and invokes it. Tags and
// the uniqueness suffix are appended to the body; the suffix keeps Bear from
// merging two notes that render identically.
func (c *Client) CreateNote(ctx context.Context, note models.Note) error {
	body := note.Body

	if len(note.Tags) > 0 {
		hashtags := make([]string, len(note.Tags))
		for i, tag := range note.Tags {
			hashtags[i] = "#" + tag
		}
		body += "\n\n" + strings.Join(hashtags, " ")
	}

	if note.IDSuffix != "" {
		body += "\n\nID: " + note.IDSuffix
	}

	callbackURL := buildURL("create", url.Values{
		"title":     {note.Title},
		"text":      {body},
		"open_note": {"no"},
	})

	// Log only a prefix; note content is private.
	c.log.Debugf("calling Bear URL: %.100s...", callbackURL)
	if err := c.opener(ctx, callbackURL); err != nil {
		return errors.Wrap(err, "error creating note in Bear")
	}
	c.log.Debug("successfully created note in Bear")
	return nil
}

func buildURL(action string, params url.Values) string {
	return baseURL + "/" + action + "?" + params.Encode()
}
