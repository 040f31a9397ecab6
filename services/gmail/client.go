package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailbear/mailbear/interfaces"
	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/models"
	"github.com/mailbear/mailbear/internal/utils"
)

const (
	userID      = "me"
	labelUnread = "UNREAD"
	labelInbox  = "INBOX"
	noSubject   = "(No Subject)"
)

// Client is the Gmail implementation of the mail source contract.
type Client struct {
	svc *gmailapi.Service
	log logger.Logger
}

var _ interfaces.MailSource = (*Client)(nil)

func NewClient(ctx context.Context, ts oauth2.TokenSource, log logger.Logger) (*Client, error) {
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, errors.Wrap(err, "unable to create gmail service")
	}
	return &Client{svc: svc, log: log}, nil
}

// buildQuery joins multiple senders with OR inside a from: clause.
func buildQuery(senders []string, unreadOnly bool) string {
	var query string
	if len(senders) == 1 {
		query = fmt.Sprintf("from:%s", senders[0])
	} else {
		query = fmt.Sprintf("from:(%s)", strings.Join(senders, " OR "))
	}
	if unreadOnly {
		query += " is:unread"
	}
	return query
}

// Search lists up to maxResults candidates matching the sender filter, then
// drops excluded ids. The provider-side cap applies before the exclusion
// filter, matching the provider's pagination semantics.
func (c *Client) Search(ctx context.Context, senders []string, maxResults int64, unreadOnly bool, excludeIDs []string) ([]models.Message, error) {
	query := buildQuery(senders, unreadOnly)
	c.log.Debugf("searching for messages with query: %s", query)

	listed, err := c.svc.Users.Messages.List(userID).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "error listing messages")
	}

	excluded := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = struct{}{}
	}

	var messages []models.Message
	for _, ref := range listed.Messages {
		if _, skip := excluded[ref.Id]; skip {
			continue
		}
		msg, err := c.fetch(ctx, ref.Id)
		if err != nil {
			// One unreadable message must not sink the whole batch.
			c.log.Errorf("error retrieving message %s: %v", ref.Id, err)
			continue
		}
		messages = append(messages, msg)
	}

	c.log.Debugf("search returned %d candidates (%d listed)", len(messages), len(listed.Messages))
	return messages, nil
}

// fetch retrieves one message in raw RFC 822 form and parses it.
func (c *Client) fetch(ctx context.Context, id string) (models.Message, error) {
	full, err := c.svc.Users.Messages.Get(userID, id).
		Format("raw").
		Context(ctx).
		Do()
	if err != nil {
		return models.Message{}, errors.Wrapf(err, "error fetching message %s", id)
	}

	raw, err := base64.URLEncoding.DecodeString(full.Raw)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(full.Raw)
		if err != nil {
			return models.Message{}, errors.Wrapf(err, "error decoding message %s payload", id)
		}
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return models.Message{}, errors.Wrapf(err, "error parsing message %s", id)
	}

	subject := env.GetHeader("Subject")
	if subject == "" {
		subject = noSubject
	}

	date, ok := utils.ParseEmailDate(env.GetHeader("Date"))
	if !ok {
		c.log.Warnf("could not parse date header of message %s, using current time", id)
	}

	body := env.Text
	isHTML := false
	if strings.TrimSpace(body) == "" && env.HTML != "" {
		body = env.HTML
		isHTML = true
	}

	return models.Message{
		ID:      id,
		Subject: subject,
		Sender:  utils.ExtractEmailAddress(env.GetHeader("From")),
		Date:    date,
		Body:    body,
		IsHTML:  isHTML,
		Labels:  full.LabelIds,
	}, nil
}

// MarkRead removes the UNREAD label.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	_, err := c.svc.Users.Messages.Modify(userID, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{labelUnread},
	}).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "error marking message %s as read", id)
	}
	c.log.Debugf("marked message %s as read", id)
	return nil
}

// Archive removes the INBOX label.
func (c *Client) Archive(ctx context.Context, id string) error {
	_, err := c.svc.Users.Messages.Modify(userID, id, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{labelInbox},
	}).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "error archiving message %s", id)
	}
	c.log.Debugf("archived message %s", id)
	return nil
}
