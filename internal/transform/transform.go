package transform

import (
	"strings"
	"text/template"

	"github.com/jaytaylor/html2text"
	"github.com/pkg/errors"

	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/models"
)

const dateLayout = "2006-01-02 15:04:05"

// Transformer renders a Message into a Note: HTML conversion, template-based
// title/body, tag resolution.
type Transformer struct {
	log logger.Logger
}

func New(log logger.Logger) *Transformer {
	return &Transformer{log: log}
}

// HTMLToText converts an HTML body to readable plain text. A conversion
// failure substitutes a placeholder that still carries the raw content; the
// message is never dropped.
func (t *Transformer) HTMLToText(htmlBody string) string {
	text, err := html2text.FromString(htmlBody, html2text.Options{PrettyTables: true})
	if err != nil {
		t.log.Errorf("error converting HTML body: %v", err)
		return "Error converting HTML content: " + err.Error() + "\n\nOriginal content:\n" + htmlBody
	}
	return text
}

// Render substitutes message fields into a template. A reference to an
// absent field fails loudly: that is a configuration error in the template,
// not a transient one.
func Render(name, tmplStr string, msg models.Message, body string) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", errors.Wrapf(err, "invalid %s template", name)
	}

	fields := map[string]interface{}{
		"Subject": msg.Subject,
		"Sender":  msg.Sender,
		"Date":    msg.Date.Format(dateLayout),
		"Body":    body,
		"ID":      msg.ID,
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, fields); err != nil {
		return "", errors.Wrapf(err, "error rendering %s template", name)
	}
	return out.String(), nil
}

// BuildNote runs the full transformation for one message: optional HTML
// conversion, title/body rendering, and tag attachment.
func (t *Transformer) BuildNote(msg models.Message, titleTemplate, bodyTemplate string, tags []string) (models.Note, error) {
	body := msg.Body
	if msg.IsHTML {
		t.log.Debugf("converting HTML body for message %s", msg.ID)
		body = t.HTMLToText(body)
	}

	title, err := Render("title", titleTemplate, msg, body)
	if err != nil {
		return models.Note{}, err
	}
	noteBody, err := Render("body", bodyTemplate, msg, body)
	if err != nil {
		return models.Note{}, err
	}

	return models.Note{
		Title:    title,
		Body:     noteBody,
		Tags:     tags,
		IDSuffix: msg.ID,
	}, nil
}
