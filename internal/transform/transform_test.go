package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailbear/mailbear/internal/logger"
	"github.com/mailbear/mailbear/internal/models"
)

func testLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{DevMode: true, LogLevel: "error"})
	l.InitLogger()
	return l
}

func sampleMessage() models.Message {
	return models.Message{
		ID:      "msg-1",
		Subject: "Weekly report",
		Sender:  "boss@example.com",
		Date:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Body:    "All good.",
	}
}

func TestRender_SubstitutesAllFields(t *testing.T) {
	msg := sampleMessage()

	out, err := Render("title", "{{.Subject}} from {{.Sender}} at {{.Date}} ({{.ID}})", msg, msg.Body)

	require.NoError(t, err)
	assert.Equal(t, "Weekly report from boss@example.com at 2026-03-14 09:30:00 (msg-1)", out)
}

func TestRender_MissingFieldFailsLoudly(t *testing.T) {
	_, err := Render("title", "{{.Subjectt}}", sampleMessage(), "")

	assert.Error(t, err, "unresolved placeholder is a configuration error")
}

func TestRender_InvalidTemplateSyntax(t *testing.T) {
	_, err := Render("body", "{{.Subject", sampleMessage(), "")

	assert.Error(t, err)
}

func TestHTMLToText_ConvertsMarkup(t *testing.T) {
	tr := New(testLogger())

	text := tr.HTMLToText("<html><body><h1>Hello</h1><p>World</p></body></html>")

	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
	assert.NotContains(t, text, "<h1>")
}

func TestBuildNote_PlainMessage(t *testing.T) {
	// Arrange
	tr := New(testLogger())
	msg := sampleMessage()

	// Act
	note, err := tr.BuildNote(msg, "Email: {{.Subject}}", "{{.Body}}\n\nID {{.ID}}", []string{"email", "gmail"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Email: Weekly report", note.Title)
	assert.Equal(t, "All good.\n\nID msg-1", note.Body)
	assert.Equal(t, []string{"email", "gmail"}, note.Tags)
	assert.Equal(t, "msg-1", note.IDSuffix)
}

func TestBuildNote_HTMLMessageConverted(t *testing.T) {
	tr := New(testLogger())
	msg := sampleMessage()
	msg.IsHTML = true
	msg.Body = "<p>Rich <b>content</b></p>"

	note, err := tr.BuildNote(msg, "{{.Subject}}", "{{.Body}}", nil)

	require.NoError(t, err)
	assert.Contains(t, note.Body, "Rich")
	assert.NotContains(t, note.Body, "<p>")
}

func TestBuildNote_TemplateErrorPropagates(t *testing.T) {
	tr := New(testLogger())

	_, err := tr.BuildNote(sampleMessage(), "{{.Nope}}", "{{.Body}}", nil)

	assert.Error(t, err)
}
