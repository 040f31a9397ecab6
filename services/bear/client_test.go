package bear

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
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

func capturingClient(captured *string) *Client {
	c := NewClient(testLogger())
	c.opener = func(_ context.Context, callbackURL string) error {
		*captured = callbackURL
		return nil
	}
	return c
}

func TestCreateNote_BuildsCallbackURL(t *testing.T) {
	// Arrange
	var captured string
	c := capturingClient(&captured)
	note := models.Note{
		Title:    "Email: Weekly report",
		Body:     "All good.",
		Tags:     []string{"email", "gmail"},
		IDSuffix: "msg-1",
	}

	// Act
	err := c.CreateNote(context.Background(), note)

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(captured, "bear://x-callback-url/create?"))

	parsed, err := url.Parse(captured)
	require.NoError(t, err)
	params := parsed.Query()
	assert.Equal(t, "Email: Weekly report", params.Get("title"))
	assert.Equal(t, "no", params.Get("open_note"))

	body := params.Get("text")
	assert.Contains(t, body, "All good.")
	assert.Contains(t, body, "#email #gmail")
	assert.Contains(t, body, "ID: msg-1")
}

func TestCreateNote_NoTagsNoSuffix(t *testing.T) {
	var captured string
	c := capturingClient(&captured)

	err := c.CreateNote(context.Background(), models.Note{Title: "t", Body: "b"})

	require.NoError(t, err)
	parsed, _ := url.Parse(captured)
	assert.Equal(t, "b", parsed.Query().Get("text"))
}

func TestCreateNote_OpenerFailurePropagates(t *testing.T) {
	c := NewClient(testLogger())
	c.opener = func(context.Context, string) error {
		return errors.New("app not available")
	}

	err := c.CreateNote(context.Background(), models.Note{Title: "t", Body: "b"})

	assert.Error(t, err)
}
