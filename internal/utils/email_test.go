package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"display name", "Jane Doe <jane@example.com>", "jane@example.com"},
		{"bare address", "jane@example.com", "jane@example.com"},
		{"quoted name", `"Doe, Jane" <jane@example.com>`, "jane@example.com"},
		{"unparseable", "not an address <", "not an address <"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEmailAddress(tt.header))
		})
	}
}

func TestParseEmailDate(t *testing.T) {
	expected := time.Date(2025, 3, 14, 9, 30, 0, 0, time.FixedZone("", -7*3600))

	tests := []struct {
		name  string
		value string
	}{
		{"rfc5322", "Fri, 14 Mar 2025 09:30:00 -0700"},
		{"parenthesized zone", "Fri, 14 Mar 2025 09:30:00 -0700 (PDT)"},
		{"no weekday", "14 Mar 2025 09:30:00 -0700"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseEmailDate(tt.value)
			require.True(t, ok)
			assert.True(t, parsed.Equal(expected))
		})
	}
}

func TestParseEmailDate_Unparseable(t *testing.T) {
	before := time.Now()

	parsed, ok := ParseEmailDate("next Tuesday sometime")

	assert.False(t, ok)
	assert.False(t, parsed.Before(before))
}

func TestParseEmailDate_Empty(t *testing.T) {
	_, ok := ParseEmailDate("")
	assert.False(t, ok)
}
