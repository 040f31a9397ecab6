package utils

import (
	"net/mail"
	"strings"
	"time"
)

// dateLayouts are tried in order when the RFC 5322 parser rejects a Date
// header. Providers emit a surprising variety of almost-correct formats.
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// ParseEmailDate parses a Date header with multi-format fallback. The second
// return value is false when every format failed and the current time was
// substituted.
func ParseEmailDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Now(), false
	}

	if t, err := mail.ParseDate(value); err == nil {
		return t, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	// Strip a trailing parenthesized zone name and retry.
	if open := strings.LastIndex(value, " ("); open != -1 {
		if closing := strings.LastIndex(value, ")"); closing > open {
			stripped := strings.TrimSpace(value[:open] + value[closing+1:])
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, stripped); err == nil {
					return t, true
				}
			}
		}
	}

	return time.Now(), false
}
