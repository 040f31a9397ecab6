package settings

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mailbear/mailbear/internal/logger"
)

const defaultBodyTemplate = `# {{.Subject}}

From: {{.Sender}}
Date: {{.Date}}

{{.Body}}

---
Source: Gmail ID {{.ID}}`

const defaultFileContent = `; mailbear settings
[gmail]
; one address, or several separated by commas (matched with OR)
sender_email = example@gmail.com
; seconds between polls in continuous mode
poll_interval = 300
; archive messages after a note was created
archive_emails = false

[bear]
note_title = Email: {{.Subject}}
tags = email,gmail

[notifications]
enabled = true
sound = default
timeout = 5

[service]
monitor_network = true

[auth]
use_secure_store = false
store_name = mailbear

[logging]
level = info
`

// Settings reads the user-facing INI file. Change detection is mtime-based
// and driven by the service loop's config watchdog, not by an fs watcher.
type Settings struct {
	path    string
	v       *viper.Viper
	loaded  bool
	modTime time.Time
	log     logger.Logger
}

// Load reads the settings file at path. A missing or unparseable file leaves
// Loaded() false; getters then serve defaults.
func Load(path string, log logger.Logger) *Settings {
	s := &Settings{path: path, log: log}
	if err := s.Reload(); err != nil {
		log.Errorf("error loading settings from %s: %v", path, err)
	}
	return s
}

func (s *Settings) newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("ini")

	v.SetDefault("gmail.sender_email", "")
	v.SetDefault("gmail.poll_interval", 300)
	v.SetDefault("gmail.archive_emails", false)
	v.SetDefault("bear.note_title", "Email: {{.Subject}}")
	v.SetDefault("bear.note_body", defaultBodyTemplate)
	v.SetDefault("bear.tags", "email,gmail")
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.sound", "default")
	v.SetDefault("notifications.timeout", 5)
	v.SetDefault("service.monitor_network", true)
	v.SetDefault("auth.use_secure_store", false)
	v.SetDefault("auth.store_name", "mailbear")
	v.SetDefault("logging.level", "info")

	return v
}

// Reload re-reads the settings file unconditionally.
func (s *Settings) Reload() error {
	v := s.newViper()

	info, err := os.Stat(s.path)
	if err != nil {
		s.v = v
		s.loaded = false
		return errors.Wrapf(err, "settings file not found: %s", s.path)
	}

	if err := v.ReadInConfig(); err != nil {
		s.v = v
		s.loaded = false
		return errors.Wrapf(err, "error parsing settings file %s", s.path)
	}

	s.v = v
	s.loaded = true
	s.modTime = info.ModTime()
	s.log.Debugf("loaded settings from %s", s.path)
	return nil
}

// HasChanged reports whether the file's mtime moved since the last load.
func (s *Settings) HasChanged() bool {
	info, err := os.Stat(s.path)
	if err != nil {
		return false
	}
	return info.ModTime().After(s.modTime)
}

// ReloadIfChanged re-reads the file only when HasChanged. Returns whether a
// reload happened.
func (s *Settings) ReloadIfChanged() (bool, error) {
	if !s.HasChanged() {
		return false, nil
	}
	return true, s.Reload()
}

// WriteDefault creates a commented default settings file. An existing file is
// never overwritten.
func (s *Settings) WriteDefault() error {
	if _, err := os.Stat(s.path); err == nil {
		return errors.Errorf("settings file already exists: %s", s.path)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "error creating settings directory")
	}
	if err := os.WriteFile(s.path, []byte(defaultFileContent), 0o600); err != nil {
		return errors.Wrap(err, "error writing default settings")
	}
	s.log.Infof("created default settings at %s", s.path)
	return s.Reload()
}

func (s *Settings) Loaded() bool { return s.loaded }

// SenderEmails returns the configured sender filter: one address or several
// comma-separated ones joined with logical OR at the source.
func (s *Settings) SenderEmails() []string {
	raw := s.v.GetString("gmail.sender_email")
	parts := strings.Split(raw, ",")
	senders := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			senders = append(senders, trimmed)
		}
	}
	return senders
}

func (s *Settings) PollInterval() time.Duration {
	seconds := s.v.GetInt("gmail.poll_interval")
	if seconds <= 0 {
		seconds = 300
	}
	return time.Duration(seconds) * time.Second
}

func (s *Settings) ArchiveOnSuccess() bool { return s.v.GetBool("gmail.archive_emails") }

func (s *Settings) NoteTitleTemplate() string { return s.v.GetString("bear.note_title") }

func (s *Settings) NoteBodyTemplate() string { return s.v.GetString("bear.note_body") }

func (s *Settings) Tags() []string {
	raw := s.v.GetString("bear.tags")
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

func (s *Settings) NotificationsEnabled() bool { return s.v.GetBool("notifications.enabled") }

func (s *Settings) NotificationSound() string { return s.v.GetString("notifications.sound") }

func (s *Settings) NotificationTimeout() time.Duration {
	seconds := s.v.GetInt("notifications.timeout")
	if seconds <= 0 {
		seconds = 5
	}
	return time.Duration(seconds) * time.Second
}

func (s *Settings) NetworkMonitoringEnabled() bool { return s.v.GetBool("service.monitor_network") }

func (s *Settings) SecureTokenStoreEnabled() bool { return s.v.GetBool("auth.use_secure_store") }

func (s *Settings) SecureTokenStoreName() string { return s.v.GetString("auth.store_name") }

func (s *Settings) LoggingLevel() string { return s.v.GetString("logging.level") }
