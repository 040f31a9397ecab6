package interfaces

import "time"

// SettingsProvider exposes the user-tunable configuration plus live-reload
// hooks for the service loop's config watchdog.
type SettingsProvider interface {
	Loaded() bool

	SenderEmails() []string
	PollInterval() time.Duration
	ArchiveOnSuccess() bool
	NoteTitleTemplate() string
	NoteBodyTemplate() string
	Tags() []string

	NotificationsEnabled() bool
	NotificationSound() string
	NotificationTimeout() time.Duration

	NetworkMonitoringEnabled() bool
	SecureTokenStoreEnabled() bool
	SecureTokenStoreName() string

	// HasChanged reports whether the backing file's mtime moved since the
	// last load. ReloadIfChanged re-reads only in that case.
	HasChanged() bool
	ReloadIfChanged() (bool, error)
	Reload() error
}
