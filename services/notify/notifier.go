package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/mailbear/mailbear/interfaces"
	"github.com/mailbear/mailbear/internal/logger"
)

const appName = "Mailbear"

// Manager sends desktop notifications. Every method is fire-and-forget:
// a notification failure is logged and swallowed, never surfaced to the
// pipeline.
type Manager struct {
	settings interfaces.SettingsProvider
	log      logger.Logger

	// send dispatches one notification; overridable in tests. alert marks
	// error-severity notifications.
	send func(title, message string, alert bool) error
}

var _ interfaces.Notifier = (*Manager)(nil)

func NewManager(settings interfaces.SettingsProvider, log logger.Logger) *Manager {
	return &Manager{
		settings: settings,
		log:      log,
		send: func(title, message string, alert bool) error {
			if alert {
				return beeep.Alert(title, message, "")
			}
			return beeep.Notify(title, message, "")
		},
	}
}

func (m *Manager) notify(title, message string, alert bool) {
	if m.settings != nil && !m.settings.NotificationsEnabled() {
		m.log.Debugf("notifications disabled: %s - %s", title, message)
		return
	}
	if err := m.send(title, message, alert); err != nil {
		m.log.Errorf("error sending notification: %v", err)
		return
	}
	m.log.Debugf("sent notification: %s - %s", title, message)
}

func (m *Manager) NotifyNewEmails(count int) {
	if count <= 0 {
		return
	}
	plural := ""
	if count > 1 {
		plural = "s"
	}
	m.notify(appName, fmt.Sprintf("%d new email%s processed", count, plural), false)
}

func (m *Manager) NotifyError(message string) {
	m.notify(appName+" - Error", message, true)
}

func (m *Manager) NotifyServiceStatus(status string) {
	m.notify(appName+" - Service", status, false)
}

func (m *Manager) NotifyNetworkStatus(connected bool) {
	message := "Network connection lost"
	if connected {
		message = "Network connection restored"
	}
	m.notify(appName+" - Network", message, !connected)
}
