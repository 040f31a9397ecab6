package interfaces

// Notifier surfaces events to an unattended user. Implementations are
// fire-and-forget and must never block or fail the pipeline.
type Notifier interface {
	NotifyNewEmails(count int)
	NotifyError(message string)
	NotifyServiceStatus(status string)
	NotifyNetworkStatus(connected bool)
}
