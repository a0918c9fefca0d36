package notifier

// Notifier delivers a human-readable summary after each adjustment batch
type Notifier interface {
	// NotifyBatch sends a batch summary message
	NotifyBatch(message string) error
}

// NoopNotifier is used when no notification channel is configured
type NoopNotifier struct{}

// NotifyBatch discards the message
func (NoopNotifier) NotifyBatch(message string) error {
	return nil
}
