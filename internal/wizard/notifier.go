package wizard

import "go.uber.org/zap"

// Notifier receives the user-facing toast messages the controller
// emits. The hosting UI implements it; LogNotifier is the default.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
}

// LogNotifier routes notifications to the logger.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Success(msg string) { n.Log.Info(msg) }
func (n LogNotifier) Error(msg string)   { n.Log.Error(msg) }
func (n LogNotifier) Warning(msg string) { n.Log.Warn(msg) }
