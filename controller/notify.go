package controller

import (
	"go.uber.org/zap"
)

// NoticeKind classifies user-facing notices.
type NoticeKind string

const (
	NoticeOffline NoticeKind = "offline"
	NoticeOnline  NoticeKind = "online"
	NoticeFailure NoticeKind = "failure"
)

// Notice is an informational message for the user, never an error.
type Notice struct {
	Module  string
	Kind    NoticeKind
	Message string
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) Notify(n Notice) {
	logger := l.Logger
	if logger == nil {
		return
	}
	fields := []zap.Field{zap.String("module", n.Module), zap.String("kind", string(n.Kind))}
	if n.Kind == NoticeFailure {
		logger.Warn(n.Message, fields...)
		return
	}
	logger.Info(n.Message, fields...)
}

// Notifiers fans a notice out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notice) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

func offlineMessage(module string) string {
	return "Working offline: " + module + " changes are saved on this device"
}

func onlineMessage(module string) string {
	return "Back online: " + module + " is using live data again"
}
