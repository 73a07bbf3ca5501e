package annotator

import (
	"pdf-layout-annotator/internal/domain"
	apperrors "pdf-layout-annotator/pkg/errors"
)

// Notifier shows non-blocking user notifications.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// LogNotifier reports notifications through the logger. It is used by
// headless sessions such as the batch importer.
type LogNotifier struct {
	logger domain.Logger
}

// NewLogNotifier creates a notifier that logs every notification.
func NewLogNotifier(logger domain.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(err error) {
	if err == nil {
		return
	}
	if apperrors.IsType(err, apperrors.ErrorTypePersistence) {
		n.logger.Warn("Save failed, changes kept locally", "error", err.Error())
		return
	}
	n.logger.Error("Annotator notification", err)
}
