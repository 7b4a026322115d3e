package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier is the alerting capability injected into lifecycle components.
// Alert must never fail the caller; delivery problems are the notifier's own
// concern.
type Notifier interface {
	Alert(ctx context.Context, event string, cause error, fields map[string]string)
}

// NopNotifier is the default when no alerting sink is configured.
type NopNotifier struct{}

func (NopNotifier) Alert(ctx context.Context, event string, cause error, fields map[string]string) {}

// LogNotifier reports alerts through the structured logger.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Alert(ctx context.Context, event string, cause error, fields map[string]string) {
	zapFields := make([]zap.Field, 0, len(fields)+2)
	zapFields = append(zapFields, zap.String("event", event))
	if cause != nil {
		zapFields = append(zapFields, zap.Error(cause))
	}
	for key, value := range fields {
		zapFields = append(zapFields, zap.String(key, value))
	}

	n.logger.Warn("alert", zapFields...)
}
