package notify

import (
	"context"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/logger"
)

// NoopNotifier logs messages instead of delivering them. Used when no
// notification sink is configured.
type NoopNotifier struct{}

var _ interfaces.Notifier = (*NoopNotifier)(nil)

func NewNoop() *NoopNotifier { return &NoopNotifier{} }

func (n *NoopNotifier) Send(ctx context.Context, message string) error {
	logger.Debug(ctx, "Notification suppressed (noop sink)", "message", message)
	return nil
}
