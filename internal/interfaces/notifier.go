package interfaces

import "context"

// Notifier delivers outbound messages. Fire-and-forget: the scanner logs
// and swallows delivery failures.
type Notifier interface {
	Send(ctx context.Context, message string) error
}
