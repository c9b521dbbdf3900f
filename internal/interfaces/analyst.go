package interfaces

import "context"

// Analyst returns qualitative commentary for a formatted signal message.
// Failures must never block trade creation.
type Analyst interface {
	Analyze(ctx context.Context, message string) (string, error)
}
