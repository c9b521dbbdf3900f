package analyst

import (
	"context"

	"strategy-scanner/internal/interfaces"
)

var (
	_ interfaces.Analyst = (*OpenAIAnalyst)(nil)
	_ interfaces.Analyst = (*NoopAnalyst)(nil)
)

// NoopAnalyst returns empty commentary. Used when no provider is
// configured; trade creation proceeds without enrichment.
type NoopAnalyst struct{}

func NewNoop() *NoopAnalyst { return &NoopAnalyst{} }

func (a *NoopAnalyst) Analyze(ctx context.Context, message string) (string, error) {
	return "", nil
}
