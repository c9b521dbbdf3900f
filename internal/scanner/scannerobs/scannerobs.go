package scannerobs

import (
	"context"
	"time"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/logger"
	"strategy-scanner/internal/trace"
)

type observableScanner struct {
	scanner interfaces.Scanner
}

var _ interfaces.Scanner = (*observableScanner)(nil)

func Wrap(s interfaces.Scanner) interfaces.Scanner {
	return &observableScanner{scanner: s}
}

func (os *observableScanner) Scan(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "scanner.Scan")
	defer span.End()

	start := time.Now()
	logger.Info(ctx, "Starting scan cycle")

	err := os.scanner.Scan(ctx)
	if err != nil {
		logger.ErrorWithErr(ctx, "Scan cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.Info(ctx, "Scan cycle completed",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
