// Package metrics exposes Prometheus instrumentation for the scan loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScanPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_passes_total",
		Help: "Scan passes executed, by timeframe and outcome.",
	}, []string{"timeframe", "outcome"})

	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_signals_total",
		Help: "Signals emitted by the evaluation engine, by side.",
	}, []string{"side"})

	TradesOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_trades_opened_total",
		Help: "Trades opened by the scan driver.",
	})

	TradesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_trades_closed_total",
		Help: "Trades closed, by reason (target, stop, exit_signal).",
	}, []string{"reason"})

	FetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_fetch_retries_total",
		Help: "Candle fetch attempts beyond the first.",
	})

	ConsecutiveFailures = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_consecutive_failures",
		Help: "Consecutive terminal fetch failures per data source.",
	}, []string{"source"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanner_pass_duration_seconds",
		Help:    "Duration of one symbol/timeframe pass.",
		Buckets: prometheus.DefBuckets,
	})
)
