// Package series turns raw candles into an indexed bar series that
// indicators and rules evaluate against.
package series

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"strategy-scanner/internal/types"
)

var ErrInvalidTimeframe = errors.New("invalid timeframe")

// BarDuration parses a timeframe code like "5m", "1h", "1d" or "1w" into the
// nominal duration of one bar.
func BarDuration(code string) (time.Duration, error) {
	if len(code) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, code)
	}
	n, err := strconv.Atoi(code[:len(code)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, code)
	}
	switch code[len(code)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTimeframe, code)
}

type bar struct {
	end           int64
	o, h, l, c, v float64
}

// Series is an append-only, index-addressable view of OHLCV bars.
type Series struct {
	bars     []bar
	interval time.Duration
}

// Build converts a time-ordered candle list into a Series. The candle Ts is
// taken as the bar open time; end time is Ts plus the bar duration.
func Build(candles []types.Candle, timeframe string) (*Series, error) {
	d, err := BarDuration(timeframe)
	if err != nil {
		return nil, err
	}
	s := &Series{bars: make([]bar, 0, len(candles)), interval: d}
	for _, c := range candles {
		s.Append(c)
	}
	return s, nil
}

// Append adds one candle to the series. A candle whose end time equals the
// last bar's end time is treated as a re-published interim update and
// ignored; an earlier end time is out-of-order and ignored. Only strictly
// later bars are appended.
func (s *Series) Append(c types.Candle) bool {
	end := c.Ts + int64(s.interval/time.Second)
	if n := len(s.bars); n > 0 && end <= s.bars[n-1].end {
		return false
	}
	s.bars = append(s.bars, bar{end: end, o: c.Open, h: c.High, l: c.Low, c: c.Close, v: c.Vol})
	return true
}

func (s *Series) Len() int       { return len(s.bars) }
func (s *Series) LastIndex() int { return len(s.bars) - 1 }

func (s *Series) Open(i int) float64   { return s.bars[i].o }
func (s *Series) High(i int) float64   { return s.bars[i].h }
func (s *Series) Low(i int) float64    { return s.bars[i].l }
func (s *Series) Close(i int) float64  { return s.bars[i].c }
func (s *Series) Volume(i int) float64 { return s.bars[i].v }
func (s *Series) EndTime(i int) int64  { return s.bars[i].end }

func (s *Series) Interval() time.Duration { return s.interval }

// Closes returns the full close-price slice, oldest first.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.c
	}
	return out
}

// Highs returns the full high-price slice, oldest first.
func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.h
	}
	return out
}

// Lows returns the full low-price slice, oldest first.
func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.l
	}
	return out
}
