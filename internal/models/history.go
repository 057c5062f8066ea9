package models

import "time"

// UsagePoint is one recorded usage observation, as stored in the history
// database and plotted in the TUI chart.
type UsagePoint struct {
	Timestamp  time.Time
	TotalUsage int
	UsageLimit int
	Percent    float64
}

// TimeRange selects how far back history queries reach.
type TimeRange int

const (
	RangeHour TimeRange = iota
	RangeDay
	RangeWeek
	RangeMonth
)

// Duration converts the range to a concrete lookback window.
func (r TimeRange) Duration() time.Duration {
	switch r {
	case RangeHour:
		return time.Hour
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// String returns the label shown in the history chart caption.
func (r TimeRange) String() string {
	switch r {
	case RangeHour:
		return "1h"
	case RangeDay:
		return "24h"
	case RangeWeek:
		return "7d"
	case RangeMonth:
		return "30d"
	default:
		return "24h"
	}
}
