package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/strategy-tester/pkg/errors"
)

// Bar is a single OHLCV row for one ticker.
type Bar struct {
	Ticker    string    `yaml:"ticker" json:"ticker" csv:"ticker" parquet:"ticker" validate:"required"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" parquet:"timestamp" validate:"required"`
	Open      float64   `yaml:"open" json:"open" csv:"open" parquet:"open"`
	High      float64   `yaml:"high" json:"high" csv:"high" parquet:"high"`
	Low       float64   `yaml:"low" json:"low" csv:"low" parquet:"low"`
	Close     float64   `yaml:"close" json:"close" csv:"close" parquet:"close"`
	Volume    float64   `yaml:"volume" json:"volume" csv:"volume" parquet:"volume"`
}

// MedianPrice is (high + low) / 2.
func (b Bar) MedianPrice() float64 {
	return (b.High + b.Low) / 2
}

// TypicalPrice is (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// WeightedClose is (high + low + 2*close) / 4.
func (b Bar) WeightedClose() float64 {
	return (b.High + b.Low + 2*b.Close) / 4
}

// TrueRange computes the true range of this bar given the previous close.
// Pass a NaN previous close for the first bar of a series to get high - low.
func (b Bar) TrueRange(previousClose float64) float64 {
	hl := b.High - b.Low
	if math.IsNaN(previousClose) {
		return hl
	}

	hc := math.Abs(b.High - previousClose)
	lc := math.Abs(b.Low - previousClose)

	return math.Max(hl, math.Max(hc, lc))
}

// BarField selects a price or volume component of a bar.
type BarField string

const (
	BarFieldOpen          BarField = "open"
	BarFieldHigh          BarField = "high"
	BarFieldLow           BarField = "low"
	BarFieldClose         BarField = "close"
	BarFieldVolume        BarField = "volume"
	BarFieldMedian        BarField = "median"
	BarFieldTypical       BarField = "typical"
	BarFieldWeightedClose BarField = "weighted_close"
)

// AllBarFields lists the recognized field names, used for config schema enums.
var AllBarFields = []any{
	string(BarFieldOpen),
	string(BarFieldHigh),
	string(BarFieldLow),
	string(BarFieldClose),
	string(BarFieldVolume),
	string(BarFieldMedian),
	string(BarFieldTypical),
	string(BarFieldWeightedClose),
}

// Extract returns the selected component of the bar.
func (f BarField) Extract(b Bar) float64 {
	switch f {
	case BarFieldOpen:
		return b.Open
	case BarFieldHigh:
		return b.High
	case BarFieldLow:
		return b.Low
	case BarFieldClose:
		return b.Close
	case BarFieldVolume:
		return b.Volume
	case BarFieldMedian:
		return b.MedianPrice()
	case BarFieldTypical:
		return b.TypicalPrice()
	case BarFieldWeightedClose:
		return b.WeightedClose()
	default:
		return b.Close
	}
}

// Validate checks that the field names a known bar component.
func (f BarField) Validate() error {
	switch f {
	case BarFieldOpen, BarFieldHigh, BarFieldLow, BarFieldClose,
		BarFieldVolume, BarFieldMedian, BarFieldTypical, BarFieldWeightedClose:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidField, "unknown bar field %q", string(f))
	}
}
