package stats

import (
	"math"

	"github.com/adwatch/sentinel/models"
)

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// StdDev returns the population standard deviation (divide by N).
// Returns 0 for fewer than two samples or zero-variance input.
func StdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}

	var sumSq float64
	for _, value := range values {
		d := value - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)))
}

// Percentile interpolates linearly between ranks of an already sorted slice.
// The index is p/100 * (n-1); a fractional index interpolates between the
// floor and ceil neighbors. Returns 0 for empty input.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := p / 100 * float64(len(sorted)-1)
	if idx <= 0 {
		return sorted[0]
	}
	if idx >= float64(len(sorted)-1) {
		return sorted[len(sorted)-1]
	}

	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}

	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// ZScore returns (value - mean) / stdDev, or 0 when stdDev is 0.
// The zero return is the contract for degenerate baselines, not an error.
func ZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}

// IQRDistance returns how far value sits outside [q1, q3], in IQR units.
// 0 inside the box or when iqr is 0. Distances above 1.5 are conventionally
// treated as outliers.
func IQRDistance(value, q1, q3, iqr float64) float64 {
	if iqr == 0 {
		return 0
	}
	if value < q1 {
		return (q1 - value) / iqr
	}
	if value > q3 {
		return (value - q3) / iqr
	}
	return 0
}

// MovingAverage returns the sliding mean over contiguous windows.
// Output length is max(0, len(values)-window+1).
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	out := make([]float64, 0, len(values)-window+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// TrendConfig holds the tunable classification thresholds.
type TrendConfig struct {
	// GrowthThresholdPct is the half-over-half relative growth, in percent,
	// beyond which a series counts as increasing or decreasing.
	GrowthThresholdPct float64
	// VolatilityThreshold is the coefficient of variation above which a
	// series is volatile regardless of direction.
	VolatilityThreshold float64
}

// DefaultTrendConfig returns the stock thresholds.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		GrowthThresholdPct:  15,
		VolatilityThreshold: 0.8,
	}
}

// DetectTrend classifies the overall movement of a series by comparing the
// first and second half means. Fewer than three samples is always stable.
func DetectTrend(values []float64, cfg TrendConfig) models.TrendDirection {
	if len(values) < 3 {
		return models.TrendStable
	}

	mean := Mean(values)
	if mean != 0 {
		cv := StdDev(values, mean) / math.Abs(mean)
		if cv > cfg.VolatilityThreshold {
			return models.TrendVolatile
		}
	}

	half := len(values) / 2
	firstMean := Mean(values[:half])
	secondMean := Mean(values[half:])

	if firstMean == 0 {
		if secondMean > 0 {
			return models.TrendIncreasing
		}
		return models.TrendStable
	}

	growthPct := (secondMean - firstMean) / math.Abs(firstMean) * 100
	switch {
	case growthPct > cfg.GrowthThresholdPct:
		return models.TrendIncreasing
	case growthPct < -cfg.GrowthThresholdPct:
		return models.TrendDecreasing
	}
	return models.TrendStable
}
