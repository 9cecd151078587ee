// Package baseline turns an ordered daily metric series into the summary
// statistics the detector compares fresh observations against.
package baseline

import (
	"sort"

	"github.com/adwatch/sentinel/internal/stats"
	"github.com/adwatch/sentinel/models"
)

// Calculate builds a Baseline from a chronological series of daily values.
// An empty series yields an all-zero baseline with SampleSize 0; callers must
// check SampleSize before trusting z-score or IQR comparisons.
func Calculate(values []float64) models.Baseline {
	if len(values) == 0 {
		return models.Baseline{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := stats.Mean(values)
	q1 := stats.Percentile(sorted, 25)
	q3 := stats.Percentile(sorted, 75)

	return models.Baseline{
		Mean:         mean,
		StdDev:       stats.StdDev(values, mean),
		Median:       stats.Percentile(sorted, 50),
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Q1:           q1,
		Q3:           q3,
		IQR:          q3 - q1,
		Percentile95: stats.Percentile(sorted, 95),
		SampleSize:   len(values),
	}
}

// FromSeries extracts the values of a dated series and calculates a baseline.
func FromSeries(series []models.DataPoint) models.Baseline {
	if len(series) == 0 {
		return models.Baseline{}
	}
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	return Calculate(values)
}
