package baseline

import (
	"math"
	"testing"
	"time"

	"github.com/adwatch/sentinel/models"
)

func TestCalculate(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		b := Calculate(nil)
		if b.SampleSize != 0 {
			t.Fatalf("SampleSize = %d, want 0", b.SampleSize)
		}
		zero := models.Baseline{}
		if b != zero {
			t.Errorf("empty series baseline = %+v, want all zero", b)
		}
	})

	t.Run("decade series", func(t *testing.T) {
		values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
		b := Calculate(values)

		if b.Mean != 55 {
			t.Errorf("Mean = %v, want 55", b.Mean)
		}
		if b.Median != 55 {
			t.Errorf("Median = %v, want 55", b.Median)
		}
		if b.Min != 10 || b.Max != 100 {
			t.Errorf("Min/Max = %v/%v, want 10/100", b.Min, b.Max)
		}
		if b.SampleSize != 10 {
			t.Errorf("SampleSize = %d, want 10", b.SampleSize)
		}
		if math.Abs(b.IQR-(b.Q3-b.Q1)) > 1e-9 {
			t.Errorf("IQR = %v, want Q3-Q1 = %v", b.IQR, b.Q3-b.Q1)
		}
		if b.Percentile95 < b.Median || b.Percentile95 > b.Max {
			t.Errorf("Percentile95 = %v outside [median, max]", b.Percentile95)
		}
	})

	t.Run("input order does not matter", func(t *testing.T) {
		a := Calculate([]float64{3, 1, 2})
		b := Calculate([]float64{1, 2, 3})
		if a != b {
			t.Errorf("baseline differs by input order: %+v vs %+v", a, b)
		}
	})

	t.Run("zero variance", func(t *testing.T) {
		b := Calculate([]float64{5, 5, 5, 5})
		if b.StdDev != 0 || b.IQR != 0 {
			t.Errorf("StdDev/IQR = %v/%v, want 0/0", b.StdDev, b.IQR)
		}
	})
}

func TestFromSeries(t *testing.T) {
	day := func(i int) time.Time {
		return time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC)
	}
	series := []models.DataPoint{
		{Date: day(0), Value: 10},
		{Date: day(1), Value: 20},
		{Date: day(2), Value: 30},
	}

	b := FromSeries(series)
	if b.Mean != 20 || b.SampleSize != 3 {
		t.Errorf("FromSeries mean/size = %v/%d, want 20/3", b.Mean, b.SampleSize)
	}

	if got := FromSeries(nil); got.SampleSize != 0 {
		t.Errorf("FromSeries(nil).SampleSize = %d, want 0", got.SampleSize)
	}
}
