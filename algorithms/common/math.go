package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics shared by the analysis stages, backed by gonum.

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// PopStdDev returns the population standard deviation (divides by N).
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	_, std := stat.PopMeanStdDev(data, nil)
	return std
}

// Percentile returns the nearest-rank p-th percentile (p in [0, 1]) of an
// already sorted slice: sorted[round(p*(n-1))].
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	idx := int(math.Round(p * float64(len(sorted)-1)))
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

// SortedCopy returns an ascending copy of data.
func SortedCopy(data []float64) []float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return sorted
}

// Median of data (upper middle element for even lengths).
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	sorted := SortedCopy(data)
	return sorted[len(sorted)/2]
}

// LinRegression fits y = slope*x + intercept. With fewer than two points it
// returns zeros; when every x is identical the slope is 0 and the intercept
// is the mean of y.
func LinRegression(x, y []float64) (slope, intercept float64) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, 0
	}
	if floats.Max(x)-floats.Min(x) < 1e-12 {
		return 0, Mean(y)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	return beta, alpha
}

// SumSquares returns the signal energy sum(x^2).
func SumSquares(data []float64) float64 {
	return floats.Dot(data, data)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(SumSquares(data) / float64(len(data)))
}

// RMSdB is the RMS level in dBFS. Empty or all-zero input yields -Inf.
func RMSdB(data []float64) float64 {
	rms := RMS(data)
	if rms == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(rms)
}

// PeakdB is the peak absolute level in dBFS; -Inf for silence.
func PeakdB(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		peak = max(peak, math.Abs(v))
	}
	if peak == 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(peak)
}

// Clamp restricts value to [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
