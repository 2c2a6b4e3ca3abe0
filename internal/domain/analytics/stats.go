package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RunningStats accumulates count, mean and population variance in one pass
// (Welford's method). The detector reads the trailing statistics after every
// sample, which a batch call would have to recompute from scratch each day.
type RunningStats struct {
	n    int
	mean float64
	m2   float64
}

// Add folds one sample into the accumulator
func (s *RunningStats) Add(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// Count returns the number of samples
func (s *RunningStats) Count() int {
	return s.n
}

// Mean returns the sample mean, 0 when empty
func (s *RunningStats) Mean() float64 {
	return s.mean
}

// StdDev returns the population standard deviation, 0 for fewer than two samples
func (s *RunningStats) StdDev() float64 {
	if s.n < 2 {
		return 0
	}
	v := s.m2 / float64(s.n)
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

// Sample is a batch of readings summarized in one go
type Sample []float64

// Count returns the number of values
func (s Sample) Count() int {
	return len(s)
}

// Mean of the sample. Callers must check Count() > 0.
func (s Sample) Mean() float64 {
	return stat.Mean(s, nil)
}

// StdDev returns the population standard deviation, 0 for fewer than two values
func (s Sample) StdDev() float64 {
	_, std := MeanStdDev(s)
	return std
}

// Mean of values. Callers must check len(values) > 0.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// MeanStdDev returns the mean and population standard deviation. The
// deviation is 0 for fewer than two values.
func MeanStdDev(values []float64) (mean, std float64) {
	if len(values) < 2 {
		if len(values) == 1 {
			return values[0], 0
		}
		return 0, 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// PopulationStdDev returns the population standard deviation; 0 for fewer than two values
func PopulationStdDev(values []float64) float64 {
	_, std := MeanStdDev(values)
	return std
}

// Median of values. Callers must check len(values) > 0.
func Median(values []float64) float64 {
	return Percentile(values, 50)
}

// Percentile interpolates linearly between closest ranks over n-1 intervals,
// so the median of an even count is the midpoint of the middle pair.
// p is in [0, 100]. Callers must check len(values) > 0.
func Percentile(values []float64, p float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	rank := p / 100 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return s[lo]
	}
	return s[lo] + (s[hi]-s[lo])*(rank-float64(lo))
}
