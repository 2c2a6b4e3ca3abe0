package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunningStats(t *testing.T) {
	t.Run("matches batch population statistics", func(t *testing.T) {
		values := []float64{10, 10, 10, 10, 10, 10, 50}
		var rs RunningStats
		for _, v := range values {
			rs.Add(v)
		}

		assert.Equal(t, 7, rs.Count())
		assert.InDelta(t, Mean(values), rs.Mean(), 1e-9)
		assert.InDelta(t, PopulationStdDev(values), rs.StdDev(), 1e-9)
		assert.InDelta(t, 14.0, rs.StdDev(), 0.01)
	})

	t.Run("constant series has exactly zero deviation", func(t *testing.T) {
		var rs RunningStats
		for i := 0; i < 6; i++ {
			rs.Add(10)
		}
		assert.Equal(t, 0.0, rs.StdDev())
	})

	t.Run("single sample has zero deviation", func(t *testing.T) {
		var rs RunningStats
		rs.Add(42)
		assert.Equal(t, 42.0, rs.Mean())
		assert.Equal(t, 0.0, rs.StdDev())
	})
}

func TestMeanStdDev(t *testing.T) {
	t.Run("population deviation", func(t *testing.T) {
		mean, std := MeanStdDev([]float64{10, 10, 10, 10, 10, 10, 50})
		assert.InDelta(t, 110.0/7, mean, 1e-9)
		assert.InDelta(t, 14.0, std, 0.01)
	})

	t.Run("short inputs", func(t *testing.T) {
		mean, std := MeanStdDev([]float64{42})
		assert.Equal(t, 42.0, mean)
		assert.Equal(t, 0.0, std)

		mean, std = MeanStdDev(nil)
		assert.Equal(t, 0.0, mean)
		assert.Equal(t, 0.0, std)
	})
}

func TestSample(t *testing.T) {
	s := Sample{2, 4, 4, 4, 5, 5, 7, 9}
	assert.Equal(t, 8, s.Count())
	assert.InDelta(t, 5.0, s.Mean(), 1e-12)
	assert.InDelta(t, 2.0, s.StdDev(), 1e-12)
	assert.Equal(t, 0.0, Sample{3}.StdDev())
}

func TestPercentile(t *testing.T) {
	values := []float64{15, 20, 35, 40, 50}

	assert.Equal(t, 15.0, Percentile(values, 0))
	assert.Equal(t, 35.0, Percentile(values, 50))
	assert.Equal(t, 50.0, Percentile(values, 100))
	assert.InDelta(t, 20.0, Percentile(values, 25), 1e-9)
	assert.InDelta(t, 46.0, Percentile(values, 90), 1e-9)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 90))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, Median([]float64{5, 3, 1}))
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_ = Percentile(values, 50)
	assert.Equal(t, []float64{3, 1, 2}, values)
}
