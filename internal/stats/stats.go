// Package stats summarizes the valid pixels of a clipped raster into
// descriptive statistics and a fixed ten-bin histogram over [0,100].
package stats

import (
	"math"

	"github.com/vmrc/terraclip/internal/model"
)

// BinIndex maps a pixel value to one of ten histogram bins. Bins cover
// the half-open ranges [0,10) through [80,90) plus the closed range
// [90,100]; out-of-range values clamp to the nearest end bin.
func BinIndex(v float64) int {
	if v >= 100 {
		return model.HistogramBins - 1
	}
	if v < 0 {
		v = 0
	}
	return int(v / 10)
}

// Summarize computes min, max, mean and population standard deviation
// over the pixels marked valid. A single-pixel sample has a standard
// deviation of exactly 0. An all-invalid input yields the zero value.
func Summarize(pixels []float64, valid []bool) model.Statistics {
	var (
		count int
		sum   float64
		min   = math.Inf(1)
		max   = math.Inf(-1)
	)
	for i, v := range pixels {
		if !valid[i] {
			continue
		}
		count++
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if count == 0 {
		return model.Statistics{}
	}

	mean := sum / float64(count)
	std := 0.0
	if count > 1 {
		var ss float64
		for i, v := range pixels {
			if !valid[i] {
				continue
			}
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(count))
	}

	return model.Statistics{Min: min, Max: max, Mean: mean, Std: std, Count: count}
}

// Histogram bins the valid pixels whose values fall within [0,100].
// TotalConsidered counts only those pixels, so it can run below the
// Statistics count when out-of-range values exist. Percentages are in
// percent of the considered subset and are 0 when nothing qualifies.
func Histogram(pixels []float64, valid []bool) model.Histogram {
	var h model.Histogram
	for i, v := range pixels {
		if !valid[i] || v < 0 || v > 100 {
			continue
		}
		h.Counts[BinIndex(v)]++
		h.TotalConsidered++
	}
	if h.TotalConsidered == 0 {
		return h
	}
	for i, c := range h.Counts {
		h.Percentages[i] = float64(c) / float64(h.TotalConsidered) * 100
	}
	return h
}
