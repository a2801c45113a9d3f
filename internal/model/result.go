// Package model defines the clip result payload and the closed error
// kind set shared across the pipeline.
package model

// Statistics summarizes the valid pixels of the unbuffered stats clip.
type Statistics struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Count int     `json:"count"`
}

// HistogramBins is the number of value classes used for both the
// histogram and the overlay color ramp.
const HistogramBins = 10

// Histogram holds per-bin counts and percentages over the stats clip's
// valid pixels with values in [0, 100]. TotalConsidered may be less
// than Statistics.Count when out-of-range values exist.
type Histogram struct {
	Counts          [HistogramBins]int     `json:"counts"`
	Percentages     [HistogramBins]float64 `json:"percentages"`
	TotalConsidered int                    `json:"total_considered"`
}

// GeoBounds is the geographic placement rectangle for the overlay
// image. Always west < east and south < north.
type GeoBounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// SampleResult is the raster value under a single geographic point.
// Value carries the raw pixel value even when IsNodata is set.
type SampleResult struct {
	RasterID string  `json:"raster_id"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Value    float64 `json:"value"`
	IsNodata bool    `json:"is_nodata"`
}

// ClipResult is the serializable outcome of one clip request.
type ClipResult struct {
	RasterID   string     `json:"raster_id"`
	OverlayRef string     `json:"overlay_ref"`
	Bounds     GeoBounds  `json:"bounds"`
	Stats      Statistics `json:"stats"`
	Histogram  Histogram  `json:"histogram"`
}
