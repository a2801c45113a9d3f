// Package render classifies clipped pixel values into the legend color
// ramp and draws the map-overlay PNG.
package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
	"github.com/vmrc/terraclip/internal/stats"
)

// colorRamp is the green to yellow to orange to red legend, one entry
// per histogram bin.
var colorRamp = [model.HistogramBins]color.NRGBA{
	{R: 0, G: 100, B: 0, A: 255},
	{R: 0, G: 128, B: 0, A: 255},
	{R: 0, G: 160, B: 0, A: 255},
	{R: 128, G: 180, B: 0, A: 255},
	{R: 180, G: 200, B: 0, A: 255},
	{R: 255, G: 220, B: 0, A: 255},
	{R: 255, G: 180, B: 0, A: 255},
	{R: 255, G: 140, B: 0, A: 255},
	{R: 255, G: 80, B: 0, A: 255},
	{R: 200, G: 0, B: 0, A: 255},
}

// ClassifyColor returns the legend color for a pixel value. Values
// outside [0,100] clamp to the end bins.
func ClassifyColor(v float64) color.NRGBA {
	return colorRamp[stats.BinIndex(v)]
}

// Overlay draws the buffered clip as an RGBA image. Alpha is exactly
// 255 on valid pixels and exactly 0 elsewhere; color channels on
// invalid pixels stay zero. No smoothing is applied, so the image is
// a per-pixel exact rendering at native resolution.
func Overlay(pixels []float64, valid []bool, width, height int) (*image.NRGBA, error) {
	if len(pixels) != width*height || len(valid) != len(pixels) {
		return nil, eris.Wrapf(model.ErrInternalInvariant,
			"render: pixel buffer %d does not match %dx%d window", len(pixels), width, height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, v := range pixels {
		if !valid[i] {
			continue
		}
		c := ClassifyColor(v)
		off := i * 4
		img.Pix[off] = c.R
		img.Pix[off+1] = c.G
		img.Pix[off+2] = c.B
		img.Pix[off+3] = 255
	}
	return img, nil
}

// EncodePNG encodes the overlay losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, eris.Wrapf(model.ErrResourceFailure, "render: encode png: %v", err)
	}
	return buf.Bytes(), nil
}
