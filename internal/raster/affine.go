package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// Affine is the 6-parameter pixel-to-world mapping:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// For a north-up raster B and D are 0, A is the pixel width and E the
// (negative) pixel height.
type Affine struct {
	A, B, C, D, E, F float64
}

// Apply maps fractional pixel coordinates to world coordinates.
func (t Affine) Apply(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// Invert returns the world-to-pixel mapping.
func (t Affine) Invert() (Affine, error) {
	det := t.A*t.E - t.B*t.D
	if det == 0 {
		return Affine{}, eris.New("raster: affine transform is not invertible")
	}
	inv := Affine{
		A: t.E / det,
		B: -t.B / det,
		D: -t.D / det,
		E: t.A / det,
	}
	inv.C = -(inv.A*t.C + inv.B*t.F)
	inv.F = -(inv.D*t.C + inv.E*t.F)
	return inv, nil
}

// PixelSize returns the absolute pixel dimensions in world units.
func (t Affine) PixelSize() (w, h float64) {
	return math.Abs(t.A), math.Abs(t.E)
}

// Window is a pixel-aligned region of a raster grid.
type Window struct {
	Col, Row      int
	Width, Height int
}

// Empty reports whether the window has zero size in any dimension.
func (w Window) Empty() bool {
	return w.Width <= 0 || w.Height <= 0
}

// Clamp restricts the window to a width x height raster grid.
func (w Window) Clamp(width, height int) Window {
	c0 := max(0, w.Col)
	r0 := max(0, w.Row)
	c1 := min(width, w.Col+w.Width)
	r1 := min(height, w.Row+w.Height)
	return Window{Col: c0, Row: r0, Width: c1 - c0, Height: r1 - r0}
}

// WindowTransform returns the affine transform of the sub-grid starting
// at the window's origin.
func (t Affine) WindowTransform(w Window) Affine {
	x, y := t.Apply(float64(w.Col), float64(w.Row))
	out := t
	out.C = x
	out.F = y
	return out
}

// WindowFromBounds computes the smallest pixel-aligned window covering
// the world-coordinate rectangle, mirroring a bounds-to-window
// computation with offsets floored and lengths ceiled.
func (t Affine) WindowFromBounds(minX, minY, maxX, maxY float64) (Window, error) {
	inv, err := t.Invert()
	if err != nil {
		return Window{}, err
	}
	corners := [4][2]float64{{minX, minY}, {minX, maxY}, {maxX, minY}, {maxX, maxY}}
	minCol, minRow := math.Inf(1), math.Inf(1)
	maxCol, maxRow := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		col, row := inv.Apply(c[0], c[1])
		minCol = math.Min(minCol, col)
		minRow = math.Min(minRow, row)
		maxCol = math.Max(maxCol, col)
		maxRow = math.Max(maxRow, row)
	}
	c0 := int(math.Floor(minCol))
	r0 := int(math.Floor(minRow))
	c1 := int(math.Ceil(maxCol))
	r1 := int(math.Ceil(maxRow))
	return Window{Col: c0, Row: r0, Width: c1 - c0, Height: r1 - r0}, nil
}

// Bounds returns the world-coordinate rectangle of a width x height
// grid under the transform.
func (t Affine) Bounds(width, height int) (minX, minY, maxX, maxY float64) {
	w, h := float64(width), float64(height)
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		x, y := t.Apply(c[0], c[1])
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return minX, minY, maxX, maxY
}
