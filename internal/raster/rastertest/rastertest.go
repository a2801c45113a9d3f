// Package rastertest synthesizes small GeoTIFF files for tests.
package rastertest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Options describes the raster to synthesize. The image is written as
// a classic little-endian TIFF with a single uncompressed strip.
type Options struct {
	Width, Height int
	Pixels        []float64 // row-major band 1 values
	Float32       bool      // float32 samples instead of uint8

	PixelScaleX float64 // positive
	PixelScaleY float64 // positive magnitude, rows run north to south
	OriginX     float64 // top-left corner
	OriginY     float64

	Nodata    *float64
	EPSG      int
	Projected bool // register EPSG as a projected CS instead of geographic
}

// TIFF field types used by the builder.
const (
	typeASCII  = 2
	typeShort  = 3
	typeLong   = 4
	typeDouble = 12
)

type entry struct {
	tag   uint16
	ty    uint16
	count uint32
	data  []byte
}

// Write renders the raster into dir and returns the file path.
func Write(t *testing.T, opts Options) string {
	t.Helper()
	require.Len(t, opts.Pixels, opts.Width*opts.Height, "pixel buffer must match dimensions")

	var pix bytes.Buffer
	bits := 8
	format := 1 // unsigned
	for _, v := range opts.Pixels {
		if opts.Float32 {
			binary.Write(&pix, binary.LittleEndian, math.Float32bits(float32(v)))
		} else {
			pix.WriteByte(uint8(v))
		}
	}
	if opts.Float32 {
		bits = 32
		format = 3
	}

	pixOff := uint32(8)
	extOff := pixOff + uint32(pix.Len())
	var ext bytes.Buffer

	entries := []entry{
		{256, typeLong, 1, long(uint32(opts.Width))},
		{257, typeLong, 1, long(uint32(opts.Height))},
		{258, typeShort, 1, short(uint16(bits))},
		{259, typeShort, 1, short(1)},
		{273, typeLong, 1, long(pixOff)},
		{277, typeShort, 1, short(1)},
		{278, typeLong, 1, long(uint32(opts.Height))},
		{279, typeLong, 1, long(uint32(pix.Len()))},
		{284, typeShort, 1, short(1)},
		{339, typeShort, 1, short(uint16(format))},
		{33550, typeDouble, 3, doubles(opts.PixelScaleX, opts.PixelScaleY, 0)},
		{33922, typeDouble, 6, doubles(0, 0, 0, opts.OriginX, opts.OriginY, 0)},
	}
	if opts.EPSG != 0 {
		key := uint16(2048)
		model := uint16(2) // geographic
		if opts.Projected {
			key = 3072
			model = 1
		}
		entries = append(entries, entry{34735, typeShort, 8, shorts(
			1, 1, 0, 1,
			key, 0, model, uint16(opts.EPSG),
		)})
	}
	if opts.Nodata != nil {
		s := fmt.Sprintf("%g", *opts.Nodata)
		entries = append(entries, entry{42113, typeASCII, uint32(len(s) + 1), append([]byte(s), 0)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	// Lay out external values, then the IFD after them.
	var ifd bytes.Buffer
	binary.Write(&ifd, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&ifd, binary.LittleEndian, e.tag)
		binary.Write(&ifd, binary.LittleEndian, e.ty)
		binary.Write(&ifd, binary.LittleEndian, e.count)
		if len(e.data) <= 4 {
			padded := make([]byte, 4)
			copy(padded, e.data)
			ifd.Write(padded)
		} else {
			binary.Write(&ifd, binary.LittleEndian, extOff+uint32(ext.Len()))
			ext.Write(e.data)
		}
	}
	binary.Write(&ifd, binary.LittleEndian, uint32(0)) // no next IFD

	var file bytes.Buffer
	file.WriteString("II")
	binary.Write(&file, binary.LittleEndian, uint16(42))
	binary.Write(&file, binary.LittleEndian, extOff+uint32(ext.Len())) // IFD offset
	file.Write(pix.Bytes())
	file.Write(ext.Bytes())
	file.Write(ifd.Bytes())

	path := filepath.Join(t.TempDir(), "test.tif")
	require.NoError(t, os.WriteFile(path, file.Bytes(), 0o644))
	return path
}

// Fill returns a constant-valued pixel buffer.
func Fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func short(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func shorts(vs ...uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
	return b
}

func long(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func doubles(vs ...float64) []byte {
	b := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return b
}
