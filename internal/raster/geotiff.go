// Package raster opens single-band GeoTIFF datasets and exposes their
// metadata (CRS, affine transform, nodata) plus windowed pixel reads.
// Classic and BigTIFF layouts are supported, tiled or stripped, with
// no compression or DEFLATE.
package raster

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/vmrc/terraclip/internal/model"
)

// TIFF header magic values.
const (
	magicLittleEndian  = 0x4949
	magicBigEndian     = 0x4d4d
	tiffIdentifier     = 42
	bigTIFFIdentifier  = 43
	bigTIFFOffsetsSize = 8
)

// TIFF / GeoTIFF tag ids.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
	tagPredictor       = 317
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGeoKeyDirectory = 34735
	tagGDALNodata      = 42113
)

// Compression schemes.
const (
	compressionNone    = 1
	compressionDeflate = 8
	// Some writers use the old-style deflate code.
	compressionDeflateOld = 32946
)

const (
	predictorNone       = 1
	predictorHorizontal = 2
)

// Sample formats.
const (
	sampleFormatUint  = 1
	sampleFormatInt   = 2
	sampleFormatFloat = 3
)

// GeoKey ids within the GeoKeyDirectory tag.
const (
	geoKeyGeographicType  = 2048
	geoKeyProjectedCSType = 3072
	geoKeyUserDefined     = 32767
)

// DType identifies the pixel sample type of a band.
type DType int

const (
	DTypeUnknown DType = iota
	DTypeUint8
	DTypeInt8
	DTypeUint16
	DTypeInt16
	DTypeUint32
	DTypeInt32
	DTypeFloat32
	DTypeFloat64
)

func (d DType) String() string {
	switch d {
	case DTypeUint8:
		return "uint8"
	case DTypeInt8:
		return "int8"
	case DTypeUint16:
		return "uint16"
	case DTypeInt16:
		return "int16"
	case DTypeUint32:
		return "uint32"
	case DTypeInt32:
		return "int32"
	case DTypeFloat32:
		return "float32"
	case DTypeFloat64:
		return "float64"
	}
	return "unknown"
}

// tagValue holds one decoded IFD entry in its widest useful form.
type tagValue struct {
	ints    []uint64
	floats  []float64
	ascii   string
	fieldTy uint16
}

// Handle is an opened raster dataset, scoped to one request. It is
// read-only; Close releases the underlying file and is safe to call
// more than once.
type Handle struct {
	f         *os.File
	path      string
	byteOrder binary.ByteOrder
	bigTIFF   bool

	width, height int
	bands         int
	dtype         DType
	bitsPerSample int
	sampleFormat  int
	compression   int
	predictor     int
	planarConfig  int

	tiled                 bool
	tileWidth, tileLength int
	rowsPerStrip          int
	blockOffsets          []uint64
	blockCounts           []uint64

	transform Affine
	nodata    *float64
	epsg      int
}

// Open parses the GeoTIFF at path. Any I/O or structural failure is
// reported as a resource failure.
func Open(path string) (*Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(model.ErrResourceFailure, "raster: open %s: %v", path, err)
	}
	h := &Handle{f: f, path: path}
	if err := h.parse(); err != nil {
		f.Close()
		return nil, eris.Wrapf(model.ErrResourceFailure, "raster: parse %s: %v", path, err)
	}
	return h, nil
}

// Close releases the file handle.
func (h *Handle) Close() error {
	if h.f == nil {
		return nil
	}
	err := h.f.Close()
	h.f = nil
	return err
}

// Path returns the file path the handle was opened from.
func (h *Handle) Path() string { return h.path }

// Width returns the raster width in pixels.
func (h *Handle) Width() int { return h.width }

// Height returns the raster height in pixels.
func (h *Handle) Height() int { return h.height }

// Bands returns the number of samples per pixel.
func (h *Handle) Bands() int { return h.bands }

// DType returns the pixel sample type.
func (h *Handle) DType() DType { return h.dtype }

// Transform returns the pixel-to-world affine transform.
func (h *Handle) Transform() Affine { return h.transform }

// Nodata returns the declared nodata value, or nil if none is declared.
func (h *Handle) Nodata() *float64 { return h.nodata }

// EPSG returns the native CRS code from the GeoKey directory, or 0 when
// the file does not declare one.
func (h *Handle) EPSG() int { return h.epsg }

// Bounds returns the native-CRS bounding box of the full grid.
func (h *Handle) Bounds() (minX, minY, maxX, maxY float64) {
	return h.transform.Bounds(h.width, h.height)
}

func (h *Handle) parse() error {
	var magic [4]byte
	if _, err := io.ReadFull(h.f, magic[:2]); err != nil {
		return eris.Wrap(err, "read byte order")
	}
	switch binary.BigEndian.Uint16(magic[:2]) {
	case magicLittleEndian:
		h.byteOrder = binary.LittleEndian
	case magicBigEndian:
		h.byteOrder = binary.BigEndian
	default:
		return eris.New("not a TIFF file")
	}

	var ident uint16
	if err := binary.Read(h.f, h.byteOrder, &ident); err != nil {
		return eris.Wrap(err, "read identifier")
	}
	var ifdOffset uint64
	switch ident {
	case tiffIdentifier:
		var off32 uint32
		if err := binary.Read(h.f, h.byteOrder, &off32); err != nil {
			return eris.Wrap(err, "read IFD offset")
		}
		ifdOffset = uint64(off32)
	case bigTIFFIdentifier:
		h.bigTIFF = true
		var size, reserved uint16
		if err := binary.Read(h.f, h.byteOrder, &size); err != nil {
			return eris.Wrap(err, "read BigTIFF bytesize")
		}
		if size != bigTIFFOffsetsSize {
			return eris.New("invalid BigTIFF bytesize")
		}
		if err := binary.Read(h.f, h.byteOrder, &reserved); err != nil {
			return eris.Wrap(err, "read BigTIFF reserved")
		}
		if err := binary.Read(h.f, h.byteOrder, &ifdOffset); err != nil {
			return eris.Wrap(err, "read BigTIFF IFD offset")
		}
	default:
		return eris.Errorf("invalid TIFF identifier %d", ident)
	}
	if ifdOffset == 0 {
		return eris.New("file contains no IFD")
	}

	// Only the first IFD matters: it holds the full-resolution image,
	// later IFDs are overviews.
	tags, err := h.readIFD(ifdOffset)
	if err != nil {
		return err
	}
	return h.applyTags(tags)
}

func (h *Handle) readIFD(offset uint64) (map[uint16]tagValue, error) {
	if _, err := h.f.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, eris.Wrap(err, "seek IFD")
	}
	var numEntries uint64
	if h.bigTIFF {
		if err := binary.Read(h.f, h.byteOrder, &numEntries); err != nil {
			return nil, eris.Wrap(err, "read IFD entry count")
		}
	} else {
		var n16 uint16
		if err := binary.Read(h.f, h.byteOrder, &n16); err != nil {
			return nil, eris.Wrap(err, "read IFD entry count")
		}
		numEntries = uint64(n16)
	}

	entryLen := 12
	if h.bigTIFF {
		entryLen = 20
	}
	block := make([]byte, entryLen*int(numEntries))
	if _, err := io.ReadFull(h.f, block); err != nil {
		return nil, eris.Wrap(err, "read IFD block")
	}

	tags := make(map[uint16]tagValue, numEntries)
	for i := uint64(0); i < numEntries; i++ {
		entry := block[int(i)*entryLen : (int(i)+1)*entryLen]
		tag := h.byteOrder.Uint16(entry[0:2])
		fieldTy := h.byteOrder.Uint16(entry[2:4])
		tyLen := fieldTypeSize(fieldTy)
		if tyLen == 0 {
			continue // unknown field type, skip the tag
		}

		var count, valueOff uint64
		var inline []byte
		if h.bigTIFF {
			count = h.byteOrder.Uint64(entry[4:12])
			valueOff = h.byteOrder.Uint64(entry[12:20])
			inline = entry[12:20]
		} else {
			count = uint64(h.byteOrder.Uint32(entry[4:8]))
			valueOff = uint64(h.byteOrder.Uint32(entry[8:12]))
			inline = entry[8:12]
		}

		total := tyLen * count
		var raw []byte
		if total <= uint64(len(inline)) {
			raw = inline[:total]
		} else {
			raw = make([]byte, total)
			if _, err := h.f.ReadAt(raw, int64(valueOff)); err != nil {
				return nil, eris.Wrapf(err, "read tag %d value", tag)
			}
		}

		v, ok := decodeTagValue(fieldTy, count, raw, h.byteOrder)
		if !ok {
			continue
		}
		tags[tag] = v
	}
	return tags, nil
}

// TIFF field type sizes in bytes, indexed by field type id.
func fieldTypeSize(ty uint16) uint64 {
	switch ty {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12, 16, 17, 18: // RATIONAL, SRATIONAL, DOUBLE, LONG8, SLONG8, IFD8
		return 8
	}
	return 0
}

func decodeTagValue(fieldTy uint16, count uint64, raw []byte, bo binary.ByteOrder) (tagValue, bool) {
	v := tagValue{fieldTy: fieldTy}
	switch fieldTy {
	case 1, 7: // BYTE, UNDEFINED
		v.ints = make([]uint64, count)
		for i := range v.ints {
			v.ints[i] = uint64(raw[i])
		}
	case 2: // ASCII
		v.ascii = string(bytes.Trim(raw, "\x00"))
	case 3: // SHORT
		v.ints = make([]uint64, count)
		for i := range v.ints {
			v.ints[i] = uint64(bo.Uint16(raw[i*2:]))
		}
	case 4: // LONG
		v.ints = make([]uint64, count)
		for i := range v.ints {
			v.ints[i] = uint64(bo.Uint32(raw[i*4:]))
		}
	case 12: // DOUBLE
		v.floats = make([]float64, count)
		for i := range v.floats {
			v.floats[i] = math.Float64frombits(bo.Uint64(raw[i*8:]))
		}
	case 16, 18: // LONG8, IFD8
		v.ints = make([]uint64, count)
		for i := range v.ints {
			v.ints[i] = bo.Uint64(raw[i*8:])
		}
	default:
		return v, false
	}
	return v, true
}

func (t tagValue) firstInt() (uint64, bool) {
	if len(t.ints) == 0 {
		return 0, false
	}
	return t.ints[0], true
}

func (h *Handle) applyTags(tags map[uint16]tagValue) error {
	w, ok := tags[tagImageWidth].firstInt()
	if !ok {
		return eris.New("missing tag: ImageWidth")
	}
	l, ok := tags[tagImageLength].firstInt()
	if !ok {
		return eris.New("missing tag: ImageLength")
	}
	h.width = int(w)
	h.height = int(l)

	h.bands = 1
	if n, ok := tags[tagSamplesPerPixel].firstInt(); ok {
		h.bands = int(n)
	}
	h.bitsPerSample = 8
	if n, ok := tags[tagBitsPerSample].firstInt(); ok {
		h.bitsPerSample = int(n)
	}
	h.sampleFormat = sampleFormatUint
	if n, ok := tags[tagSampleFormat].firstInt(); ok {
		h.sampleFormat = int(n)
	}
	h.compression = compressionNone
	if n, ok := tags[tagCompression].firstInt(); ok {
		h.compression = int(n)
	}
	h.predictor = predictorNone
	if n, ok := tags[tagPredictor].firstInt(); ok {
		h.predictor = int(n)
	}
	h.planarConfig = 1
	if n, ok := tags[tagPlanarConfig].firstInt(); ok {
		h.planarConfig = int(n)
	}

	h.dtype = dtypeFor(h.sampleFormat, h.bitsPerSample)
	if h.dtype == DTypeUnknown {
		return eris.Errorf("unsupported sample layout: format %d, %d bits", h.sampleFormat, h.bitsPerSample)
	}
	switch h.compression {
	case compressionNone, compressionDeflate, compressionDeflateOld:
	default:
		return eris.Errorf("unsupported compression %d", h.compression)
	}

	if off, ok := tags[tagTileOffsets]; ok {
		h.tiled = true
		h.blockOffsets = off.ints
		h.blockCounts = tags[tagTileByteCounts].ints
		tw, ok1 := tags[tagTileWidth].firstInt()
		tl, ok2 := tags[tagTileLength].firstInt()
		if !ok1 || !ok2 {
			return eris.New("tiled image missing TileWidth/TileLength")
		}
		h.tileWidth = int(tw)
		h.tileLength = int(tl)
	} else if off, ok := tags[tagStripOffsets]; ok {
		h.blockOffsets = off.ints
		h.blockCounts = tags[tagStripByteCounts].ints
		h.rowsPerStrip = h.height
		if n, ok := tags[tagRowsPerStrip].firstInt(); ok && n > 0 {
			h.rowsPerStrip = int(n)
		}
	} else {
		return eris.New("missing tile/strip offsets")
	}
	if len(h.blockOffsets) == 0 || len(h.blockOffsets) != len(h.blockCounts) {
		return eris.New("inconsistent block offset/count tags")
	}

	// Affine transform from ModelPixelScale + ModelTiepoint.
	scale, okScale := tags[tagModelPixelScale]
	tie, okTie := tags[tagModelTiepoint]
	if !okScale || len(scale.floats) < 2 || !okTie || len(tie.floats) < 6 {
		return eris.New("missing ModelPixelScale/ModelTiepoint tags")
	}
	px, py := scale.floats[0], scale.floats[1]
	if py > 0 {
		py = -py // north-up convention
	}
	tieCol, tieRow := tie.floats[0], tie.floats[1]
	tieX, tieY := tie.floats[3], tie.floats[4]
	h.transform = Affine{
		A: px, C: tieX - tieCol*px,
		E: py, F: tieY - tieRow*py,
	}

	if nd, ok := tags[tagGDALNodata]; ok && nd.ascii != "" {
		s := strings.TrimSpace(nd.ascii)
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			h.nodata = &v
		}
	}

	if dir, ok := tags[tagGeoKeyDirectory]; ok {
		h.epsg = epsgFromGeoKeys(dir.ints)
	}
	return nil
}

func dtypeFor(sampleFormat, bits int) DType {
	switch sampleFormat {
	case sampleFormatUint:
		switch bits {
		case 8:
			return DTypeUint8
		case 16:
			return DTypeUint16
		case 32:
			return DTypeUint32
		}
	case sampleFormatInt:
		switch bits {
		case 8:
			return DTypeInt8
		case 16:
			return DTypeInt16
		case 32:
			return DTypeInt32
		}
	case sampleFormatFloat:
		switch bits {
		case 32:
			return DTypeFloat32
		case 64:
			return DTypeFloat64
		}
	}
	return DTypeUnknown
}

// epsgFromGeoKeys walks the GeoKeyDirectory entries (groups of four
// shorts: key, location, count, value) and returns the projected CS
// code if present, else the geographic CS code.
func epsgFromGeoKeys(shorts []uint64) int {
	geographic, projected := 0, 0
	for i := 4; i+3 < len(shorts); i += 4 {
		key := shorts[i]
		value := int(shorts[i+3])
		switch key {
		case geoKeyGeographicType:
			if value != geoKeyUserDefined {
				geographic = value
			}
		case geoKeyProjectedCSType:
			if value != geoKeyUserDefined {
				projected = value
			}
		}
	}
	if projected != 0 {
		return projected
	}
	return geographic
}

// ReadWindow reads band 1 of the window as float64 values in row-major
// order. The window must already be clamped to the raster grid.
func (h *Handle) ReadWindow(w Window) ([]float64, error) {
	if h.f == nil {
		return nil, eris.Wrap(model.ErrResourceFailure, "raster: read on closed handle")
	}
	if w.Empty() {
		return nil, eris.Wrap(model.ErrEmptyClipResult, "raster: empty read window")
	}
	if w.Col < 0 || w.Row < 0 || w.Col+w.Width > h.width || w.Row+w.Height > h.height {
		return nil, eris.Errorf("raster: window %+v outside %dx%d grid", w, h.width, h.height)
	}

	out := make([]float64, w.Width*w.Height)
	blocks := map[int][]float64{}

	bw, bh := h.blockSize()
	blocksAcross := (h.width + bw - 1) / bw
	for row := w.Row; row < w.Row+w.Height; row++ {
		blockRow := row / bh
		for col := w.Col; col < w.Col+w.Width; col++ {
			blockCol := col / bw
			idx := blockRow*blocksAcross + blockCol
			data, ok := blocks[idx]
			if !ok {
				var err error
				data, err = h.readBlock(idx)
				if err != nil {
					return nil, err
				}
				blocks[idx] = data
			}
			inBlock := (row%bh)*bw + (col % bw)
			sample := inBlock
			if h.planarConfig == 1 {
				sample = inBlock * h.bands
			}
			if sample >= len(data) {
				return nil, eris.Errorf("raster: pixel index %d outside block %d", sample, idx)
			}
			out[(row-w.Row)*w.Width+(col-w.Col)] = data[sample]
		}
	}
	return out, nil
}

// blockSize returns the pixel dimensions of one tile or strip.
func (h *Handle) blockSize() (w, hgt int) {
	if h.tiled {
		return h.tileWidth, h.tileLength
	}
	return h.width, h.rowsPerStrip
}

// readBlock fetches, decompresses and decodes block idx (a tile or a
// strip of band 1) into float64 samples.
func (h *Handle) readBlock(idx int) ([]float64, error) {
	// With planar configuration 2 the blocks are stored band after
	// band; band 1 occupies the first len/bands entries.
	if h.planarConfig == 2 && h.bands > 0 {
		perBand := len(h.blockOffsets) / h.bands
		if idx >= perBand {
			return nil, eris.Errorf("raster: block %d outside band 1", idx)
		}
	}
	if idx < 0 || idx >= len(h.blockOffsets) {
		return nil, eris.Errorf("raster: block index %d out of range", idx)
	}

	raw := make([]byte, h.blockCounts[idx])
	if _, err := h.f.ReadAt(raw, int64(h.blockOffsets[idx])); err != nil {
		return nil, eris.Wrapf(model.ErrResourceFailure, "raster: read block %d: %v", idx, err)
	}

	switch h.compression {
	case compressionDeflate, compressionDeflateOld:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, eris.Wrapf(err, "raster: open deflate block %d", idx)
		}
		raw, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "raster: inflate block %d", idx)
		}
	}

	if h.predictor == predictorHorizontal {
		bw, _ := h.blockSize()
		undoHorizontalPredictor(raw, h.dtype, bw*h.samplesPerBlockPixel(), h.byteOrder)
	}

	return h.decodeSamples(raw)
}

func (h *Handle) samplesPerBlockPixel() int {
	if h.planarConfig == 1 {
		return h.bands
	}
	return 1
}

func (h *Handle) decodeSamples(raw []byte) ([]float64, error) {
	bo := h.byteOrder
	n := len(raw) / (h.bitsPerSample / 8)
	out := make([]float64, n)
	switch h.dtype {
	case DTypeUint8:
		for i := 0; i < n; i++ {
			out[i] = float64(raw[i])
		}
	case DTypeInt8:
		for i := 0; i < n; i++ {
			out[i] = float64(int8(raw[i]))
		}
	case DTypeUint16:
		for i := 0; i < n; i++ {
			out[i] = float64(bo.Uint16(raw[i*2:]))
		}
	case DTypeInt16:
		for i := 0; i < n; i++ {
			out[i] = float64(int16(bo.Uint16(raw[i*2:])))
		}
	case DTypeUint32:
		for i := 0; i < n; i++ {
			out[i] = float64(bo.Uint32(raw[i*4:]))
		}
	case DTypeInt32:
		for i := 0; i < n; i++ {
			out[i] = float64(int32(bo.Uint32(raw[i*4:])))
		}
	case DTypeFloat32:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(bo.Uint32(raw[i*4:])))
		}
	case DTypeFloat64:
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(bo.Uint64(raw[i*8:]))
		}
	default:
		return nil, eris.Errorf("raster: undecodable sample type %s", h.dtype)
	}
	return out, nil
}

// undoHorizontalPredictor reverses horizontal differencing in place for
// integer samples. rowSamples is the number of samples per block row.
func undoHorizontalPredictor(raw []byte, d DType, rowSamples int, bo binary.ByteOrder) {
	switch d {
	case DTypeUint8, DTypeInt8:
		for off := 0; off+rowSamples <= len(raw); off += rowSamples {
			for i := 1; i < rowSamples; i++ {
				raw[off+i] += raw[off+i-1]
			}
		}
	case DTypeUint16, DTypeInt16:
		rowBytes := rowSamples * 2
		for off := 0; off+rowBytes <= len(raw); off += rowBytes {
			for i := 1; i < rowSamples; i++ {
				prev := bo.Uint16(raw[off+(i-1)*2:])
				cur := bo.Uint16(raw[off+i*2:])
				bo.PutUint16(raw[off+i*2:], cur+prev)
			}
		}
	case DTypeUint32, DTypeInt32:
		rowBytes := rowSamples * 4
		for off := 0; off+rowBytes <= len(raw); off += rowBytes {
			for i := 1; i < rowSamples; i++ {
				prev := bo.Uint32(raw[off+(i-1)*4:])
				cur := bo.Uint32(raw[off+i*4:])
				bo.PutUint32(raw[off+i*4:], cur+prev)
			}
		}
	}
}
