// Package cursor encodes Windows cursor resources: single images in the
// ICO/CUR directory format and animated cursors in the RIFF ACON format.
package cursor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	"github.com/ivlev/png2cursor/internal/errs"
)

// Format is the encoding of the image data inside a directory entry.
type Format int

const (
	// FormatPNG stores a complete 32-bit PNG stream (Windows Vista and later).
	FormatPNG Format = iota
	// FormatBMP stores a headerless DIB: BITMAPINFOHEADER, BGRA pixels, AND mask.
	FormatBMP
)

func (f Format) String() string {
	if f == FormatBMP {
		return "bmp"
	}
	return "png"
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatBMP
}

// ParseFormat parses "png" or "bmp", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "png", "":
		return FormatPNG, nil
	case "bmp", "dib":
		return FormatBMP, nil
	}
	return FormatPNG, fmt.Errorf("unknown entry format %q, expected png or bmp", s)
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// Entry is one encoded cursor image with its hotspot.
type Entry struct {
	Width   int
	Height  int
	Hotspot image.Point
	Data    []byte
}

// Format reports how Data is encoded.
func (e *Entry) Format() Format {
	if bytes.HasPrefix(e.Data, pngMagic) {
		return FormatPNG
	}
	return FormatBMP
}

// EncodeEntry encodes img as a cursor entry. The hotspot is relative to the
// image's top-left corner and must fall inside the image.
func EncodeEntry(img image.Image, hotspot image.Point, format Format) (*Entry, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if !hotspot.In(image.Rect(0, 0, w, h)) {
		return nil, errs.New(errs.KindEncoding,
			fmt.Sprintf("hotspot (%d,%d) lies outside the %dx%d image", hotspot.X, hotspot.Y, w, h))
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	var data []byte
	var err error
	switch format {
	case FormatBMP:
		data = encodeDIB(nrgba)
	case FormatPNG:
		data, err = encodePNG(nrgba)
	default:
		err = fmt.Errorf("unknown entry format %d", int(format))
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindEncoding, "", "cannot encode image to CUR/ANI", err)
	}

	return &Entry{Width: w, Height: h, Hotspot: hotspot, Data: data}, nil
}

func encodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const dibHeaderSize = 40

// encodeDIB lays out a 32 bpp bottom-up bitmap followed by its AND mask.
// The DIB height counts both halves, so it is twice the image height.
func encodeDIB(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	maskStride := (w + 31) / 32 * 4
	xorSize := w * h * 4
	andSize := maskStride * h

	var buf bytes.Buffer
	buf.Grow(dibHeaderSize + xorSize + andSize)
	binary.Write(&buf, binary.LittleEndian, uint32(dibHeaderSize))
	binary.Write(&buf, binary.LittleEndian, int32(w))
	binary.Write(&buf, binary.LittleEndian, int32(h*2))
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32)) // bpp
	binary.Write(&buf, binary.LittleEndian, uint32(0))  // BI_RGB
	binary.Write(&buf, binary.LittleEndian, uint32(xorSize+andSize))
	binary.Write(&buf, binary.LittleEndian, int32(0)) // x ppm
	binary.Write(&buf, binary.LittleEndian, int32(0)) // y ppm
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	pix := make([]byte, xorSize)
	mask := make([]byte, andSize)
	for y := 0; y < h; y++ {
		row := h - 1 - y
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			o := (row*w + x) * 4
			pix[o+0] = c.B
			pix[o+1] = c.G
			pix[o+2] = c.R
			pix[o+3] = c.A
			if c.A == 0 {
				mask[row*maskStride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	buf.Write(pix)
	buf.Write(mask)
	return buf.Bytes()
}
