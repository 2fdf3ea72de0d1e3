package cursor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
)

// TypeCursor is the ICONDIR resource type of .cur files.
const TypeCursor = 2

const (
	iconDirSize   = 6
	iconEntrySize = 16
)

// IconDir is a cursor directory: the content of a .cur file and of every
// frame of an .ani file.
type IconDir struct {
	Entries []*Entry
}

// NewIconDir returns a directory holding the given entries.
func NewIconDir(entries ...*Entry) *IconDir {
	return &IconDir{Entries: entries}
}

// Bytes returns the encoded directory.
func (d *IconDir) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the directory, its entry records and the image data to w.
func (d *IconDir) Encode(w io.Writer) error {
	if len(d.Entries) == 0 || len(d.Entries) > 0xffff {
		return fmt.Errorf("cursor directory must hold 1..65535 entries, has %d", len(d.Entries))
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(TypeCursor))
	binary.Write(&buf, binary.LittleEndian, uint16(len(d.Entries)))

	offset := iconDirSize + iconEntrySize*len(d.Entries)
	for _, e := range d.Entries {
		if e.Width < 1 || e.Width > 256 || e.Height < 1 || e.Height > 256 {
			return fmt.Errorf("entry is %dx%d, cursor entries are at most 256x256", e.Width, e.Height)
		}
		buf.WriteByte(dimByte(e.Width))
		buf.WriteByte(dimByte(e.Height))
		buf.WriteByte(0) // color count
		buf.WriteByte(0) // reserved
		binary.Write(&buf, binary.LittleEndian, uint16(e.Hotspot.X))
		binary.Write(&buf, binary.LittleEndian, uint16(e.Hotspot.Y))
		binary.Write(&buf, binary.LittleEndian, uint32(len(e.Data)))
		binary.Write(&buf, binary.LittleEndian, uint32(offset))
		offset += len(e.Data)
	}
	for _, e := range d.Entries {
		buf.Write(e.Data)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// 256 is stored as 0.
func dimByte(n int) byte {
	return byte(n & 0xff)
}

func dimValue(b byte) int {
	if b == 0 {
		return 256
	}
	return int(b)
}

// DecodeIconDir parses a cursor directory as written by Encode.
func DecodeIconDir(r io.Reader) (*IconDir, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseIconDir(data)
}

func parseIconDir(data []byte) (*IconDir, error) {
	if len(data) < iconDirSize {
		return nil, errors.New("cursor directory is truncated")
	}
	le := binary.LittleEndian
	if typ := le.Uint16(data[2:]); typ != TypeCursor {
		return nil, fmt.Errorf("resource type %d is not a cursor", typ)
	}
	n := int(le.Uint16(data[4:]))
	if len(data) < iconDirSize+n*iconEntrySize {
		return nil, errors.New("cursor directory entries are truncated")
	}

	d := &IconDir{}
	for i := 0; i < n; i++ {
		rec := data[iconDirSize+i*iconEntrySize:]
		size := int(le.Uint32(rec[8:]))
		off := int(le.Uint32(rec[12:]))
		if off < 0 || size < 0 || off+size > len(data) {
			return nil, fmt.Errorf("entry %d data lies outside the file", i)
		}
		d.Entries = append(d.Entries, &Entry{
			Width:   dimValue(rec[0]),
			Height:  dimValue(rec[1]),
			Hotspot: image.Pt(int(le.Uint16(rec[4:])), int(le.Uint16(rec[6:]))),
			Data:    data[off : off+size],
		})
	}
	return d, nil
}
