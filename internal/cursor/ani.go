package cursor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ivlev/png2cursor/internal/errs"
)

// anih flags.
const (
	FlagIcon     = 0x1 // frames are icon/cursor directories, not raw bitmaps
	FlagSequence = 0x2 // a "seq " chunk orders the steps
)

const anihSize = 36

// Header is the "anih" chunk of an animated cursor. Rate is the display
// time of each step in jiffies (1/60 s).
type Header struct {
	Frames   uint32
	Steps    uint32
	Width    uint32
	Height   uint32
	BitCount uint32
	Planes   uint32
	Rate     uint32
	Flags    uint32
}

// Ani is an animated cursor.
type Ani struct {
	Header Header
	Frames []*IconDir

	// Optional INFO metadata.
	Title  string
	Author string
}

// NewAni returns an animated cursor that steps through frames in order,
// showing each one for rate jiffies.
func NewAni(frames []*IconDir, size, rate uint32) *Ani {
	n := uint32(len(frames))
	return &Ani{
		Header: Header{
			Frames: n,
			Steps:  n,
			Width:  size,
			Height: size,
			Planes: 1,
			Rate:   rate,
			Flags:  FlagIcon,
		},
		Frames: frames,
	}
}

// Bytes returns the encoded RIFF stream.
func (a *Ani) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes the RIFF ACON stream to w.
func (a *Ani) Encode(w io.Writer) error {
	h := a.Header
	if h.Frames != h.Steps || int(h.Frames) != len(a.Frames) {
		return errs.New(errs.KindEncoding, fmt.Sprintf(
			"inconsistent animation header: %d frames, %d steps, %d images", h.Frames, h.Steps, len(a.Frames)))
	}
	if h.Flags&FlagSequence != 0 {
		return errs.New(errs.KindEncoding, "step sequences are not supported")
	}

	var body bytes.Buffer
	body.WriteString("ACON")

	if a.Title != "" || a.Author != "" {
		var info bytes.Buffer
		info.WriteString("INFO")
		if a.Title != "" {
			writeChunk(&info, "INAM", zstring(a.Title))
		}
		if a.Author != "" {
			writeChunk(&info, "IART", zstring(a.Author))
		}
		writeChunk(&body, "LIST", info.Bytes())
	}

	var anih bytes.Buffer
	binary.Write(&anih, binary.LittleEndian, uint32(anihSize))
	binary.Write(&anih, binary.LittleEndian, h)
	writeChunk(&body, "anih", anih.Bytes())

	var fram bytes.Buffer
	fram.WriteString("fram")
	for i, f := range a.Frames {
		data, err := f.Bytes()
		if err != nil {
			return errs.Wrap(errs.KindEncoding, "", fmt.Sprintf("cannot encode frame %d", i), err)
		}
		writeChunk(&fram, "icon", data)
	}
	writeChunk(&body, "LIST", fram.Bytes())

	var riff bytes.Buffer
	writeChunk(&riff, "RIFF", body.Bytes())
	_, err := w.Write(riff.Bytes())
	return err
}

// writeChunk appends a RIFF chunk, padding odd payloads to an even length.
func writeChunk(buf *bytes.Buffer, id string, data []byte) {
	buf.WriteString(id)
	binary.Write(buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	if len(data)%2 == 1 {
		buf.WriteByte(0)
	}
}

func zstring(s string) []byte {
	return append([]byte(s), 0)
}

// DecodeAni parses an animated cursor. Unknown chunks are skipped.
func DecodeAni(r io.Reader) (*Ani, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "ACON" {
		return nil, errors.New("not a RIFF ACON stream")
	}
	size := int(binary.LittleEndian.Uint32(data[4:]))
	if 8+size > len(data) {
		return nil, errors.New("RIFF stream is truncated")
	}

	a := &Ani{}
	seenHeader := false
	err = walkChunks(data[12:8+size], func(id string, payload []byte) error {
		switch id {
		case "anih":
			if len(payload) < anihSize {
				return errors.New("anih chunk is truncated")
			}
			if err := binary.Read(bytes.NewReader(payload[4:anihSize]), binary.LittleEndian, &a.Header); err != nil {
				return err
			}
			seenHeader = true
		case "LIST":
			if len(payload) < 4 {
				return errors.New("LIST chunk is truncated")
			}
			return a.readList(string(payload[:4]), payload[4:])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !seenHeader {
		return nil, errors.New("missing anih chunk")
	}
	return a, nil
}

func (a *Ani) readList(typ string, data []byte) error {
	return walkChunks(data, func(id string, payload []byte) error {
		switch {
		case typ == "fram" && id == "icon":
			d, err := parseIconDir(payload)
			if err != nil {
				return fmt.Errorf("frame %d: %w", len(a.Frames), err)
			}
			a.Frames = append(a.Frames, d)
		case typ == "INFO" && id == "INAM":
			a.Title = strings.TrimRight(string(payload), "\x00")
		case typ == "INFO" && id == "IART":
			a.Author = strings.TrimRight(string(payload), "\x00")
		}
		return nil
	})
}

func walkChunks(data []byte, fn func(id string, payload []byte) error) error {
	for len(data) > 0 {
		if len(data) < 8 {
			return errors.New("chunk header is truncated")
		}
		id := string(data[:4])
		n := int(binary.LittleEndian.Uint32(data[4:]))
		if 8+n > len(data) {
			return fmt.Errorf("chunk %q is truncated", id)
		}
		if err := fn(id, data[8:8+n]); err != nil {
			return err
		}
		next := 8 + n + n%2
		if next > len(data) {
			next = len(data)
		}
		data = data[next:]
	}
	return nil
}
