// Package layout reads xcursorgen-style layout files.
//
// Each line has the form
//
//	<size> <x-hot> <y-hot> <filename> [<ms-delay>]
//
// and describes one frame of the cursor with the given nominal size.
// Several lines with the same size make an animated cursor whose frames
// play in file order.
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ivlev/png2cursor/internal/errs"
)

// Frame is one parsed layout line.
type Frame struct {
	Size    uint16
	XHot    uint16
	YHot    uint16
	Path    string
	DelayMS uint32
}

// Layout maps nominal sizes to their frames. Sizes keeps the order in
// which each size was first declared; every group is non-empty.
type Layout struct {
	Path   string
	Sizes  []uint16
	Groups map[uint16][]Frame
}

func newLayout(path string) *Layout {
	return &Layout{
		Path:   path,
		Groups: make(map[uint16][]Frame),
	}
}

func (l *Layout) add(f Frame) {
	if _, ok := l.Groups[f.Size]; !ok {
		l.Sizes = append(l.Sizes, f.Size)
	}
	l.Groups[f.Size] = append(l.Groups[f.Size], f)
}

// FrameCount returns the total number of frames over all sizes.
func (l *Layout) FrameCount() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g)
	}
	return n
}

// ParseFile reads and parses the layout file at path.
func ParseFile(path string) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfigIO, path, "cannot open config file", err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse parses layout lines from r. path is only used in error messages.
func Parse(r io.Reader, path string) (*Layout, error) {
	l := newLayout(path)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineLen)
	for i := 0; sc.Scan(); i++ {
		f, err := ParseLine(sc.Text())
		if err != nil {
			return nil, errs.AtLine(errs.KindConfigSyntax, path, i, "invalid config file", err)
		}
		l.add(f)
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Wrap(errs.KindConfigIO, path, "cannot read config file", err)
	}

	return l, nil
}

// maxLineLen bounds a single layout line; long paths must not make the
// scanner give up.
const maxLineLen = 1 << 30

var errFormat = errors.New("unrecognizable format, expected <size> <x-hot> <y-hot> <filename> [<ms-delay>]")

// ParseLine parses a single layout line. Blank lines are rejected.
func ParseLine(line string) (Frame, error) {
	cols := strings.FieldsFunc(line, isASCIISpace)
	if len(cols) != 4 && len(cols) != 5 {
		return Frame{}, fmt.Errorf("%w, got %d fields", errFormat, len(cols))
	}

	size, err := parseUint(cols[0], 16, "<size>")
	if err != nil {
		return Frame{}, err
	}
	x, err := parseUint(cols[1], 16, "<x-hot>")
	if err != nil {
		return Frame{}, err
	}
	y, err := parseUint(cols[2], 16, "<y-hot>")
	if err != nil {
		return Frame{}, err
	}

	var delay uint64
	if len(cols) == 5 {
		delay, err = parseUint(cols[4], 32, "<ms-delay>")
		if err != nil {
			return Frame{}, err
		}
	}

	return Frame{
		Size:    uint16(size),
		XHot:    uint16(x),
		YHot:    uint16(y),
		Path:    cols[3],
		DelayMS: uint32(delay),
	}, nil
}

// isASCIISpace reports the field separators: space, tab, LF, FF and CR.
// Vertical tab and non-ASCII spaces belong to the field.
func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func parseUint(s string, bits int, field string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("%s %q is out of range (max %d)", field, s, uint64(1)<<bits-1)
		}
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", field, s)
	}
	return v, nil
}
