package layout

import (
	"fmt"

	"github.com/ivlev/png2cursor/internal/errs"
)

// Mode tells which container a frame set is built into.
type Mode int

const (
	Static Mode = iota
	Animated
)

func (m Mode) String() string {
	if m == Animated {
		return "animated"
	}
	return "static"
}

// Ext returns the output file extension for the mode.
func (m Mode) Ext() string {
	if m == Animated {
		return ".ani"
	}
	return ".cur"
}

// Select returns the frames declared for size and how they are to be built.
func (l *Layout) Select(size uint16) ([]Frame, Mode, error) {
	frames, ok := l.Groups[size]
	if !ok {
		return nil, Static, errs.Wrap(errs.KindSizeNotFound, l.Path,
			fmt.Sprintf("the size %d does not exist in the config", size), nil)
	}

	switch len(frames) {
	case 0:
		return nil, Static, errs.New(errs.KindInternal, fmt.Sprintf("empty frame group for size %d", size))
	case 1:
		return frames, Static, nil
	default:
		return frames, Animated, nil
	}
}
