// Package errs defines the failure classes of a cursor build.
//
// Every failure is reported as an *Error carrying its Kind plus the file
// and line it was detected at. errors.Is matches on Kind, so callers test
// with the exported sentinels regardless of how deep the error is wrapped.
package errs

import "fmt"

type Kind int

const (
	KindUnknown Kind = iota
	KindConfigIO
	KindConfigSyntax
	KindSizeNotFound
	KindMissingTiming
	KindImageIO
	KindEncoding
	KindOutputIO
	KindInvalidOutputPath
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown error",
	KindConfigIO:          "config i/o error",
	KindConfigSyntax:      "config syntax error",
	KindSizeNotFound:      "size not found",
	KindMissingTiming:     "missing timing",
	KindImageIO:           "image i/o error",
	KindEncoding:          "encoding error",
	KindOutputIO:          "output i/o error",
	KindInvalidOutputPath: "invalid output path",
	KindInternal:          "internal error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is.
var (
	ErrConfigIO          = &Error{Kind: KindConfigIO, Line: -1}
	ErrConfigSyntax      = &Error{Kind: KindConfigSyntax, Line: -1}
	ErrSizeNotFound      = &Error{Kind: KindSizeNotFound, Line: -1}
	ErrMissingTiming     = &Error{Kind: KindMissingTiming, Line: -1}
	ErrImageIO           = &Error{Kind: KindImageIO, Line: -1}
	ErrEncoding          = &Error{Kind: KindEncoding, Line: -1}
	ErrOutputIO          = &Error{Kind: KindOutputIO, Line: -1}
	ErrInvalidOutputPath = &Error{Kind: KindInvalidOutputPath, Line: -1}
	ErrInternal          = &Error{Kind: KindInternal, Line: -1}
)

// Error is a classified build failure. Line is a 0-based line index into
// Path, or -1 when the failure is not tied to a line.
type Error struct {
	Kind Kind
	Path string
	Line int
	Msg  string
	Err  error
}

// New returns an error of the given kind with no path context.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Line: -1, Msg: msg}
}

// Wrap classifies err under kind, recording the file it concerns.
func Wrap(kind Kind, path, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Line: -1, Msg: msg, Err: err}
}

// AtLine classifies err under kind at a 0-based line of path.
func AtLine(kind Kind, path string, line int, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Line: line, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Line >= 0 && e.Path != "":
		msg = fmt.Sprintf("%s (at line %d of %s)", msg, e.Line, e.Path)
	case e.Line >= 0:
		msg = fmt.Sprintf("%s (at line %d)", msg, e.Line)
	case e.Path != "":
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
