package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/ivlev/png2cursor/internal/cursor"
	"github.com/ivlev/png2cursor/internal/errs"
	"github.com/ivlev/png2cursor/internal/layout"
)

// Settings are defaults taken from the environment. Command-line flags
// override them.
type Settings struct {
	Workers     int    `env:"PNG2CURSOR_WORKERS"      envDefault:"0"`
	EntryFormat string `env:"PNG2CURSOR_ENTRY_FORMAT" envDefault:"png"`
	LogLevel    string `env:"PNG2CURSOR_LOG_LEVEL"    envDefault:"info"`
	Prefix      string `env:"PNG2CURSOR_PREFIX"`
}

func LoadSettings() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, err
	}
	return s, nil
}

// BuildRequest describes one cursor to build.
type BuildRequest struct {
	ConfigPath  string
	Prefix      string
	OutputStem  string
	Size        int
	Workers     int
	EntryFormat cursor.Format
	Title       string
	Author      string
}

// Validate checks the request before any file is read. The output stem is
// checked first.
func (r *BuildRequest) Validate() error {
	if err := ValidateOutputStem(r.OutputStem); err != nil {
		return err
	}
	if r.ConfigPath == "" {
		return errs.New(errs.KindConfigIO, "no config file given")
	}
	if r.Size < 1 || r.Size > 0xffff {
		return errs.New(errs.KindSizeNotFound, fmt.Sprintf("size %d is out of range 1..65535", r.Size))
	}
	if !r.EntryFormat.Valid() {
		return errs.New(errs.KindEncoding, fmt.Sprintf("unknown entry format %d", int(r.EntryFormat)))
	}
	return nil
}

// ValidateOutputStem rejects stems without a file-name component, such as
// "", "/tmp/" or "..".
func ValidateOutputStem(stem string) error {
	if stem == "" {
		return errs.New(errs.KindInvalidOutputPath, "invalid output path: empty")
	}
	if strings.HasSuffix(stem, "/") || strings.HasSuffix(stem, string(os.PathSeparator)) {
		return errs.Wrap(errs.KindInvalidOutputPath, stem, "invalid output path, no file name in", nil)
	}
	switch filepath.Base(stem) {
	case ".", "..", string(os.PathSeparator):
		return errs.Wrap(errs.KindInvalidOutputPath, stem, "invalid output path, no file name in", nil)
	}
	return nil
}

// SizeKey returns the requested size as stored in a layout.
func (r *BuildRequest) SizeKey() uint16 {
	return uint16(r.Size)
}

// OutputPath returns the destination file for a cursor built in mode.
// The extension is appended, never substituted: "arrow.v2" becomes
// "arrow.v2.cur".
func (r *BuildRequest) OutputPath(mode layout.Mode) string {
	return r.OutputStem + mode.Ext()
}
