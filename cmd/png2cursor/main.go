package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ivlev/png2cursor/internal/config"
	"github.com/ivlev/png2cursor/internal/cursor"
	"github.com/ivlev/png2cursor/internal/engine"
	"github.com/ivlev/png2cursor/internal/logger"
	"github.com/ivlev/png2cursor/internal/source"
	"github.com/ivlev/png2cursor/internal/theme"
	"github.com/ivlev/png2cursor/internal/timing"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const usage = `png2cursor builds a Windows cursor (.cur) or animated cursor (.ani)
from PNG images listed in an xcursorgen-style config file:

    <size> <x-hot> <y-hot> <filename> [<ms-delay>]

Several lines with the same <size> make an animated cursor. Delays are
rounded to jiffies (1/60 s) and the first frame's delay is used for the whole
animation, so 30 ms and 40 ms both become 2 jiffies.

`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "[-] %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}

	fs := flag.NewFlagSet("png2cursor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	configPtr := fs.String("config", "", "Path to the config file")
	prefixPtr := fs.String("prefix", settings.Prefix, "Directory holding the images (default: current directory)")
	outputPtr := fs.String("output", "", "Output path without extension; .cur or .ani is appended")
	sizePtr := fs.Int("size", 0, "Nominal size to build; must exist in the config")
	workersPtr := fs.Int("workers", settings.Workers, "Frames encoded in parallel (0 = one per CPU)")
	formatPtr := fs.String("entry-format", settings.EntryFormat, "Image encoding inside the cursor: png or bmp")
	titlePtr := fs.String("title", "", "Title stored in animated cursors")
	authorPtr := fs.String("author", "", "Author stored in animated cursors")
	themePtr := fs.String("theme", "", "YAML file listing several cursors to build")
	inspectPtr := fs.String("inspect", "", "Print the structure of a .cur or .ani file and exit")
	logLevelPtr := fs.String("log-level", settings.LogLevel, "Log level: debug, info, warn, error")
	versionPtr := fs.Bool("version", false, "Print the version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *versionPtr {
		fmt.Fprintf(stdout, "png2cursor %s\n", Version)
		return nil
	}

	if *inspectPtr != "" {
		return inspect(*inspectPtr, stdout)
	}

	log, err := logger.New(*logLevelPtr)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	defer log.Sync()

	format, err := cursor.ParseFormat(*formatPtr)
	if err != nil {
		return err
	}

	if *themePtr != "" {
		base := config.BuildRequest{
			Workers:     *workersPtr,
			EntryFormat: format,
			Author:      *authorPtr,
		}
		return buildTheme(ctx, *themePtr, base, log, stdout)
	}

	req := &config.BuildRequest{
		ConfigPath:  *configPtr,
		Prefix:      *prefixPtr,
		OutputStem:  *outputPtr,
		Size:        *sizePtr,
		Workers:     *workersPtr,
		EntryFormat: format,
		Title:       *titlePtr,
		Author:      *authorPtr,
	}

	project := engine.NewCursorProject(req, source.FileDecoder{}, log)
	res, err := project.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "[+++] %s\n", res.Path)
	return nil
}

func buildTheme(ctx context.Context, path string, base config.BuildRequest, log *zap.Logger, stdout io.Writer) error {
	th, err := theme.ReadTheme(path)
	if err != nil {
		return err
	}
	if base.Author == "" {
		base.Author = th.Author
	}

	for _, it := range th.Cursors {
		req := base
		req.ConfigPath = it.Config
		req.Prefix = it.Prefix
		req.OutputStem = it.Output
		req.Size = it.Size
		req.Title = it.Title

		project := engine.NewCursorProject(&req, source.FileDecoder{}, log.With(zap.String("cursor", it.Name)))
		res, err := project.Run(ctx)
		if err != nil {
			return fmt.Errorf("cursor %s: %w", it.Name, err)
		}
		fmt.Fprintf(stdout, "[+++] %s\n", res.Path)
	}
	return nil
}

func inspect(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ani":
		a, err := cursor.DecodeAni(f)
		if err != nil {
			return fmt.Errorf("cannot read animated cursor %s: %w", path, err)
		}
		h := a.Header
		fmt.Fprintf(w, "%s: animated cursor, %dx%d, %d frames, %d steps, %d jiffies (%.0f ms)\n",
			path, h.Width, h.Height, h.Frames, h.Steps, h.Rate, timing.ToMS(h.Rate))
		if a.Title != "" || a.Author != "" {
			fmt.Fprintf(w, "  title %q, author %q\n", a.Title, a.Author)
		}
		for i, d := range a.Frames {
			printDir(w, fmt.Sprintf("frame %d", i), d)
		}
	default:
		d, err := cursor.DecodeIconDir(f)
		if err != nil {
			return fmt.Errorf("cannot read cursor %s: %w", path, err)
		}
		fmt.Fprintf(w, "%s: static cursor, %d entries\n", path, len(d.Entries))
		printDir(w, "entry", d)
	}
	return nil
}

func printDir(w io.Writer, label string, d *cursor.IconDir) {
	for _, e := range d.Entries {
		fmt.Fprintf(w, "  %s: %dx%d %s, hotspot (%d,%d), %d bytes\n",
			label, e.Width, e.Height, e.Format(), e.Hotspot.X, e.Hotspot.Y, len(e.Data))
	}
}
