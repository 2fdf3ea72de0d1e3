package engine

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/png2cursor/internal/config"
	"github.com/ivlev/png2cursor/internal/cursor"
	"github.com/ivlev/png2cursor/internal/errs"
	"github.com/ivlev/png2cursor/internal/layout"
	"github.com/ivlev/png2cursor/internal/source"
	"github.com/ivlev/png2cursor/internal/system"
	"github.com/ivlev/png2cursor/internal/timing"
)

type CursorProject struct {
	Request *config.BuildRequest
	Decoder source.Decoder
	Logger  *zap.Logger
}

// Result describes a written cursor.
type Result struct {
	Path    string
	Mode    layout.Mode
	Frames  int
	Jiffies uint32
}

func NewCursorProject(req *config.BuildRequest, dec source.Decoder, log *zap.Logger) *CursorProject {
	if log == nil {
		log = zap.NewNop()
	}
	return &CursorProject{
		Request: req,
		Decoder: dec,
		Logger:  log,
	}
}

// Run builds the cursor described by the request and writes it next to
// the output stem. Nothing is written unless every frame encodes.
func (p *CursorProject) Run(ctx context.Context) (*Result, error) {
	req := p.Request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l, err := layout.ParseFile(req.ConfigPath)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("config parsed",
		zap.String("path", req.ConfigPath),
		zap.Int("sizes", len(l.Sizes)),
		zap.Int("frames", l.FrameCount()))

	frames, mode, err := l.Select(req.SizeKey())
	if err != nil {
		return nil, err
	}

	var data []byte
	var jiffies uint32
	switch mode {
	case layout.Static:
		data, err = p.buildStatic(ctx, frames[0])
	default:
		data, jiffies, err = p.buildAnimated(ctx, frames)
	}
	if err != nil {
		return nil, err
	}

	dest := req.OutputPath(mode)
	if err := writeFileAtomic(dest, data); err != nil {
		return nil, err
	}

	p.Logger.Info("cursor written",
		zap.String("path", dest),
		zap.Stringer("mode", mode),
		zap.Int("size", req.Size),
		zap.Int("frames", len(frames)),
		zap.Uint32("jiffies", jiffies))

	return &Result{Path: dest, Mode: mode, Frames: len(frames), Jiffies: jiffies}, nil
}

func (p *CursorProject) buildStatic(ctx context.Context, frame layout.Frame) ([]byte, error) {
	entries, err := p.encodeFrames(ctx, []layout.Frame{frame})
	if err != nil {
		return nil, err
	}
	data, err := cursor.NewIconDir(entries[0]).Bytes()
	if err != nil {
		return nil, errs.Wrap(errs.KindEncoding, "", "cannot encode cursor", err)
	}
	return data, nil
}

func (p *CursorProject) buildAnimated(ctx context.Context, frames []layout.Frame) ([]byte, uint32, error) {
	if err := checkTiming(frames); err != nil {
		return nil, 0, err
	}

	entries, err := p.encodeFrames(ctx, frames)
	if err != nil {
		return nil, 0, err
	}

	dirs := make([]*cursor.IconDir, len(entries))
	for i, e := range entries {
		dirs[i] = cursor.NewIconDir(e)
	}

	// One rate for the whole animation; the first frame sets it.
	rate := timing.ToJiffies(frames[0].DelayMS)
	ani := cursor.NewAni(dirs, uint32(p.Request.Size), rate)
	ani.Title = p.Request.Title
	ani.Author = p.Request.Author

	data, err := ani.Bytes()
	if err != nil {
		return nil, 0, errs.Wrap(errs.KindEncoding, "", "cannot encode animated cursor", err)
	}
	return data, rate, nil
}

// checkTiming requires a delay on every frame of an animation.
func checkTiming(frames []layout.Frame) error {
	for i, f := range frames {
		if f.DelayMS == 0 {
			return errs.New(errs.KindMissingTiming, fmt.Sprintf(
				"the <ms-delay> must be specified for animated cursor (frame %d, %s)", i, f.Path))
		}
	}
	return nil
}

// encodeFrames decodes and encodes frames in parallel. The returned
// entries are in the order of frames; the first failure cancels the rest.
func (p *CursorProject) encodeFrames(ctx context.Context, frames []layout.Frame) ([]*cursor.Entry, error) {
	results := make([]*cursor.Entry, len(frames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(system.Workers(p.Request.Workers, len(frames)))

	for i, f := range frames {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := p.encodeFrame(f)
			if err != nil {
				return err
			}
			results[i] = e
			p.Logger.Debug("frame encoded",
				zap.Int("index", i),
				zap.String("path", f.Path),
				zap.Int("bytes", len(e.Data)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *CursorProject) encodeFrame(f layout.Frame) (*cursor.Entry, error) {
	path := source.Resolve(p.Request.Prefix, f.Path)

	img, err := p.Decoder.Decode(path)
	if err != nil {
		return nil, err
	}

	e, err := cursor.EncodeEntry(img, image.Pt(int(f.XHot), int(f.YHot)), p.Request.EntryFormat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// writeFileAtomic writes data to a temporary file beside path and renames
// it into place, so a failed write never leaves a truncated cursor.
func writeFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return errs.Wrap(errs.KindOutputIO, path, "cannot create cursor file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.KindOutputIO, path, "cannot write cursor file", err)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.KindOutputIO, path, "cannot write cursor file", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errs.Wrap(errs.KindOutputIO, path, "cannot write cursor file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errs.Wrap(errs.KindOutputIO, path, "cannot create cursor file", err)
	}
	return nil
}
