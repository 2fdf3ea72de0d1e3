package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/png2cursor/internal/config"
	"github.com/ivlev/png2cursor/internal/cursor"
	"github.com/ivlev/png2cursor/internal/errs"
	"github.com/ivlev/png2cursor/internal/layout"
	"github.com/ivlev/png2cursor/internal/source"
)

func writePNG(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	img.SetNRGBA(1, 1, color.NRGBA{G: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeConfig(t *testing.T, dir, data string) string {
	t.Helper()
	path := filepath.Join(dir, "cursors.cfg")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

// countingDecoder records how many images were decoded.
type countingDecoder struct {
	source.Decoder
	calls atomic.Int32
}

func (d *countingDecoder) Decode(path string) (image.Image, error) {
	d.calls.Add(1)
	return d.Decoder.Decode(path)
}

// stubDecoder returns a blank image of the size given per path, after an
// optional per-path delay.
type stubDecoder struct {
	sizes  map[string]int
	delays map[string]time.Duration
}

func (d *stubDecoder) Decode(path string) (image.Image, error) {
	time.Sleep(d.delays[path])
	n, ok := d.sizes[path]
	if !ok {
		return nil, errs.Wrap(errs.KindImageIO, path, "cannot open image file", os.ErrNotExist)
	}
	return image.NewNRGBA(image.Rect(0, 0, n, n)), nil
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRunStatic(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "x2", "cur.png"), 32)
	cfg := writeConfig(t, dir, "32 8 8 cur.png\n")
	out := filepath.Join(dir, "out", "arrow")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0755))

	req := &config.BuildRequest{
		ConfigPath: cfg,
		Prefix:     filepath.Join(dir, "x2"),
		OutputStem: out,
		Size:       32,
	}
	res, err := NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, out+".cur", res.Path)
	assert.Equal(t, layout.Static, res.Mode)

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()
	d, err := cursor.DecodeIconDir(f)
	require.NoError(t, err)
	require.Len(t, d.Entries, 1)
	assert.Equal(t, image.Pt(8, 8), d.Entries[0].Hotspot)
	assert.Equal(t, 32, d.Entries[0].Width)

	assert.Equal(t, []string{"arrow.cur"}, listDir(t, filepath.Dir(out)))
}

func TestRunAnimated(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 32)
	writePNG(t, filepath.Join(dir, "b.png"), 32)
	writePNG(t, filepath.Join(dir, "big.png"), 48)
	cfg := writeConfig(t, dir, "32 1 2 a.png 30\n48 0 0 big.png\n32 3 4 b.png 40\n")

	req := &config.BuildRequest{
		ConfigPath: cfg,
		Prefix:     dir,
		OutputStem: filepath.Join(dir, "busy"),
		Size:       32,
		Title:      "Busy",
	}
	res, err := NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, layout.Animated, res.Mode)
	assert.Equal(t, filepath.Join(dir, "busy.ani"), res.Path)
	assert.Equal(t, uint32(2), res.Jiffies)

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()
	a, err := cursor.DecodeAni(f)
	require.NoError(t, err)

	assert.Equal(t, uint32(2), a.Header.Frames)
	assert.Equal(t, a.Header.Frames, a.Header.Steps)
	assert.Equal(t, uint32(32), a.Header.Width)
	assert.Equal(t, uint32(32), a.Header.Height)
	assert.Equal(t, uint32(2), a.Header.Rate)
	assert.Equal(t, "Busy", a.Title)
	require.Len(t, a.Frames, 2)
	assert.Equal(t, image.Pt(1, 2), a.Frames[0].Entries[0].Hotspot)
	assert.Equal(t, image.Pt(3, 4), a.Frames[1].Entries[0].Hotspot)
}

func TestRunMissingTimingDecodesNothing(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 32)
	writePNG(t, filepath.Join(dir, "b.png"), 32)
	cfg := writeConfig(t, dir, "32 1 1 a.png 30\n32 1 1 b.png\n")

	dec := &countingDecoder{Decoder: source.FileDecoder{}}
	req := &config.BuildRequest{ConfigPath: cfg, Prefix: dir, OutputStem: filepath.Join(dir, "busy"), Size: 32}
	_, err := NewCursorProject(req, dec, nil).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMissingTiming)
	assert.Equal(t, int32(0), dec.calls.Load())
	assert.NoFileExists(t, filepath.Join(dir, "busy.ani"))
}

func TestRunSizeNotFound(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "32 8 8 cur.png\n")

	req := &config.BuildRequest{ConfigPath: cfg, OutputStem: filepath.Join(dir, "arrow"), Size: 48}
	_, err := NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrSizeNotFound)
}

func TestRunInvalidOutputBeforeParsing(t *testing.T) {
	req := &config.BuildRequest{ConfigPath: "/does/not/exist.cfg", OutputStem: "/tmp/", Size: 32}
	_, err := NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrInvalidOutputPath)
}

func TestRunConfigErrors(t *testing.T) {
	dir := t.TempDir()

	req := &config.BuildRequest{ConfigPath: filepath.Join(dir, "missing.cfg"), OutputStem: filepath.Join(dir, "x"), Size: 32}
	_, err := NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrConfigIO)

	req.ConfigPath = writeConfig(t, dir, "32 8 8 a.png\n32 8 8\n")
	_, err = NewCursorProject(req, source.FileDecoder{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrConfigSyntax)
	assert.Contains(t, err.Error(), "at line 1")
}

func TestRunFrameFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "32 1 1 a.png 30\n32 1 1 missing.png 30\n32 1 1 c.png 30\n")

	dec := &stubDecoder{sizes: map[string]int{"a.png": 32, "c.png": 32}}
	req := &config.BuildRequest{ConfigPath: cfg, OutputStem: filepath.Join(dir, "busy"), Size: 32, Workers: 2}
	_, err := NewCursorProject(req, dec, nil).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrImageIO)
	assert.Contains(t, err.Error(), "missing.png")
	assert.Equal(t, []string{"cursors.cfg"}, listDir(t, dir))
}

func TestRunHotspotOutsideImage(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "32 40 1 a.png\n")

	dec := &stubDecoder{sizes: map[string]int{"a.png": 32}}
	req := &config.BuildRequest{ConfigPath: cfg, OutputStem: filepath.Join(dir, "arrow"), Size: 32}
	_, err := NewCursorProject(req, dec, nil).Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrEncoding)
	assert.Contains(t, err.Error(), "a.png")
}

func TestEncodeFramesKeepsDeclaredOrder(t *testing.T) {
	frames := []layout.Frame{
		{Size: 16, XHot: 0, Path: "slow.png", DelayMS: 10},
		{Size: 16, XHot: 1, Path: "medium.png", DelayMS: 10},
		{Size: 16, XHot: 2, Path: "fast.png", DelayMS: 10},
	}
	dec := &stubDecoder{
		sizes: map[string]int{"slow.png": 16, "medium.png": 16, "fast.png": 16},
		delays: map[string]time.Duration{
			"slow.png":   30 * time.Millisecond,
			"medium.png": 15 * time.Millisecond,
		},
	}
	p := NewCursorProject(&config.BuildRequest{Size: 16, Workers: 3}, dec, nil)

	entries, err := p.encodeFrames(context.Background(), frames)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, e := range entries {
		assert.Equal(t, i, e.Hotspot.X)
	}
}

func TestEncodeFramesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewCursorProject(&config.BuildRequest{Size: 16, Workers: 1}, &stubDecoder{}, nil)
	_, err := p.encodeFrames(ctx, []layout.Frame{{Size: 16, Path: "a.png", DelayMS: 10}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWriteFileAtomicUnwritableDir(t *testing.T) {
	err := writeFileAtomic(filepath.Join(t.TempDir(), "no", "such", "dir", "x.cur"), []byte("x"))
	assert.ErrorIs(t, err, errs.ErrOutputIO)
}
