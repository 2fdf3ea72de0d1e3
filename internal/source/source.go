package source

import (
	"image"
	"path/filepath"
)

// MaxDimension is the largest width or height a cursor entry can describe.
const MaxDimension = 256

// Decoder turns a source image file into pixels.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Resolve joins path onto prefix. An empty prefix leaves path relative to
// the working directory, and an absolute path ignores the prefix.
func Resolve(prefix, path string) string {
	if prefix == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(prefix, path)
}
