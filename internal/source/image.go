package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/png2cursor/internal/errs"
)

// FileDecoder decodes images from the local filesystem. PNG is the usual
// input; JPEG, GIF, BMP and WebP are accepted too.
type FileDecoder struct{}

func (FileDecoder) Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindImageIO, path, "cannot open image file", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errs.Wrap(errs.KindImageIO, path, "cannot read image file", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w < 1 || h < 1 || w > MaxDimension || h > MaxDimension {
		return nil, errs.Wrap(errs.KindImageIO, path, "cannot read image file",
			fmt.Errorf("image is %dx%d, width and height must be within 1..%d", w, h, MaxDimension))
	}

	return img, nil
}
