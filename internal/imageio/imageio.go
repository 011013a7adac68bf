// Package imageio loads the image and mask files the extraction pipeline
// consumes and converts between mask matrices and renderable images.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"gonum.org/v1/gonum/mat"
)

// SupportedFormats lists the file extensions the registered decoders accept.
var SupportedFormats = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

// IsSupportedFormat reports whether the file at path has a decodable
// image extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range SupportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}

// LoadImage decodes the image file at path.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// LoadMask decodes the mask file at path and binarizes it into a dense
// matrix of 0/1 values.
func LoadMask(path string) (*mat.Dense, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return Binarize(img), nil
}

// Binarize converts an image into a 0/1 matrix, one row per pixel row.
// A pixel is foreground when the first channel of its color is non-zero,
// which covers both grayscale masks and RGB masks with labels in red.
func Binarize(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	data := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if r > 0 {
				data[y*w+x] = 1
			}
		}
	}
	return mat.NewDense(h, w, data)
}

// GrayFromMatrix renders a 0/1 mask matrix as an 8-bit grayscale image,
// scaling foreground to 255 so the result is visually inspectable.
func GrayFromMatrix(m mat.Matrix) *image.Gray {
	h, w := m.Dims()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.At(y, x) > 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}
