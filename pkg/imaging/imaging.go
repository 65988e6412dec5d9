// Package imaging provides the fixed image pre-processing the pipeline
// relies on: decoding with EXIF orientation correction, bounded resize with
// JPEG compression, fractional-region cropping, and source path resolution.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	_ "image/png"

	"golang.org/x/image/draw"
)

// Defaults for the normalize/compress step applied before every remote
// service call and before dispatch copies.
const (
	MaxDimension = 1024
	Quality      = 85
)

var extensions = []string{".jpg", ".jpeg", ".png", ".JPG", ".JPEG", ".PNG"}

// IsImagePath reports whether the path carries a supported image extension.
func IsImagePath(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Identity returns the image identity for a path: the base filename with
// its extension stripped.
func Identity(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Resolve locates the source image for an identity in dir by trying the
// common extension guesses. Returns ErrNotFound when no candidate exists.
func Resolve(dir, identity string) (string, error) {
	for _, ext := range extensions {
		candidate := filepath.Join(dir, identity+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, identity)
}

// Load reads and decodes the image at path, correcting EXIF orientation.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecodeFailed, filepath.Base(path), err)
	}

	return orient(img, orientation(data)), nil
}

// Compress scales the image down to maxSize on its longest edge (never up)
// and encodes it as JPEG at the given quality.
func Compress(img image.Image, maxSize, quality int) ([]byte, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if longest := max(w, h); longest > maxSize {
		scale := float64(maxSize) / float64(longest)
		nw := int(float64(w) * scale)
		nh := int(float64(h) * scale)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// LoadCompressed is the standard pre-processing step: orientation-corrected
// decode followed by the default resize/compress.
func LoadCompressed(path string) ([]byte, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compress(img, MaxDimension, Quality)
}

// CropRegion extracts the region given by fractional coordinates (0–1 of
// the image dimensions), padding it out to at least minW×minH pixels
// centered on the region and clamped to the image bounds.
func CropRegion(img image.Image, left, top, width, height float64, minW, minH int) image.Image {
	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()

	x0 := int(left * float64(imgW))
	y0 := int(top * float64(imgH))
	x1 := int((left + width) * float64(imgW))
	y1 := int((top + height) * float64(imgH))

	if x1-x0 < minW {
		extra := minW - (x1 - x0)
		x0 = max(0, x0-extra/2)
		x1 = min(imgW, x1+extra/2)
	}
	if y1-y0 < minH {
		extra := minH - (y1 - y0)
		y0 = max(0, y0-extra/2)
		y1 = min(imgH, y1+extra/2)
	}

	x0 = max(0, x0)
	y0 = max(0, y0)
	x1 = min(imgW, x1)
	y1 = min(imgH, y1)
	if x1 <= x0 || y1 <= y0 {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, x1-x0, y1-y0))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min.Add(image.Pt(x0, y0)), draw.Src)
	return dst
}
