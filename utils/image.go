package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUnsupportedImageType is returned for uploads that are not JPG or PNG.
var ErrUnsupportedImageType = errors.New("unsupported image type, only jpg and png are accepted")

const profileImageBound = 125

// SaveProfileImage decodes an uploaded JPG/PNG, downscales it to fit within
// 125x125 preserving aspect ratio, and writes it under dir with a randomized
// 16-hex-character filename plus the original extension. Returns the stored
// filename.
func SaveProfileImage(src io.Reader, originalName, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", ErrUnsupportedImageType
	}

	img, format, err := image.Decode(src)
	if err != nil {
		return "", err
	}
	if format != "jpeg" && format != "png" {
		return "", ErrUnsupportedImageType
	}

	img = fitWithin(img, profileImageBound)

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	name := hex.EncodeToString(buf) + ext

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer out.Close()

	switch format {
	case "png":
		err = png.Encode(out, img)
	default:
		err = jpeg.Encode(out, img, &jpeg.Options{Quality: 85})
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}
	return name, nil
}

// fitWithin scales img down so both dimensions fit inside bound. Images
// already within the bound are returned unchanged.
func fitWithin(img image.Image, bound int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= bound && h <= bound {
		return img
	}
	if w >= h {
		h = h * bound / w
		w = bound
	} else {
		w = w * bound / h
		h = bound
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
