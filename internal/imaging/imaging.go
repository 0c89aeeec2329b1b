// File: internal/imaging/imaging.go
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"

	"golang.org/x/image/draw"
)

// JPEGQuality is the compression quality for resized output.
const JPEGQuality = 85

// VariantSuffix marks an object as the resized variant of another.
const VariantSuffix = "_1080x1920"

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Result is a re-encoded image.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Resize decodes a JPEG or PNG, scales it down to width preserving the aspect ratio
// and re-encodes it as JPEG. Images already narrower than width are re-encoded at their size.
func Resize(r io.Reader, width int) (*Result, error) {
	if width < 1 {
		return nil, fmt.Errorf("invalid target width %d", width)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img = scaleToWidth(img, width)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	b := img.Bounds()
	return &Result{Data: buf.Bytes(), MIME: "image/jpeg", Width: b.Dx(), Height: b.Dy()}, nil
}

func scaleToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= width {
		return img
	}

	newH := int(float64(h) * float64(width) / float64(w))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// IsJPEGName reports whether an object name has a .jpg or .jpeg extension.
func IsJPEGName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

// IsVariant reports whether name already is a resized variant.
func IsVariant(name string) bool {
	return strings.HasSuffix(strings.TrimSuffix(name, path.Ext(name)), VariantSuffix)
}

// VariantName is the object name of name's resized variant: "a/b.jpeg" becomes "a/b_1080x1920.jpg".
func VariantName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + VariantSuffix + ".jpg"
}
