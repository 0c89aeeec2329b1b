package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func TestResize_Downscales(t *testing.T) {
	res, err := Resize(bytes.NewReader(encodeJPEG(t, 400, 200)), 100)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", res.MIME)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
}

func TestResize_NeverUpscales(t *testing.T) {
	res, err := Resize(bytes.NewReader(encodePNG(t, 60, 80)), 1080)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Width)
	assert.Equal(t, 80, res.Height)
	assert.Equal(t, "image/jpeg", res.MIME)
}

func TestResize_RejectsNonImages(t *testing.T) {
	_, err := Resize(bytes.NewReader([]byte("plain text, not a picture")), 100)
	assert.Error(t, err)

	_, err = Resize(bytes.NewReader(encodeJPEG(t, 10, 10)), 0)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.True(t, IsJPEGName("props/a.jpg"))
	assert.True(t, IsJPEGName("props/a.JPEG"))
	assert.False(t, IsJPEGName("props/a.png"))

	assert.True(t, IsVariant("props/a_1080x1920.jpg"))
	assert.False(t, IsVariant("props/a.jpg"))

	assert.Equal(t, "props/a_1080x1920.jpg", VariantName("props/a.jpg"))
	assert.Equal(t, "props/b_1080x1920.jpg", VariantName("props/b.jpeg"))
}
