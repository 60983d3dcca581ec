package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_NativeResolution(t *testing.T) {
	enc, err := Encode(solid(64, 48, color.RGBA{200, 120, 90, 255}), 0)
	require.NoError(t, err)

	assert.Equal(t, MIMETypeJPEG, enc.MIMEType)
	assert.Equal(t, 64, enc.Width)
	assert.Equal(t, 48, enc.Height)
	assert.False(t, enc.IsZero())

	img, err := enc.Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), img.Bounds())
}

func TestEncode_NilImage(t *testing.T) {
	_, err := Encode(nil, 90)
	assert.Error(t, err)
}

func TestNormalize_PNGToJPEG(t *testing.T) {
	enc, err := Normalize(pngBytes(t, solid(30, 20, color.White)), DefaultNormalizeOptions())
	require.NoError(t, err)

	assert.Equal(t, MIMETypeJPEG, enc.MIMEType)
	assert.Equal(t, 30, enc.Width)
	assert.Equal(t, 20, enc.Height)
	assert.Equal(t, []byte{0xFF, 0xD8}, enc.Data[:2])
}

func TestNormalize_Downscales(t *testing.T) {
	enc, err := Normalize(pngBytes(t, solid(400, 100, color.Black)), NormalizeOptions{MaxDimension: 200, Quality: 80})
	require.NoError(t, err)

	assert.Equal(t, 200, enc.Width)
	assert.Equal(t, 50, enc.Height)
}

func TestNormalize_RejectsNonImages(t *testing.T) {
	_, err := Normalize([]byte("%PDF-1.4 definitely not an image"), DefaultNormalizeOptions())
	assert.Error(t, err)

	_, err = Normalize(nil, DefaultNormalizeOptions())
	assert.Error(t, err)
}

// pngHeader returns the signature and IHDR chunk of a grayscale PNG
// declaring the given size. That is all DecodeConfig reads.
func pngHeader(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr[:]...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestNormalize_RejectsOversizedDeclaredDimensions(t *testing.T) {
	data := pngHeader(16000, 16000)

	_, err := Normalize(data, DefaultNormalizeOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyPixels))

	_, err = Normalize(data, NormalizeOptions{MaxDimension: 256})
	assert.True(t, errors.Is(err, ErrTooManyPixels), "zero budget falls back to the default")
}

func TestNormalize_PixelBudget(t *testing.T) {
	data := pngBytes(t, solid(40, 30, color.White))

	_, err := Normalize(data, NormalizeOptions{MaxPixels: 1200})
	assert.NoError(t, err)

	_, err = Normalize(data, NormalizeOptions{MaxPixels: 1199})
	assert.True(t, errors.Is(err, ErrTooManyPixels))
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 0, 100, 50},
		{100, 50, 200, 100, 50},
		{400, 100, 200, 200, 50},
		{100, 400, 200, 50, 200},
		{5000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w)
		assert.Equal(t, tt.wantH, h)
	}
}

func TestDataURL_RoundTrip(t *testing.T) {
	enc, err := Encode(solid(8, 8, color.White), 90)
	require.NoError(t, err)

	url := enc.DataURL()
	assert.Contains(t, url, "data:image/jpeg;base64,")

	data, mime, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, MIMETypeJPEG, mime)
	assert.Equal(t, enc.Data, data)
}

func TestParseDataURL_Errors(t *testing.T) {
	for _, in := range []string{
		"https://example.com/a.jpg",
		"data:image/png;base64",
		"data:text/plain,hello",
		"data:image/png;base64,!!!",
	} {
		_, _, err := ParseDataURL(in)
		assert.Error(t, err, in)
	}
}
