package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

// pngWithDeclaredSize encodes a tiny PNG and rewrites its IHDR so the header
// claims width x height pixels. Only the header is valid; the pixel data is not.
func pngWithDeclaredSize(t *testing.T, width, height uint32) *bytes.Buffer {
	t.Helper()
	b := pngOf(t, 1, 1).Bytes()
	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], width)
	binary.BigEndian.PutUint32(b[20:24], height)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return bytes.NewBuffer(b)
}

func TestNormalizeScreenshot(t *testing.T) {
	t.Run("small image keeps its size", func(t *testing.T) {
		out, err := NormalizeScreenshot(pngOf(t, 640, 360))
		require.NoError(t, err)

		img, err := jpeg.Decode(out)
		require.NoError(t, err)
		assert.Equal(t, 640, img.Bounds().Dx())
		assert.Equal(t, 360, img.Bounds().Dy())
	})

	t.Run("wide image is capped", func(t *testing.T) {
		out, err := NormalizeScreenshot(pngOf(t, 3840, 2160))
		require.NoError(t, err)

		img, err := jpeg.Decode(out)
		require.NoError(t, err)
		assert.Equal(t, MaxScreenshotWidth, img.Bounds().Dx())
		assert.Equal(t, 1080, img.Bounds().Dy())
	})

	t.Run("header declaring too many pixels is rejected before decoding", func(t *testing.T) {
		_, err := NormalizeScreenshot(pngWithDeclaredSize(t, 40000, 40000))
		assert.ErrorIs(t, err, ErrImageTooLarge)

		_, err = NormalizeScreenshot(pngWithDeclaredSize(t, 10000, 10000))
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("too many bytes", func(t *testing.T) {
		_, err := NormalizeScreenshot(bytes.NewReader(make([]byte, MaxScreenshotBytes+1)))
		assert.ErrorIs(t, err, ErrImageTooLarge)
	})

	t.Run("not an image", func(t *testing.T) {
		_, err := NormalizeScreenshot(strings.NewReader("definitely not a picture"))
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})
}

func TestLocalDiskUploader(t *testing.T) {
	root := t.TempDir()
	uploader, err := NewLocalDiskUploader(root, "/uploads")
	require.NoError(t, err)

	ctx := context.Background()
	res, err := uploader.Upload(ctx, "evidence/m1/shot.jpg", "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "evidence/m1/shot.jpg", res.Key)
	assert.Equal(t, "/uploads/evidence/m1/shot.jpg", res.Location)

	data, err := os.ReadFile(filepath.Join(root, "evidence", "m1", "shot.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	require.NoError(t, uploader.Delete(ctx, "evidence/m1/shot.jpg"))
	assert.ErrorIs(t, uploader.Delete(ctx, "evidence/m1/shot.jpg"), ErrObjectNotFound)
}

func TestLocalDiskUploader_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	uploader, err := NewLocalDiskUploader(filepath.Join(root, "store"), "/uploads")
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), "../../escape.txt", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(root, "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(root, "store", "escape.txt"))
	assert.NoError(t, statErr)
}
