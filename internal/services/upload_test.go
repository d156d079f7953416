package services_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/internal/tests/fakes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadImage(t *testing.T) {
	objects := fakes.NewObjectStore()
	svc := services.NewUploadService(objects, "http://shop.test/", 1<<20)
	ctx := context.Background()

	img, err := svc.UploadImage(ctx, "Photo.PNG", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.True(t, strings.HasPrefix(img.Key, "images/"))
	assert.True(t, strings.HasSuffix(img.Key, ".png"))
	assert.Equal(t, "http://shop.test/uploads/"+img.Key, img.URL)

	stored, ok := objects.Object(img.Key)
	require.True(t, ok)
	assert.Equal(t, "image/png", stored.ContentType)

	reader, contentType, err := svc.OpenImage(ctx, img.Key)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
	assert.Equal(t, "image/png", contentType)
}

func TestUploadImageRejects(t *testing.T) {
	objects := fakes.NewObjectStore()
	svc := services.NewUploadService(objects, "http://shop.test", 16)
	ctx := context.Background()

	_, err := svc.UploadImage(ctx, "notes.txt", []byte("plain text"))
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.UploadImage(ctx, "big.png", append(pngHeader, make([]byte, 32)...))
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.UploadImage(ctx, "empty.png", nil)
	assert.ErrorIs(t, err, services.ErrMissingFields)

	assert.Empty(t, objects.Keys())
}

func TestOpenImageRejectsForeignKeys(t *testing.T) {
	svc := services.NewUploadService(fakes.NewObjectStore(), "http://shop.test", 1<<20)
	for _, key := range []string{"", "images/", "../secret", "images/../x", "other/a.png"} {
		_, _, err := svc.OpenImage(context.Background(), key)
		assert.ErrorIs(t, err, services.ErrNotFound, key)
	}
}

func TestOpenImageMissing(t *testing.T) {
	svc := services.NewUploadService(fakes.NewObjectStore(), "http://shop.test", 1<<20)
	_, _, err := svc.OpenImage(context.Background(), "images/missing.png")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestOpenImageServesStoredContentType(t *testing.T) {
	objects := fakes.NewObjectStore()
	svc := services.NewUploadService(objects, "http://shop.test", 1<<20)
	ctx := context.Background()

	icon := []byte("\x00\x00\x01\x00\x01\x00\x10\x10")
	img, err := svc.UploadImage(ctx, "favicon", icon)
	require.NoError(t, err)
	assert.Equal(t, "image/x-icon", img.ContentType)
	assert.True(t, strings.HasSuffix(img.Key, ".ico"))

	reader, contentType, err := svc.OpenImage(ctx, img.Key)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "image/x-icon", contentType)

	// The recorded type wins over the key's extension.
	require.NoError(t, objects.Put(ctx, "images/legacy", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png"))
	reader, contentType, err = svc.OpenImage(ctx, "images/legacy")
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "image/png", contentType)

	require.NoError(t, objects.Put(ctx, "images/old.gif", bytes.NewReader([]byte("GIF89a")), 6, ""))
	reader, contentType, err = svc.OpenImage(ctx, "images/old.gif")
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "image/gif", contentType)
}
