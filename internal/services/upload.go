package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/internal/metrics"
	"github.com/shopscript/apiserver/internal/storage"
)

const imageKeyPrefix = "images/"

// ObjectStore is the subset of object storage used for images.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*storage.Object, error)
}

// UploadedImage describes a stored image.
type UploadedImage struct {
	Key         string `json:"key"`
	URL         string `json:"imageUrl"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// UploadService stores product images in object storage.
type UploadService struct {
	store    ObjectStore
	baseURL  string
	maxBytes int64
}

func NewUploadService(store ObjectStore, baseURL string, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &UploadService{
		store:    store,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadImage validates data as an image and stores it under a fresh key.
func (s *UploadService) UploadImage(ctx context.Context, filename string, data []byte) (UploadedImage, error) {
	if len(data) == 0 {
		return UploadedImage{}, ErrMissingFields
	}
	if int64(len(data)) > s.maxBytes {
		return UploadedImage{}, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidInput, s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return UploadedImage{}, fmt.Errorf("%w: file is not an image", ErrInvalidInput)
	}

	key := imageKeyPrefix + uuid.NewString() + imageExtension(filename, contentType)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return UploadedImage{}, fmt.Errorf("store image: %w", err)
	}

	metrics.ImageUploadBytes.Observe(float64(len(data)))
	zerolog.Ctx(ctx).Info().Str("key", key).Int("size", len(data)).Msg("image uploaded")
	return UploadedImage{
		Key:         key,
		URL:         s.baseURL + "/uploads/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// OpenImage streams a stored image with the content type recorded at upload.
// Objects stored without one fall back to the key's extension.
func (s *UploadService) OpenImage(ctx context.Context, key string) (io.ReadCloser, string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean != key || !strings.HasPrefix(clean, imageKeyPrefix) || len(clean) == len(imageKeyPrefix) {
		return nil, "", ErrNotFound
	}

	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open image: %w", err)
	}
	contentType := strings.TrimSpace(obj.ContentType)
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return obj, contentType, nil
}

func imageExtension(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, `\`, "/"))))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".ico":
		return ext
	}
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/x-icon":
		return ".ico"
	}
	return ""
}
