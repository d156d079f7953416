package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/types"
)

const (
	formFieldFile      = "file"
	maxMultipartMemory = 32 << 20
	// multipartOverhead allows for boundaries and headers around the file part.
	multipartOverhead = 1 << 20
)

// UploadHandler stores and serves product images.
type UploadHandler struct {
	uploadService *services.UploadService
}

func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// UploadRouter registers the admin image upload route.
func UploadRouter(r chi.Router, uploadService *services.UploadService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUploadHandler(uploadService)
	r.With(authMiddleware, RequireRole(types.RoleAdmin)).Post("/image", handler.UploadImage)
}

func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := h.uploadService.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	image, err := h.uploadService.UploadImage(r.Context(), header.Filename, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, image)
}

// ServeImage streams a stored image; the object key is the wildcard path segment.
func (h *UploadHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	reader, contentType, err := h.uploadService.OpenImage(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("image stream interrupted")
	}
}
