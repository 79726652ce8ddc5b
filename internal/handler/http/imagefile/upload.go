package imagefile

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/respond"
)

// DefaultMaxUploadSize caps the multipart body of an upload.
const DefaultMaxUploadSize = 32 << 20

type UploadHandler struct {
	Svc     Service
	MaxSize int64
}

// ServeHTTP stores a new image from a multipart form with a "file" part
// and an optional "category" field. Autocrop and thumbnails run later.
func (h UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.MaxSize {
		respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("invalid upload: file too large"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxSize)
	if err := r.ParseMultipartForm(h.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.SafeError(w, http.StatusRequestEntityTooLarge, errors.New("invalid upload: file too large"))
			return
		}
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.WarnContext(r.Context(), "multipart cleanup failed", slog.Any("error", err))
		}
	}()

	category, err := entity.ParseAPICategory(r.FormValue("category"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return
	}
	img, err := h.Svc.Upload(r.Context(), header.Filename, data, category)
	if err != nil {
		respond.SafeError(w, statusFor(err), err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(h.Svc, img))
}
