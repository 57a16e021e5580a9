package handler

import (
	"log/slog"
	"net/http"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/ctxkeys"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
	"github.com/atelierhq/atelier/internal/validation"
)

type MediaHandler struct {
	mediaService *service.MediaService
	maxSize      int64
}

func NewMediaHandler(mediaService *service.MediaService, maxSize int64) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		maxSize:      maxSize,
	}
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	classification := r.URL.Query().Get("classification")
	if !model.ValidClassification(classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}
	folder := r.URL.Query().Get("folder")

	items, err := h.mediaService.Media(classification, folder)
	if err != nil {
		slog.Error("failed to list media", "error", err, "classification", classification, "folder", folder)
		writeError(w, err)
		return
	}

	if items == nil {
		items = []*model.MediaItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid multipart payload"))
		return
	}

	classification := r.FormValue("classification")
	if !model.ValidClassification(classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}
	folder := r.FormValue("folder")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	contentType, err := validation.ValidateFile(header, validation.ImageConstraints, validation.VideoConstraints)
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, err.Error()))
		return
	}

	item, err := h.mediaService.Upload(r.Context(), userID, classification, folder, header.Filename, contentType, file)
	if err != nil {
		slog.Error("failed to upload media", "error", err, "user_id", userID)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Delete removes an item outright. For provisional items this is the
// discard half of the review loop; for finalized ones it is plain deletion.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.mediaService.Delete(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete media", "error", err, "media_id", id)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
