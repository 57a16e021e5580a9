package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

type FolderHandler struct {
	mediaService *service.MediaService
}

func NewFolderHandler(mediaService *service.MediaService) *FolderHandler {
	return &FolderHandler{
		mediaService: mediaService,
	}
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	classification := r.URL.Query().Get("classification")
	if !model.ValidClassification(classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}

	folders, err := h.mediaService.Folders(classification)
	if err != nil {
		slog.Error("failed to list folders", "error", err, "classification", classification)
		writeError(w, err)
		return
	}

	if folders == nil {
		folders = []*model.Folder{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Classification string `json:"classification"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}
	if !model.ValidClassification(req.Classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}

	folder, err := h.mediaService.CreateFolder(req.Name, req.Classification)
	if err != nil {
		slog.Error("failed to create folder", "error", err, "name", req.Name, "classification", req.Classification)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, folder)
}

func (h *FolderHandler) Rename(w http.ResponseWriter, r *http.Request) {
	oldName := r.PathValue("name")

	var req struct {
		NewName        string `json:"newName"`
		Classification string `json:"classification"`
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}
	if !model.ValidClassification(req.Classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}

	// The reserved folder is the fallback bucket; renaming it would strand
	// every item that defaults into it. Policy enforced here, not in the
	// repository.
	if oldName == model.ReservedFolder {
		writeError(w, apperr.New(apperr.ErrValidation, "the reserved folder cannot be renamed"))
		return
	}

	err = h.mediaService.RenameFolder(oldName, req.NewName, req.Classification)
	if err != nil {
		slog.Error("failed to rename folder", "error", err, "old", oldName, "new", req.NewName)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	classification := r.URL.Query().Get("classification")
	cascade := r.URL.Query().Get("cascade") == "true"

	if !model.ValidClassification(classification) {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid classification"))
		return
	}
	if name == model.ReservedFolder {
		writeError(w, apperr.New(apperr.ErrValidation, "the reserved folder cannot be deleted"))
		return
	}

	err := h.mediaService.DeleteFolder(r.Context(), name, classification, cascade)
	if err != nil {
		slog.Error("failed to delete folder", "error", err, "name", name, "cascade", cascade)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
