package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/service"
)

type GenerateHandler struct {
	generationService *service.GenerationService
}

func NewGenerateHandler(generationService *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{
		generationService: generationService,
	}
}

type generateRequest struct {
	Prompt             string                     `json:"prompt"`
	ReferenceImageURLs []string                   `json:"referenceImageUrls"`
	UserID             string                     `json:"userId"`
	Parameters         model.GenerationParameters `json:"parameters"`
	ContentType        string                     `json:"contentType"`
}

type generateResponse struct {
	Success    bool                      `json:"success"`
	Generation *service.GenerationResult `json:"generation"`
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, apperr.New(apperr.ErrValidation, "invalid request body"))
		return
	}

	if req.Prompt == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Data missing"})
		return
	}

	result, err := h.generationService.Generate(r.Context(), service.GenerateRequest{
		OwnerID:        req.UserID,
		Prompt:         req.Prompt,
		ReferenceURLs:  req.ReferenceImageURLs,
		Parameters:     req.Parameters,
		Classification: req.ContentType,
	})
	if err != nil {
		slog.Error("generation failed", "error", err, "user_id", req.UserID)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success:    true,
		Generation: result,
	})
}

// Finalize keeps a provisional generation, making it library-visible.
func (h *GenerateHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	err := h.generationService.Finalize(id)
	if err != nil {
		slog.Error("failed to finalize media", "error", err, "media_id", id)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
