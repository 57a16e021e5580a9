package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/provider"
	"github.com/atelierhq/atelier/internal/repository"
	"github.com/atelierhq/atelier/internal/storage"
)

// ErrGenerationInFlight rejects a second generate while one is still running
// for the same owner. The review loop serializes real usage anyway; the guard
// just closes the race two rapid submits would open.
var ErrGenerationInFlight = apperr.New(apperr.ErrConflict, "a generation is already in flight for this user")

type GenerateRequest struct {
	OwnerID        string
	Prompt         string
	ReferenceURLs  []string
	Parameters     model.GenerationParameters
	Classification string
}

type GenerationResult struct {
	ID        string    `json:"id"`
	Images    []string  `json:"images"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerationService turns a creative request into a reviewable artifact.
// Generated items are persisted immediately but provisional: invisible to
// listings until the owner finalizes them, gone entirely when discarded.
type GenerationService struct {
	mediaRepo repository.MediaRepository
	media     *MediaService
	storage   storage.Storage
	provider  provider.Provider

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGenerationService(mediaRepo repository.MediaRepository, media *MediaService, store storage.Storage, gen provider.Provider) *GenerationService {
	return &GenerationService{
		mediaRepo: mediaRepo,
		media:     media,
		storage:   store,
		provider:  gen,
		inFlight:  make(map[string]struct{}),
	}
}

func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, apperr.New(apperr.ErrValidation, "prompt is required")
	}
	if req.OwnerID == "" {
		return nil, apperr.New(apperr.ErrValidation, "owner is required")
	}

	classification := req.Classification
	if classification == "" {
		classification = model.ClassificationSFW
	}
	if !model.ValidClassification(classification) {
		return nil, apperr.New(apperr.ErrValidation, "invalid classification")
	}

	err := s.acquire(req.OwnerID)
	if err != nil {
		return nil, err
	}
	defer s.release(req.OwnerID)

	var result *provider.ImageResponse
	if len(req.ReferenceURLs) > 0 {
		result, err = s.provider.GenerateFromImage(ctx, prompt, req.ReferenceURLs, req.Parameters)
	} else {
		result, err = s.provider.GenerateImage(ctx, prompt, req.Parameters)
	}
	if err != nil {
		return nil, err
	}
	if len(result.Images) == 0 || result.Images[0].URL == "" {
		return nil, apperr.New(apperr.ErrGeneration, "provider returned no images")
	}

	// The provider URL is short-lived; re-host the bytes before anything
	// else sees them.
	body, err := s.provider.Download(ctx, result.Images[0].URL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	key := fmt.Sprintf("%s/ai/%d-gen.png", req.OwnerID, time.Now().UnixMilli())
	err = s.storage.Save(ctx, key, body, "image/png")
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "failed to store generated image", err)
	}
	permanentURL := s.storage.PublicURL(key)

	// Provisional until the owner keeps or discards it. The folder is forced
	// to the reserved one: filing happens at finalize time, so the review
	// screen never needs to carry folder context across the provider
	// round-trip.
	item := &model.MediaItem{
		ID:             uuid.New().String(),
		OwnerID:        req.OwnerID,
		Kind:           model.KindPhoto,
		Classification: classification,
		URL:            permanentURL,
		FolderName:     model.ReservedFolder,
		Prompt:         &prompt,
		Parameters:     req.Parameters,
		IsFinalized:    false,
		CreatedAt:      time.Now(),
	}

	err = s.mediaRepo.Create(item)
	if err != nil {
		// Blob stays behind; it is unreferenced and invisible.
		return nil, err
	}

	return &GenerationResult{
		ID:        item.ID,
		Images:    []string{permanentURL},
		Prompt:    prompt,
		CreatedAt: item.CreatedAt,
	}, nil
}

// Finalize promotes a provisional item into the library. Finalizing twice is
// a no-op success.
func (s *GenerationService) Finalize(id string) error {
	return s.mediaRepo.Finalize(id)
}

// Discard permanently deletes a provisional item, row and blob.
func (s *GenerationService) Discard(ctx context.Context, id string) error {
	return s.media.Delete(ctx, id)
}

func (s *GenerationService) acquire(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, running := s.inFlight[ownerID]
	if running {
		return ErrGenerationInFlight
	}
	s.inFlight[ownerID] = struct{}{}
	return nil
}

func (s *GenerationService) release(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, ownerID)
}
