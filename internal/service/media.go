package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
	"github.com/atelierhq/atelier/internal/repository"
	"github.com/atelierhq/atelier/internal/storage"
)

// MediaService mediates between the media/folder model and the backing store.
// It is the only place that translates between public blob URLs and storage
// keys.
type MediaService struct {
	folderRepo repository.FolderRepository
	mediaRepo  repository.MediaRepository
	storage    storage.Storage
}

func NewMediaService(folderRepo repository.FolderRepository, mediaRepo repository.MediaRepository, storage storage.Storage) *MediaService {
	return &MediaService{
		folderRepo: folderRepo,
		mediaRepo:  mediaRepo,
		storage:    storage,
	}
}

func (s *MediaService) Folders(classification string) ([]*model.Folder, error) {
	return s.folderRepo.Folders(classification)
}

func (s *MediaService) CreateFolder(name, classification string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.ErrValidation, "folder name is required")
	}

	folder := &model.Folder{
		ID:             uuid.New().String(),
		Name:           name,
		Classification: classification,
		CreatedAt:      time.Now(),
	}

	err := s.folderRepo.Create(folder)
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// RenameFolder renames the folder row, then re-tags its members. The two
// steps are not atomic: when the second fails the folder carries the new name
// while members still reference the old one. No item is lost; retrying the
// rename in the opposite direction (or moving items by hand) reconciles.
func (s *MediaService) RenameFolder(oldName, newName, classification string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return apperr.New(apperr.ErrValidation, "folder name is required")
	}
	if newName == oldName {
		return nil
	}

	err := s.folderRepo.Rename(oldName, newName, classification)
	if err != nil {
		return err
	}

	err = s.mediaRepo.MoveFolderItems(oldName, newName, classification)
	if err != nil {
		slog.Error("folder renamed but items not re-tagged, manual retry needed",
			"old", oldName, "new", newName, "classification", classification, "error", err)
		return fmt.Errorf("folder renamed but item reassignment failed: %w", err)
	}

	return nil
}

// DeleteFolder removes a folder. Members are reassigned to the reserved
// folder by default; with cascade they are deleted outright, blobs included.
func (s *MediaService) DeleteFolder(ctx context.Context, name, classification string, cascade bool) error {
	if cascade {
		items, err := s.mediaRepo.FolderItems(name, classification)
		if err != nil {
			return err
		}
		for _, item := range items {
			err = s.Delete(ctx, item.ID)
			if err != nil {
				return fmt.Errorf("failed to delete folder member %s: %w", item.ID, err)
			}
		}
	} else {
		err := s.mediaRepo.MoveFolderItems(name, model.ReservedFolder, classification)
		if err != nil {
			return err
		}
	}

	return s.folderRepo.Delete(name, classification)
}

func (s *MediaService) Media(classification, folder string) ([]*model.MediaItem, error) {
	return s.mediaRepo.Media(classification, folder)
}

func (s *MediaService) ByID(id string) (*model.MediaItem, error) {
	return s.mediaRepo.ByID(id)
}

// Upload stores the bytes and inserts a finalized item pointing at them.
// Note: file validation (type, size, content) is done by the caller.
// A blob whose row insert fails afterwards is left in place: it is not
// referenced, not user-visible, and not worth a cleanup pass at this volume.
func (s *MediaService) Upload(ctx context.Context, ownerID, classification, folder, filename, contentType string, body io.Reader) (*model.MediaItem, error) {
	if folder == "" {
		folder = model.ReservedFolder
	}

	key := fmt.Sprintf("%s/%d_%s", ownerID, time.Now().UnixMilli(), sanitizeFilename(filename))

	err := s.storage.Save(ctx, key, body, contentType)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrStore, "failed to store upload", err)
	}

	kind := model.KindPhoto
	if strings.HasPrefix(contentType, "video/") {
		kind = model.KindVideo
	}

	item := &model.MediaItem{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Kind:           kind,
		Classification: classification,
		URL:            s.storage.PublicURL(key),
		FolderName:     folder,
		IsFinalized:    true,
		CreatedAt:      time.Now(),
	}

	err = s.mediaRepo.Create(item)
	if err != nil {
		slog.Error("upload row insert failed, blob orphaned", "key", key, "error", err)
		return nil, err
	}

	return item, nil
}

// Delete removes an item, blob first when the blob lives in the managed
// namespace. External URLs only lose their row. Blob deletion is best
// effort; the row goes away regardless so the item never resurfaces.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	item, err := s.mediaRepo.ByID(id)
	if err != nil {
		return err
	}

	key, managed := s.storage.Key(item.URL)
	if managed {
		err = s.storage.Delete(ctx, key)
		if err != nil {
			slog.Error("failed to delete blob from storage", "key", key, "error", err)
		}
	}

	return s.mediaRepo.Delete(id)
}

func sanitizeFilename(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}
