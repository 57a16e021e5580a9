package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
)

func TestUploadCreatesFinalizedItem(t *testing.T) {
	media, _, store, _, _ := newFixture(t)

	item, err := media.Upload(context.Background(), "u1", model.ClassificationSFW, "Trips", "beach photo.png", "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if !item.IsFinalized {
		t.Error("uploaded item must be finalized immediately")
	}
	if item.Kind != model.KindPhoto {
		t.Errorf("kind = %q, want photo", item.Kind)
	}
	if item.FolderName != "Trips" {
		t.Errorf("folder = %q", item.FolderName)
	}

	key, managed := store.Key(item.URL)
	if !managed {
		t.Fatalf("upload URL %q not in the managed namespace", item.URL)
	}
	if !store.has(key) {
		t.Error("blob missing from store")
	}
	if strings.Contains(key, " ") {
		t.Errorf("key %q contains whitespace", key)
	}

	items, err := media.Media(model.ClassificationSFW, "Trips")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Error("uploaded item missing from listing")
	}
}

func TestUploadVideoKindInference(t *testing.T) {
	media, _, _, _, _ := newFixture(t)

	item, err := media.Upload(context.Background(), "u1", model.ClassificationSFW, "", "clip.mp4", "video/mp4", strings.NewReader("mp4-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if item.Kind != model.KindVideo {
		t.Errorf("kind = %q, want video", item.Kind)
	}
	if item.FolderName != model.ReservedFolder {
		t.Errorf("empty folder should default to the reserved one, got %q", item.FolderName)
	}
}

func TestDeleteExternalURLLeavesBlobAlone(t *testing.T) {
	media, _, store, _, mediaRepo := newFixture(t)

	// An item whose asset lives outside the managed namespace
	item := &model.MediaItem{
		ID:             uuid.New().String(),
		OwnerID:        "u1",
		Kind:           model.KindPhoto,
		Classification: model.ClassificationSFW,
		URL:            "https://elsewhere.example/pic.png",
		FolderName:     model.ReservedFolder,
		IsFinalized:    true,
		CreatedAt:      time.Now(),
	}
	err := mediaRepo.Create(item)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = media.Delete(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, err = mediaRepo.ByID(item.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("row survived delete")
	}
	if store.count() != 0 {
		t.Error("managed store touched for an external URL")
	}
}

func TestRenameFolderCascadesToItems(t *testing.T) {
	media, _, _, _, mediaRepo := newFixture(t)

	_, err := media.CreateFolder("A", model.ClassificationSFW)
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	_, err = media.Upload(context.Background(), "u1", model.ClassificationSFW, "A", "one.png", "image/png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	// Same folder name in the other partition must be untouched
	other := &model.MediaItem{
		ID:             uuid.New().String(),
		OwnerID:        "u1",
		Kind:           model.KindPhoto,
		Classification: model.ClassificationNSFW,
		URL:            memStorageBase + "/u1/other.png",
		FolderName:     "A",
		IsFinalized:    true,
		CreatedAt:      time.Now(),
	}
	err = mediaRepo.Create(other)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	err = media.RenameFolder("A", "B", model.ClassificationSFW)
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	items, err := media.Media(model.ClassificationSFW, "B")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item in renamed folder, got %d", len(items))
	}
	leftover, err := media.Media(model.ClassificationSFW, "A")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(leftover) != 0 {
		t.Error("items still tagged with the old folder name")
	}

	got, err := mediaRepo.ByID(other.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if got.FolderName != "A" {
		t.Error("rename leaked into the other classification partition")
	}
}

func TestDeleteFolderReassignsToReserved(t *testing.T) {
	media, _, _, _, _ := newFixture(t)

	_, err := media.CreateFolder("A", model.ClassificationSFW)
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	item, err := media.Upload(context.Background(), "u1", model.ClassificationSFW, "A", "one.png", "image/png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	err = media.DeleteFolder(context.Background(), "A", model.ClassificationSFW, false)
	if err != nil {
		t.Fatalf("delete folder failed: %v", err)
	}

	folders, err := media.Folders(model.ClassificationSFW)
	if err != nil {
		t.Fatalf("list folders failed: %v", err)
	}
	for _, f := range folders {
		if f.Name == "A" {
			t.Error("deleted folder still listed")
		}
	}

	got, err := media.ByID(item.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if got.FolderName != model.ReservedFolder {
		t.Errorf("member folder = %q, want the reserved folder", got.FolderName)
	}
}

func TestDeleteFolderCascadeDeletesMembers(t *testing.T) {
	media, _, store, _, mediaRepo := newFixture(t)

	_, err := media.CreateFolder("A", model.ClassificationSFW)
	if err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	item, err := media.Upload(context.Background(), "u1", model.ClassificationSFW, "A", "one.png", "image/png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	err = media.DeleteFolder(context.Background(), "A", model.ClassificationSFW, true)
	if err != nil {
		t.Fatalf("cascade delete failed: %v", err)
	}

	_, err = mediaRepo.ByID(item.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatal("member row survived cascade delete")
	}
	if store.count() != 0 {
		t.Error("member blob survived cascade delete")
	}

	items, err := media.Media(model.ClassificationSFW, "A")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 0 {
		t.Error("items still tagged with the deleted folder")
	}
}

func TestCreateFolderValidatesAndConflicts(t *testing.T) {
	media, _, _, _, _ := newFixture(t)

	_, err := media.CreateFolder("  ", model.ClassificationSFW)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = media.CreateFolder("Dup", model.ClassificationSFW)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err = media.CreateFolder("Dup", model.ClassificationSFW)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
