package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
)

type MediaRepository interface {
	Create(item *model.MediaItem) error
	ByID(id string) (*model.MediaItem, error)
	Media(classification, folder string) ([]*model.MediaItem, error)
	FolderItems(folder, classification string) ([]*model.MediaItem, error)
	MoveFolderItems(oldFolder, newFolder, classification string) error
	Finalize(id string) error
	Delete(id string) error
}

type mediaRepository struct {
	db *sqlx.DB
}

func NewMediaRepository(db *sqlx.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(item *model.MediaItem) error {
	query := `INSERT INTO media (id, owner_id, kind, classification, url, folder_name, prompt, parameters, is_finalized, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		item.ID,
		item.OwnerID,
		item.Kind,
		item.Classification,
		item.URL,
		item.FolderName,
		item.Prompt,
		item.Parameters,
		item.IsFinalized,
		item.CreatedAt,
	)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to create media item", err)
	}

	return nil
}

func (r *mediaRepository) ByID(id string) (*model.MediaItem, error) {
	item := &model.MediaItem{}
	query := `SELECT * FROM media WHERE id = $1`

	err := r.db.Get(item, query, id)
	if err != nil {
		return nil, readErr(err, "media item not found")
	}

	return item, nil
}

// Media lists finalized items in a classification partition, newest first.
// Provisional items never show up here; they are reachable by id only.
// An empty folder or the "All" sentinel disables the folder filter.
func (r *mediaRepository) Media(classification, folder string) ([]*model.MediaItem, error) {
	var items []*model.MediaItem

	query := `SELECT * FROM media WHERE classification = $1 AND is_finalized = TRUE`
	args := []any{classification}

	if folder != "" && folder != model.AllFolders {
		query += ` AND folder_name = $2`
		args = append(args, folder)
	}
	query += ` ORDER BY created_at DESC`

	err := r.db.Select(&items, query, args...)
	if err != nil {
		return nil, readErr(err, "failed to list media")
	}

	return items, nil
}

// FolderItems returns every item tagged with the folder, finalized or not.
// Used by cascade deletion, which must not leave provisional rows behind.
func (r *mediaRepository) FolderItems(folder, classification string) ([]*model.MediaItem, error) {
	var items []*model.MediaItem
	query := `SELECT * FROM media WHERE folder_name = $1 AND classification = $2`

	err := r.db.Select(&items, query, folder, classification)
	if err != nil {
		return nil, readErr(err, "failed to list folder items")
	}

	return items, nil
}

func (r *mediaRepository) MoveFolderItems(oldFolder, newFolder, classification string) error {
	query := `UPDATE media SET folder_name = $1 WHERE folder_name = $2 AND classification = $3`

	_, err := r.db.Exec(query, newFolder, oldFolder, classification)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to move folder items", err)
	}

	return nil
}

// Finalize promotes a provisional item to library-visible.
// Finalizing an already finalized item succeeds without effect.
func (r *mediaRepository) Finalize(id string) error {
	query := `UPDATE media SET is_finalized = TRUE WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to finalize media item", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to finalize media item", err)
	}

	if rows == 0 {
		return apperr.New(apperr.ErrNotFound, "media item not found")
	}

	return nil
}

func (r *mediaRepository) Delete(id string) error {
	query := `DELETE FROM media WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to delete media item", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to delete media item", err)
	}

	if rows == 0 {
		return apperr.New(apperr.ErrNotFound, "media item not found")
	}

	return nil
}

// readErr classifies a read failure: missing row, row shape mismatch at the
// mapping boundary, or plain store failure.
func readErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Wrap(apperr.ErrNotFound, msg, err)
	}
	if isScanFailure(err) {
		return apperr.Wrap(apperr.ErrSchema, msg, err)
	}
	return apperr.Wrap(apperr.ErrStore, msg, err)
}

// isScanFailure detects sqlx struct-scan errors, which mean the table shape
// no longer matches the model rather than a failed query.
func isScanFailure(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "missing destination name") ||
		strings.Contains(msg, "cannot scan")
}
