package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
)

type FolderRepository interface {
	Create(folder *model.Folder) error
	Folders(classification string) ([]*model.Folder, error)
	Rename(oldName, newName, classification string) error
	Delete(name, classification string) error
}

type folderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(folder *model.Folder) error {
	query := `INSERT INTO folders (id, name, classification, created_at)
	          VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query,
		folder.ID,
		folder.Name,
		folder.Classification,
		folder.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "folder already exists", err)
		}
		return apperr.Wrap(apperr.ErrStore, "failed to create folder", err)
	}

	return nil
}

func (r *folderRepository) Folders(classification string) ([]*model.Folder, error) {
	var folders []*model.Folder
	query := `SELECT * FROM folders WHERE classification = $1 ORDER BY name`

	err := r.db.Select(&folders, query, classification)
	if err != nil {
		return nil, readErr(err, "failed to list folders")
	}

	return folders, nil
}

func (r *folderRepository) Rename(oldName, newName, classification string) error {
	query := `UPDATE folders SET name = $1 WHERE name = $2 AND classification = $3`

	result, err := r.db.Exec(query, newName, oldName, classification)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.ErrConflict, "folder already exists", err)
		}
		return apperr.Wrap(apperr.ErrStore, "failed to rename folder", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to rename folder", err)
	}

	if rows == 0 {
		return apperr.New(apperr.ErrNotFound, "folder not found")
	}

	return nil
}

func (r *folderRepository) Delete(name, classification string) error {
	query := `DELETE FROM folders WHERE name = $1 AND classification = $2`

	result, err := r.db.Exec(query, name, classification)
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to delete folder", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.ErrStore, "failed to delete folder", err)
	}

	if rows == 0 {
		return apperr.New(apperr.ErrNotFound, "folder not found")
	}

	return nil
}

// isUniqueViolation detects a uniqueness constraint failure across the
// supported drivers (modernc sqlite and pgx).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
