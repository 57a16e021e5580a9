package model

import (
	"time"
)

// Folder is a label bucket inside one classification partition.
// (Name, Classification) is unique; media reference folders by name only,
// so a folder is addressed by name + classification everywhere.
type Folder struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Classification string    `db:"classification" json:"contentType"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
