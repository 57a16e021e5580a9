package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	KindPhoto = "photo"
	KindVideo = "video"

	ClassificationSFW  = "sfw"
	ClassificationNSFW = "nsfw"

	// ReservedFolder is the fallback bucket every classification partition has.
	// Provisional generations and orphans from folder deletion land here.
	ReservedFolder = "General"

	// AllFolders is the sentinel that disables folder filtering in listings.
	AllFolders = "All"
)

// ValidClassification reports whether c is one of the two content partitions.
func ValidClassification(c string) bool {
	return c == ClassificationSFW || c == ClassificationNSFW
}

type MediaItem struct {
	ID             string               `db:"id" json:"id"`
	OwnerID        string               `db:"owner_id" json:"userId"`
	Kind           string               `db:"kind" json:"type"`
	Classification string               `db:"classification" json:"contentType"`
	URL            string               `db:"url" json:"url"`
	FolderName     string               `db:"folder_name" json:"folder"`
	Prompt         *string              `db:"prompt" json:"prompt,omitempty"`
	Parameters     GenerationParameters `db:"parameters" json:"parameters,omitempty"`
	IsFinalized    bool                 `db:"is_finalized" json:"isFinalized"`
	CreatedAt      time.Time            `db:"created_at" json:"createdAt"`
}

// GenerationParameters carries the knobs a generation request was made with.
// Opaque to the repository; stored as a JSON text column.
type GenerationParameters struct {
	Model         string  `json:"model,omitempty"`
	Width         int     `json:"width,omitempty"`
	Height        int     `json:"height,omitempty"`
	Steps         int     `json:"steps,omitempty"`
	GuidanceScale float64 `json:"guidance_scale,omitempty"`
	NumImages     int     `json:"num_images,omitempty"`
	Seed          *int64  `json:"seed,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
	Strength      float64 `json:"strength,omitempty"`
}

func (p GenerationParameters) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *GenerationParameters) Scan(src any) error {
	if src == nil {
		*p = GenerationParameters{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("cannot scan %T into GenerationParameters", src)
	}
}
