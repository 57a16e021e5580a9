// Package provider wraps the external image generation service. The core
// treats it as opaque: a request goes out, image URLs come back, and any
// success response without a usable image is a generation failure.
package provider

import (
	"context"
	"io"

	"github.com/atelierhq/atelier/internal/model"
)

// Image is one generated asset as reported by the provider. Its URL is
// typically short-lived and must be re-hosted before it is shown to users.
type Image struct {
	URL         string `json:"url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"content_type"`
}

type ImageResponse struct {
	Images          []Image `json:"images"`
	Seed            *int64  `json:"seed,omitempty"`
	HasNSFWConcepts []bool  `json:"has_nsfw_concepts,omitempty"`
}

type Provider interface {
	// GenerateImage runs the text-to-image path
	GenerateImage(ctx context.Context, prompt string, params model.GenerationParameters) (*ImageResponse, error)

	// GenerateFromImage runs the image-edit path steered by reference images
	GenerateFromImage(ctx context.Context, prompt string, imageURLs []string, params model.GenerationParameters) (*ImageResponse, error)

	// Download fetches the bytes behind a provider result URL
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
