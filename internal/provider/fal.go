package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atelierhq/atelier/internal/apperr"
	"github.com/atelierhq/atelier/internal/model"
)

const (
	textToImageModel = "fal-ai/nano-banana"
	imageEditModel   = "fal-ai/nano-banana/edit"
)

// FalClient calls the fal.run synchronous inference endpoints.
type FalClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewFalClient(apiKey, baseURL string, timeout time.Duration) *FalClient {
	return &FalClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *FalClient) GenerateImage(ctx context.Context, prompt string, params model.GenerationParameters) (*ImageResponse, error) {
	imageSize := "1024x1024"
	if params.Width > 0 && params.Height > 0 {
		imageSize = fmt.Sprintf("%dx%d", params.Width, params.Height)
	}

	steps := params.Steps
	if steps == 0 {
		steps = 4
	}
	guidance := params.GuidanceScale
	if guidance == 0 {
		guidance = 3.5
	}
	numImages := params.NumImages
	if numImages == 0 {
		numImages = 1
	}

	input := map[string]any{
		"prompt":                prompt,
		"image_size":            imageSize,
		"num_inference_steps":   steps,
		"guidance_scale":        guidance,
		"num_images":            numImages,
		"enable_safety_checker": true,
	}
	if params.Seed != nil {
		input["seed"] = *params.Seed
	}

	return c.subscribe(ctx, textToImageModel, input)
}

func (c *FalClient) GenerateFromImage(ctx context.Context, prompt string, imageURLs []string, params model.GenerationParameters) (*ImageResponse, error) {
	// The edit endpoint ignores steps/strength; it only takes the prompt and
	// the reference set.
	input := map[string]any{
		"prompt":        prompt,
		"image_urls":    imageURLs,
		"num_images":    1,
		"aspect_ratio":  "auto",
		"output_format": "png",
	}

	return c.subscribe(ctx, imageEditModel, input)
}

func (c *FalClient) subscribe(ctx context.Context, modelID string, input map[string]any) (*ImageResponse, error) {
	if c.apiKey == "" {
		return nil, apperr.New(apperr.ErrGeneration, "generation provider not configured (missing FAL_API_KEY)")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "failed to encode provider request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+modelID, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "failed to build provider request", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "provider request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperr.New(apperr.ErrGeneration,
			fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	var result ImageResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "failed to decode provider response", err)
	}

	if len(result.Images) == 0 || result.Images[0].URL == "" {
		return nil, apperr.New(apperr.ErrGeneration, "provider returned no images")
	}

	return &result, nil
}

// Download fetches the bytes behind a provider result URL. Result URLs are
// short-lived, so callers re-host the bytes immediately.
func (c *FalClient) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "failed to build download request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrGeneration, "failed to download generated image", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, apperr.New(apperr.ErrGeneration,
			fmt.Sprintf("image download returned status %d", resp.StatusCode))
	}

	return resp.Body, nil
}
