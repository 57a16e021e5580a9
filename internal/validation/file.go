package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ImageConstraints defines validation rules for image uploads
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
			"image/gif":  true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
			".gif":  true,
		},
		MaxSize: 20 << 20, // 20MB
	}

	// VideoConstraints defines validation rules for video uploads
	VideoConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"video/mp4":  true,
			"video/webm": true,
		},
		AllowedExtensions: map[string]bool{
			".mp4":  true,
			".webm": true,
		},
		MaxSize: 200 << 20, // 200MB
	}
)

// ValidateFile validates a file upload against one or more constraint sets.
// If multiple constraints are provided, the file must match at least one.
// It also returns the content type detected from the file bytes, which is
// trustworthy where the client-supplied header is not.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		detected, err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return detected, nil
		}
		lastErr = err
	}

	return "", lastErr
}

func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) (string, error) {
	// Check file size first (before reading content)
	if header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", fmt.Errorf("file too large: maximum size is %d MB", maxMB)
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Magic numbers cannot be faked by changing the Content-Type header
	detectedType := http.DetectContentType(buffer[:n])

	if !constraints.AllowedMimeTypes[detectedType] {
		return "", fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return "", fmt.Errorf("invalid file extension: %s", ext)
	}

	return detectedType, nil
}
