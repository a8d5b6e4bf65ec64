package services

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScannedImagesRoute is where stored frames are served from
const ScannedImagesRoute = "/images/scanned"

// ImageStorageService keeps the camera frames of cards added from a scan
type ImageStorageService struct {
	storageDir string
}

// NewImageStorageService creates the storage directory if it does not exist
func NewImageStorageService(storageDir string) (*ImageStorageService, error) {
	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scanned images directory: %w", err)
	}
	return &ImageStorageService{storageDir: storageDir}, nil
}

// SaveImage writes a JPEG or PNG frame under a fresh name and returns the name
func (s *ImageStorageService) SaveImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", invalid("empty image data")
	}

	var ext string
	switch http.DetectContentType(imageData) {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	default:
		return "", invalid("image must be JPEG or PNG")
	}

	filename := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.storageDir, filename), imageData, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return filename, nil
}

// DeleteImage removes a saved frame. A missing file is not an error.
func (s *ImageStorageService) DeleteImage(filename string) error {
	if filename == "" || filename != filepath.Base(filename) {
		return invalid("invalid image name %q", filename)
	}
	if err := os.Remove(filepath.Join(s.storageDir, filename)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// URL returns the path a saved image is served at
func (s *ImageStorageService) URL(filename string) string {
	return ScannedImagesRoute + "/" + filename
}

// GetStorageDir returns the storage directory path
func (s *ImageStorageService) GetStorageDir() string {
	return s.storageDir
}
