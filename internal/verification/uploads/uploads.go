// Package uploads stores subject photos on local disk under a generated id.
package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"pastmatters/pkg/domain"
	dErrors "pastmatters/pkg/domain-errors"
	"pastmatters/pkg/platform/sentinel"
)

// DefaultMaxBytes caps a single upload.
const DefaultMaxBytes = 10 << 20

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// DirStore keeps photos as {id}{ext} files in one directory.
type DirStore struct {
	dir      string
	maxBytes int64
}

// NewDirStore creates dir if needed.
func NewDirStore(dir string, maxBytes int64) (*DirStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DirStore{dir: dir, maxBytes: maxBytes}, nil
}

// MaxBytes is the largest accepted photo.
func (s *DirStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates and stores the image read from r. Oversized, empty and
// non-image uploads are rejected with CodeValidation.
func (s *DirStore) Save(_ context.Context, r io.Reader) (domain.PhotoID, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return domain.PhotoID{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read photo")
	}
	if len(data) == 0 {
		return domain.PhotoID{}, dErrors.New(dErrors.CodeValidation, "photo is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return domain.PhotoID{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("photo exceeds %d bytes", s.maxBytes))
	}
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return domain.PhotoID{}, dErrors.New(dErrors.CodeValidation, "photo must be a JPEG, PNG or WebP image")
	}

	id := domain.NewPhotoID()
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return domain.PhotoID{}, fmt.Errorf("create temp photo: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		_ = tmp.Close()
		return domain.PhotoID{}, fmt.Errorf("write photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.PhotoID{}, fmt.Errorf("close photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(id, ext)); err != nil {
		return domain.PhotoID{}, fmt.Errorf("store photo: %w", err)
	}
	return id, nil
}

// Open returns the stored photo and its content type.
func (s *DirStore) Open(_ context.Context, id domain.PhotoID) (io.ReadCloser, string, error) {
	for ext, contentType := range contentTypes {
		f, err := os.Open(s.path(id, ext))
		if err == nil {
			return f, contentType, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("open photo %s: %w", id, err)
		}
	}
	return nil, "", fmt.Errorf("photo %s: %w", id, sentinel.ErrNotFound)
}

// Delete removes a stored photo. Deleting an unknown id is not an error.
func (s *DirStore) Delete(_ context.Context, id domain.PhotoID) error {
	for ext := range contentTypes {
		if err := os.Remove(s.path(id, ext)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete photo %s: %w", id, err)
		}
	}
	return nil
}

func (s *DirStore) path(id domain.PhotoID, ext string) string {
	return filepath.Join(s.dir, id.String()+ext)
}
