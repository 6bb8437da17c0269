package ports

import (
	"context"
	"io"

	"pastmatters/internal/verification/models"
	"pastmatters/pkg/domain"
)

// PhotoFeatureExtractor detects faces in an uploaded photo. It returns nil
// when no face is found or the image cannot be read.
type PhotoFeatureExtractor interface {
	Analyze(ctx context.Context, photo domain.PhotoID) *models.PhotoFeatures
}

// ReverseImageSearch looks for profiles using the same photo. A failing
// sub-source leaves its list empty without hiding the others.
type ReverseImageSearch interface {
	Search(ctx context.Context, photo domain.PhotoID) models.ReverseSearchResult
}

// PhotoOpener gives adapters access to uploaded image bytes.
type PhotoOpener interface {
	Open(ctx context.Context, photo domain.PhotoID) (io.ReadCloser, string, error)
}

// NoPhotoAnalysis is used when no photo service is configured.
type NoPhotoAnalysis struct{}

func (NoPhotoAnalysis) Analyze(context.Context, domain.PhotoID) *models.PhotoFeatures { return nil }

func (NoPhotoAnalysis) Search(context.Context, domain.PhotoID) models.ReverseSearchResult {
	return models.ReverseSearchResult{}
}
