package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/ports"
	"pastmatters/pkg/domain"
)

// PhotoClient is both the face extractor and the reverse image search,
// backed by a photo service exposing POST /analyze and POST /reverse-search.
// Both endpoints take the raw image as the request body.
type PhotoClient struct {
	client *Client
	photos ports.PhotoOpener
}

func NewPhotoClient(client *Client, photos ports.PhotoOpener) *PhotoClient {
	return &PhotoClient{client: client, photos: photos}
}

// Analyze returns nil when no face was found, the service answered 404, or
// the call failed.
func (p *PhotoClient) Analyze(ctx context.Context, photo domain.PhotoID) *models.PhotoFeatures {
	var features models.PhotoFeatures
	status, err := p.post(ctx, "/analyze", photo, &features)
	if status == http.StatusNotFound {
		return nil
	}
	if err != nil {
		p.client.logger.WarnContext(ctx, "photo analysis failed", "photo_id", photo, "error", err)
		return nil
	}
	if !features.FaceDetected {
		return nil
	}
	return &features
}

type reverseSearchResponse struct {
	Web           []models.WebMatch        `json:"google_images"`
	Social        []models.SocialCandidate `json:"social_media"`
	Dating        []models.DatingCandidate `json:"dating_apps"`
	FailedSources []string                 `json:"failed_sources"`
}

// Search returns whatever sub-sources answered. A failed call, or any
// sub-source listed as failed, marks the result degraded.
func (p *PhotoClient) Search(ctx context.Context, photo domain.PhotoID) models.ReverseSearchResult {
	var body reverseSearchResponse
	if _, err := p.post(ctx, "/reverse-search", photo, &body); err != nil {
		p.client.logger.WarnContext(ctx, "reverse image search failed", "photo_id", photo, "error", err)
		return models.ReverseSearchResult{
			Web:      []models.WebMatch{},
			Social:   []models.SocialCandidate{},
			Dating:   []models.DatingCandidate{},
			Degraded: true,
		}
	}
	if len(body.FailedSources) > 0 {
		p.client.logger.WarnContext(ctx, "reverse image search partially failed",
			"photo_id", photo,
			"failed_sources", body.FailedSources,
		)
	}
	return models.ReverseSearchResult{
		Web:      nonNil(body.Web),
		Social:   nonNil(body.Social),
		Dating:   nonNil(body.Dating),
		Degraded: len(body.FailedSources) > 0,
	}
}

// post uploads the photo to path and decodes a 200 answer into out. The
// status is returned even on error so callers can treat 404 specially.
func (p *PhotoClient) post(ctx context.Context, path string, photo domain.PhotoID, out any) (int, error) {
	ctx, cancel := p.client.withTimeout(ctx)
	defer cancel()

	image, contentType, err := p.photos.Open(ctx, photo)
	if err != nil {
		return 0, fmt.Errorf("open photo: %w", err)
	}
	defer image.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.client.baseURL+path, image)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, &statusError{status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
	}
	return resp.StatusCode, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clip(s)
}
