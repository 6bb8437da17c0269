// Package handler exposes the search API over HTTP.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/service"
	"pastmatters/pkg/domain"
	dErrors "pastmatters/pkg/domain-errors"
	"pastmatters/pkg/platform/httputil"
	"pastmatters/pkg/platform/middleware/request"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler_mocks.go -package=mocks Service,PhotoStore

// Banner is returned by GET /api/.
const Banner = "Past Matters API v1.0"

// multipartMemory is how much of a form is buffered in memory before
// spilling to temp files.
const multipartMemory = 1 << 20

// Service is the submission and result boundary.
type Service interface {
	Submit(ctx context.Context, input models.SubjectInput) (*service.Submission, error)
	Status(ctx context.Context, id domain.JobID) (*service.StatusView, error)
	Result(ctx context.Context, id domain.JobID) (*models.Result, error)
}

// PhotoStore keeps uploaded photos.
type PhotoStore interface {
	Save(ctx context.Context, r io.Reader) (domain.PhotoID, error)
	Delete(ctx context.Context, id domain.PhotoID) error
	MaxBytes() int64
}

// Handler serves the search endpoints.
type Handler struct {
	service Service
	photos  PhotoStore
	logger  *slog.Logger
}

func New(svc Service, photos PhotoStore, logger *slog.Logger) *Handler {
	return &Handler{service: svc, photos: photos, logger: logger}
}

// Register mounts the routes under /api.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.handleBanner)
		r.Post("/search", h.handleSearch)
		r.Get("/search/{id}/status", h.handleStatus)
		r.Get("/search/{id}/result", h.handleResult)
	})
}

func (h *Handler) handleBanner(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, bannerResponse{Message: Banner})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.photos.MaxBytes()+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "request body too large"))
			return
		}
		h.logger.WarnContext(ctx, "invalid search form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, _, err := r.FormFile("photo")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid photo upload"))
		return
	}
	if file != nil {
		defer file.Close()
	}

	req := SearchRequest{
		Name:        r.FormValue("name"),
		DateOfBirth: r.FormValue("dob"),
		State:       r.FormValue("state"),
		Email:       r.FormValue("email"),
		Phone:       r.FormValue("phone"),
		HasPhoto:    file != nil,
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	input := req.Input()
	if file != nil {
		photoID, err := h.photos.Save(ctx, file)
		if err != nil {
			h.logger.WarnContext(ctx, "photo rejected",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		input.Photo = &photoID
	}

	sub, err := h.service.Submit(ctx, input)
	if err != nil {
		if input.Photo != nil {
			h.discardPhoto(ctx, *input.Photo)
		}
		h.writeServiceError(ctx, w, "failed to submit search", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toAcceptedResponse(sub))
}

// discardPhoto removes an upload no job will reference.
func (h *Handler) discardPhoto(ctx context.Context, id domain.PhotoID) {
	if err := h.photos.Delete(context.WithoutCancel(ctx), id); err != nil {
		h.logger.WarnContext(ctx, "failed to delete rejected photo",
			"request_id", request.GetRequestID(ctx),
			"photo_id", id,
			"error", err,
		)
	}
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.Status(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to load search status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(view))
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Result(r.Context(), id)
	if err != nil {
		h.writeServiceError(r.Context(), w, "failed to load search result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// writeServiceError logs internal failures; expected outcomes such as
// validation or not-ready are written without noise.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
