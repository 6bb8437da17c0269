package handler

import (
	"time"

	"pastmatters/internal/verification/models"
	"pastmatters/internal/verification/service"
)

type bannerResponse struct {
	Message string `json:"message"`
}

// SearchAcceptedResponse is returned for a queued search.
type SearchAcceptedResponse struct {
	JobID         string        `json:"job_id"`
	Status        models.Status `json:"status"`
	EstimatedTime int           `json:"estimated_time"`
	StatusURL     string        `json:"status_url"`
}

// SearchStatusResponse is a poll of one search.
type SearchStatusResponse struct {
	JobID       string          `json:"job_id"`
	Status      models.Status   `json:"status"`
	Progress    models.Progress `json:"progress"`
	ResultURL   string          `json:"result_url,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func statusURL(id string) string { return "/api/search/" + id + "/status" }
func resultURL(id string) string { return "/api/search/" + id + "/result" }

func toAcceptedResponse(sub *service.Submission) SearchAcceptedResponse {
	id := sub.JobID.String()
	return SearchAcceptedResponse{
		JobID:         id,
		Status:        sub.Status,
		EstimatedTime: int(sub.EstimatedTime.Seconds()),
		StatusURL:     statusURL(id),
	}
}

func toStatusResponse(view *service.StatusView) SearchStatusResponse {
	id := view.JobID.String()
	resp := SearchStatusResponse{
		JobID:       id,
		Status:      view.Status,
		Progress:    view.Progress,
		Error:       view.Error,
		CreatedAt:   view.CreatedAt,
		CompletedAt: view.CompletedAt,
	}
	if view.Status == models.StatusCompleted {
		resp.ResultURL = resultURL(id)
	}
	return resp
}
