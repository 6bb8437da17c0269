package handler

import (
	"strings"

	"pastmatters/internal/verification/models"
	dErrors "pastmatters/pkg/domain-errors"
)

// SearchRequest is the multipart search form without the photo part.
type SearchRequest struct {
	Name        string
	DateOfBirth string
	State       string
	Email       string
	Phone       string
	HasPhoto    bool
}

// Validate rejects forms that cannot identify anyone, before a photo is
// stored. Field formats are checked by the service.
func (r *SearchRequest) Validate() error {
	if r.HasPhoto {
		return nil
	}
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.DateOfBirth) == "" {
		return dErrors.New(dErrors.CodeValidation, "either name and date of birth, or a photo, is required")
	}
	return nil
}

// Input converts the form into subject input.
func (r *SearchRequest) Input() models.SubjectInput {
	return models.SubjectInput{
		Name:        r.Name,
		DateOfBirth: r.DateOfBirth,
		State:       r.State,
		Email:       r.Email,
		Phone:       r.Phone,
	}
}
