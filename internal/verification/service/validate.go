package service

import (
	"net/mail"
	"strings"
	"time"

	"pastmatters/internal/verification/models"
	dErrors "pastmatters/pkg/domain-errors"
)

const dobLayout = "2006-01-02"

// NormalizeInput trims every field and checks that the subject is
// identifiable: a name with a date of birth, or an uploaded photo.
func NormalizeInput(input models.SubjectInput, now time.Time) (models.SubjectInput, error) {
	input.Name = strings.Join(strings.Fields(input.Name), " ")
	input.DateOfBirth = strings.TrimSpace(input.DateOfBirth)
	input.State = strings.TrimSpace(input.State)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)

	if !input.HasPhoto() {
		if input.Name == "" {
			return input, dErrors.New(dErrors.CodeValidation, "either name and date of birth, or a photo, is required")
		}
		if input.DateOfBirth == "" {
			return input, dErrors.New(dErrors.CodeValidation, "dob is required when searching by name")
		}
	}

	if input.DateOfBirth != "" {
		dob, err := time.Parse(dobLayout, input.DateOfBirth)
		if err != nil {
			return input, dErrors.New(dErrors.CodeValidation, "dob must be a date in YYYY-MM-DD format")
		}
		if dob.After(now) {
			return input, dErrors.New(dErrors.CodeValidation, "dob cannot be in the future")
		}
	}

	if input.Email != "" {
		addr, err := mail.ParseAddress(input.Email)
		if err != nil || addr.Address != input.Email {
			return input, dErrors.New(dErrors.CodeValidation, "email is not a valid address")
		}
	}
	return input, nil
}
