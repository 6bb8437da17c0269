// Package domain holds typed identifiers shared across layers.
//
// Each identifier wraps a UUID in its own named type so a photo handle can
// never be passed where a job id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "pastmatters/pkg/domain-errors"
)

// JobID identifies a verification job.
type JobID uuid.UUID

// PhotoID identifies an uploaded subject photo.
type PhotoID uuid.UUID

// NewJobID generates a random job id.
func NewJobID() JobID { return JobID(uuid.New()) }

// NewPhotoID generates a random photo id.
func NewPhotoID() PhotoID { return PhotoID(uuid.New()) }

// ParseJobID parses a job id from its string form.
func ParseJobID(s string) (JobID, error) {
	return parseUUID[JobID](s, "job id")
}

// ParsePhotoID parses a photo id from its string form.
func ParsePhotoID(s string) (PhotoID, error) {
	return parseUUID[PhotoID](s, "photo id")
}

func parseUUID[T ~[16]byte](s, label string) (T, error) {
	var zero T
	if s == "" {
		return zero, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return zero, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return zero, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	return T(u), nil
}

func (id JobID) String() string   { return uuid.UUID(id).String() }
func (id PhotoID) String() string { return uuid.UUID(id).String() }

func (id JobID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PhotoID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id JobID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *JobID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id PhotoID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *PhotoID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
