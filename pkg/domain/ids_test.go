package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "pastmatters/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseJobID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseJobID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseJobID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseJobID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, JobID(validUUID), id)
	})
}

// TestTypeDistinction verifies job and photo ids stay distinct types.
func TestTypeDistinction(t *testing.T) {
	jobID := NewJobID()
	photoID := NewPhotoID()

	// var _ JobID = photoID   // compile error
	assert.NotEqual(t, uuid.UUID(jobID), uuid.UUID(photoID))
	assert.False(t, jobID.IsNil())
	assert.True(t, JobID{}.IsNil())
}

func TestParseID_RejectsHostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE verification_jobs;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errJob := ParseJobID(tt.input)
			_, errPhoto := ParsePhotoID(tt.input)
			if tt.wantErr {
				require.Error(t, errJob)
				require.Error(t, errPhoto)
			} else {
				require.NoError(t, errJob)
				require.NoError(t, errPhoto)
			}
		})
	}
}

func TestJobID_JSON(t *testing.T) {
	id := NewJobID()
	body, err := json.Marshal(map[string]JobID{"job_id": id})
	require.NoError(t, err)
	assert.Contains(t, string(body), id.String())

	var decoded map[string]JobID
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, id, decoded["job_id"])
}
