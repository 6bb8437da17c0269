package ports

import (
	"context"

	"pastmatters/internal/verification/models"
)

// Query is what a collector searches for: the working subject name plus an
// optional source-specific hint (state for courts, email for profiles).
type Query struct {
	Name string
	Hint string
}

// Collection is a collector's answer. Degraded marks a result produced
// while the source was failing; Records may then be empty or partial.
type Collection[T any] struct {
	Records  []T
	Degraded bool
}

// Collector fetches one kind of evidence about a subject.
// Implementations never return errors and must be safe for concurrent use.
type Collector[T any] interface {
	Fetch(ctx context.Context, q Query) Collection[T]
}

// LegalCollector finds court cases.
type LegalCollector = Collector[models.LegalRecord]

// ProfileCollector finds matrimonial, dating or social profiles.
type ProfileCollector = Collector[models.ProfileRecord]

// EmptyCollector always finds nothing. It stands in for sources that are
// not configured.
type EmptyCollector[T any] struct{}

func (EmptyCollector[T]) Fetch(context.Context, Query) Collection[T] {
	return Collection[T]{Records: []T{}}
}
