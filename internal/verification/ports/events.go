package ports

//go:generate mockgen -source=events.go -destination=../mocks/events_mocks.go -package=mocks EventPublisher

import (
	"context"

	"pastmatters/internal/verification/models"
)

// EventPublisher announces terminal job transitions to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, event models.JobEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.JobEvent) error { return nil }
