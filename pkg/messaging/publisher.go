// Package messaging defines the event publishing contract used by the services.
package messaging

import (
	"context"
)

// Subjects published by the catalog.
const (
	ProductCreatedSubject = "catalog.product.created"
	ProductUpdatedSubject = "catalog.product.updated"
	ProductDeletedSubject = "catalog.product.deleted"
	ProductLikedSubject   = "catalog.product.liked"

	// ProductSubjects matches every catalog product subject.
	ProductSubjects = "catalog.product.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}
