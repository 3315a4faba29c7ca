// Package events contains the catalog events and their JSON payloads.
package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
)

type ProductCreatedEvent struct {
	ProductID int       `json:"product_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductUpdatedEvent struct {
	ProductID int       `json:"product_id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e ProductUpdatedEvent) Subject() string {
	return messaging.ProductUpdatedSubject
}

func (e ProductUpdatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	ProductID int       `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductLikedEvent struct {
	ProductID int       `json:"product_id"`
	Liked     bool      `json:"liked"`
	ChangedAt time.Time `json:"changed_at"`
}

func (e ProductLikedEvent) Subject() string {
	return messaging.ProductLikedSubject
}

func (e ProductLikedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
