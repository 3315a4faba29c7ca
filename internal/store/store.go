// Package store holds the in-memory product collection.
package store

import "github.com/abgdnv/catalog/internal/model"

// ProductStore is the single source of truth for the product collection.
// It is mutated only through these operations; every operation is atomic.
type ProductStore interface {
	// SetProducts replaces the entire collection. No validation is performed.
	SetProducts(products []model.Product)

	// SeedIfEmpty replaces the collection only if it is empty.
	// Reports whether the collection was replaced.
	SeedIfEmpty(products []model.Product) bool

	// AddProduct prepends product. The caller owns id uniqueness.
	AddProduct(product model.Product)

	// Create assigns max(existing ids, 0)+1, marks the product as custom and prepends it.
	// Returns the stored product.
	Create(product model.Product) model.Product

	// UpdateProduct shallow-merges patch over the entry with id.
	// Reports false, changing nothing, if no entry matches.
	UpdateProduct(id int, patch model.ProductPatch) bool

	// DeleteProduct removes every entry with id. Reports whether anything was removed.
	DeleteProduct(id int) bool

	// ToggleLike flips IsLiked on the entry with id.
	// Returns the new value and whether an entry matched.
	ToggleLike(id int) (liked bool, found bool)

	// GetProductByID returns the first entry with id.
	GetProductByID(id int) (model.Product, bool)

	// Products returns a copy of the collection in order.
	Products() []model.Product

	// Len returns the number of entries.
	Len() int

	// Reset empties the collection.
	Reset()
}
