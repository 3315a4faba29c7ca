package store

import (
	"sync"

	"github.com/abgdnv/catalog/internal/model"
)

// Memory implements ProductStore with an ordered slice guarded by a RWMutex.
// Stored and returned products never share their Images slices with callers.
type Memory struct {
	mu       sync.RWMutex
	products []model.Product
}

var _ ProductStore = (*Memory)(nil)

// New creates an empty store.
func New() *Memory {
	return &Memory{}
}

func (s *Memory) SetProducts(products []model.Product) {
	cloned := cloneAll(products)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = cloned
}

func (s *Memory) SeedIfEmpty(products []model.Product) bool {
	cloned := cloneAll(products)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products) > 0 {
		return false
	}
	s.products = cloned
	return true
}

func (s *Memory) AddProduct(product model.Product) {
	product = product.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepend(product)
}

func (s *Memory) Create(product model.Product) model.Product {
	product = product.Clone()
	product.IsCustom = true

	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = s.maxID() + 1
	s.prepend(product)
	return product.Clone()
}

func (s *Memory) UpdateProduct(id int, patch model.ProductPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i] = patch.Apply(s.products[i])
			found = true
		}
	}
	return found
}

func (s *Memory) DeleteProduct(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	removed := len(kept) != len(s.products)
	clear(s.products[len(kept):])
	s.products = kept
	return removed
}

func (s *Memory) ToggleLike(id int) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	liked, found := false, false
	for i := range s.products {
		if s.products[i].ID == id {
			s.products[i].IsLiked = !s.products[i].IsLiked
			if !found {
				liked = s.products[i].IsLiked
				found = true
			}
		}
	}
	return liked, found
}

func (s *Memory) GetProductByID(id int) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return model.Product{}, false
}

func (s *Memory) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.products)
}

func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Memory) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
}

// prepend must be called with the write lock held.
func (s *Memory) prepend(product model.Product) {
	next := make([]model.Product, 0, len(s.products)+1)
	next = append(next, product)
	s.products = append(next, s.products...)
}

// maxID must be called with a lock held. Returns 0 for an empty collection.
func (s *Memory) maxID() int {
	highest := 0
	for _, p := range s.products {
		highest = max(highest, p.ID)
	}
	return highest
}

func cloneAll(products []model.Product) []model.Product {
	if products == nil {
		return nil
	}
	out := make([]model.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
