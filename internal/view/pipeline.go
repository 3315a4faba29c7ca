// Package view derives the visible product page from the collection.
// Every function here is pure: the same input always yields the same page.
package view

import (
	"strings"

	"github.com/abgdnv/catalog/internal/model"
)

const (
	// PageSize is the number of products on one page.
	PageSize = 12
	// AllCategories is the category sentinel that disables the category filter.
	AllCategories = "all"
)

// Query holds the criteria applied to the collection.
type Query struct {
	FavoritesOnly bool
	Search        string
	Category      string
	Page          int
}

// Page is one window of the filtered collection.
type Page struct {
	Items      []model.Product `json:"items"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
	PageSize   int             `json:"pageSize"`
}

// Apply runs favorites, search, category and pagination in that order.
// Page values below 1 are treated as 1. A page past the end yields no items.
func Apply(products []model.Product, q Query) Page {
	filtered := Filter(products, q)

	page := max(q.Page, 1)
	n := len(filtered)
	start := min((page-1)*PageSize, n)
	end := min(page*PageSize, n)

	items := make([]model.Product, end-start)
	copy(items, filtered[start:end])

	return Page{
		Items:      items,
		Page:       page,
		TotalPages: TotalPages(n),
		Total:      n,
		PageSize:   PageSize,
	}
}

// Filter applies the favorites, search and category stages and keeps the input order.
func Filter(products []model.Product, q Query) []model.Product {
	search := strings.ToLower(q.Search)
	searching := strings.TrimSpace(q.Search) != ""
	byCategory := q.Category != "" && q.Category != AllCategories

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if q.FavoritesOnly && !p.IsLiked {
			continue
		}
		if searching && !matches(p, search) {
			continue
		}
		if byCategory && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TotalPages returns ceil(n / PageSize).
func TotalPages(n int) int {
	return (n + PageSize - 1) / PageSize
}

// Categories returns the sentinel followed by every distinct category in first-seen order.
func Categories(products []model.Product) []string {
	out := []string{AllCategories}
	seen := map[string]struct{}{AllCategories: {}}
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// matches reports whether title, description or brand contains the lowered query.
func matches(p model.Product, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Title), lowered) ||
		strings.Contains(strings.ToLower(p.Description), lowered) ||
		strings.Contains(strings.ToLower(p.Brand), lowered)
}
