package view

// Filter values of a Selection.
const (
	FilterAll       = "all"
	FilterFavorites = "favorites"
)

// Empty-state messages.
const (
	NoFavoritesMessage = "no favorite products"
	NoProductsMessage  = "no products found"
)

// Selection is the browsing state of a client: the active criteria and the current page.
// Changing any criterion moves back to the first page.
type Selection struct {
	Filter   string `json:"filter"`
	Search   string `json:"search"`
	Category string `json:"category"`
	Page     int    `json:"page"`
}

// DefaultSelection is the state of a fresh catalog view.
func DefaultSelection() Selection {
	return Selection{Filter: FilterAll, Category: AllCategories, Page: 1}
}

func (s Selection) WithFilter(filter string) Selection {
	s.Filter = filter
	s.Page = 1
	return s
}

func (s Selection) WithSearch(search string) Selection {
	s.Search = search
	s.Page = 1
	return s
}

func (s Selection) WithCategory(category string) Selection {
	s.Category = category
	s.Page = 1
	return s
}

// WithPage moves to page and keeps the criteria.
func (s Selection) WithPage(page int) Selection {
	s.Page = page
	return s
}

// Clamp keeps the page within [1, max(totalPages, 1)].
func (s Selection) Clamp(totalPages int) Selection {
	s.Page = min(max(s.Page, 1), max(totalPages, 1))
	return s
}

// Next moves one page forward without passing the last page.
func (s Selection) Next(totalPages int) Selection {
	return s.WithPage(s.Page + 1).Clamp(totalPages)
}

// Prev moves one page back without passing the first page.
func (s Selection) Prev() Selection {
	return s.WithPage(max(s.Page-1, 1))
}

func (s Selection) FavoritesOnly() bool {
	return s.Filter == FilterFavorites
}

// Query converts the selection into pipeline criteria.
func (s Selection) Query() Query {
	return Query{
		FavoritesOnly: s.FavoritesOnly(),
		Search:        s.Search,
		Category:      s.Category,
		Page:          s.Page,
	}
}

// EmptyMessage is the reason shown when the selection matches nothing.
func EmptyMessage(s Selection) string {
	if s.FavoritesOnly() {
		return NoFavoritesMessage
	}
	return NoProductsMessage
}
