// Package service provides the catalog business logic on top of the product store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/loader"
	"github.com/abgdnv/catalog/internal/model"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/internal/view"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// CatalogService defines the operations available to the presentation layer.
type CatalogService interface {
	// List seeds the store if needed and returns the page described by sel.
	List(ctx context.Context, sel view.Selection) (*ListDto, error)

	// Categories returns the category options, "all" first.
	Categories(ctx context.Context) ([]string, error)

	// FindByID retrieves a single product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int) (*model.Product, error)

	// Create adds a product built from a validated form and assigns it a new ID.
	Create(ctx context.Context, form ProductFormDto) (*model.Product, error)

	// Update overwrites the editable fields of a product with a validated form.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Update(ctx context.Context, id int, form ProductFormDto) (*model.Product, error)

	// Patch merges the non-nil fields of patch over a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	Patch(ctx context.Context, id int, patch model.ProductPatch) (*model.Product, error)

	// DeleteByID removes a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	DeleteByID(ctx context.Context, id int) error

	// ToggleLike flips the liked flag of a product and returns it.
	// Returns ErrProductNotFound if no product exists with the given ID.
	ToggleLike(ctx context.Context, id int) (*model.Product, error)

	// Ready reports whether the catalog has been seeded or has held products.
	// Once ready, it stays ready.
	Ready() bool
}

// Seeder populates the store from the remote catalog.
type Seeder interface {
	EnsureSeeded(ctx context.Context) loader.SeedResult
	Seeded() bool
	OnSeeded(fn func())
}

// ListDto is one page of the catalog together with the data needed to render it.
type ListDto struct {
	Items        []model.Product `json:"items"`
	Page         int             `json:"page"`
	TotalPages   int             `json:"totalPages"`
	Total        int             `json:"total"`
	PageSize     int             `json:"pageSize"`
	Categories   []string        `json:"categories"`
	Selection    view.Selection  `json:"selection"`
	Seeded       bool            `json:"seeded"`
	EmptyMessage string          `json:"emptyMessage,omitempty"`
}

// ProductFormDto is the create and edit form.
// Rating is optional; a new product without one is rated 0.
type ProductFormDto struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Description string   `json:"description" validate:"required,min=10"`
	Price       float64  `json:"price" validate:"gte=0.01"`
	Brand       string   `json:"brand" validate:"required,min=2"`
	Category    string   `json:"category" validate:"required,min=2"`
	Thumbnail   string   `json:"thumbnail" validate:"required,url"`
	Rating      *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// Service implements CatalogService.
type Service struct {
	store     store.ProductStore
	seeder    Seeder
	publisher messaging.Publisher
	logger    *slog.Logger
	now       func() time.Time

	ready   atomic.Bool
	readyMu sync.Mutex
	onReady []func()

	createdCounter metric.Int64Counter
	deletedCounter metric.Int64Counter
	likesCounter   metric.Int64Counter
}

// NewService creates a new instance of CatalogService.
func NewService(productStore store.ProductStore, seeder Seeder, publisher messaging.Publisher, logger *slog.Logger) *Service {
	meter := otel.Meter("catalog")
	s := &Service{
		store:          productStore,
		seeder:         seeder,
		publisher:      publisher,
		logger:         logger.With("component", "service"),
		now:            time.Now,
		createdCounter: mustCounter(meter, "catalog_products_created", "Total number of created products"),
		deletedCounter: mustCounter(meter, "catalog_products_deleted", "Total number of deleted products"),
		likesCounter:   mustCounter(meter, "catalog_likes_toggled", "Total number of like toggles"),
	}
	seeder.OnSeeded(s.markReady)
	return s
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Sprintf("failed to create %s counter: %v", name, err))
	}
	return counter
}

// List seeds the store if it is still empty, then applies the selection to a snapshot.
func (s *Service) List(ctx context.Context, sel view.Selection) (*ListDto, error) {
	s.seeder.EnsureSeeded(ctx)

	all := s.store.Products()
	page := view.Apply(all, sel.Query())
	dto := &ListDto{
		Items:      page.Items,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		PageSize:   page.PageSize,
		Categories: view.Categories(all),
		Selection:  sel,
		Seeded:     s.Ready(),
	}
	if len(page.Items) == 0 {
		dto.EmptyMessage = view.EmptyMessage(sel)
	}
	return dto, nil
}

func (s *Service) Categories(_ context.Context) ([]string, error) {
	return view.Categories(s.store.Products()), nil
}

// FindByID retrieves a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) FindByID(_ context.Context, id int) (*model.Product, error) {
	p, ok := s.store.GetProductByID(id)
	if !ok {
		return nil, notFound(id)
	}
	return &p, nil
}

// Create builds a custom product from form and stores it under a fresh ID.
func (s *Service) Create(ctx context.Context, form ProductFormDto) (*model.Product, error) {
	rating := 0.0
	if form.Rating != nil {
		rating = *form.Rating
	}
	created := s.store.Create(model.Product{
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
		Rating:      rating,
		Brand:       form.Brand,
		Category:    form.Category,
		Thumbnail:   form.Thumbnail,
		Images:      []string{form.Thumbnail},
		IsLiked:     false,
		IsCustom:    true,
	})

	s.publish(ctx, events.ProductCreatedEvent{
		ProductID: created.ID,
		Title:     created.Title,
		Category:  created.Category,
		Price:     created.Price,
		CreatedAt: s.now().UTC(),
	})
	s.createdCounter.Add(ctx, 1)
	s.markReady()

	return &created, nil
}

// Update overwrites the form fields of a product. A form without a rating sets it to 0.
func (s *Service) Update(ctx context.Context, id int, form ProductFormDto) (*model.Product, error) {
	rating := 0.0
	if form.Rating != nil {
		rating = *form.Rating
	}
	patch := model.ProductPatch{
		Title:       &form.Title,
		Description: &form.Description,
		Price:       &form.Price,
		Rating:      &rating,
		Brand:       &form.Brand,
		Category:    &form.Category,
		Thumbnail:   &form.Thumbnail,
		Images:      []string{form.Thumbnail},
	}
	return s.applyPatch(ctx, id, patch)
}

func (s *Service) Patch(ctx context.Context, id int, patch model.ProductPatch) (*model.Product, error) {
	return s.applyPatch(ctx, id, patch)
}

func (s *Service) applyPatch(ctx context.Context, id int, patch model.ProductPatch) (*model.Product, error) {
	if !s.store.UpdateProduct(id, patch) {
		return nil, notFound(id)
	}
	updated, ok := s.store.GetProductByID(id)
	if !ok {
		// deleted concurrently
		return nil, notFound(id)
	}

	s.publish(ctx, events.ProductUpdatedEvent{
		ProductID: updated.ID,
		Title:     updated.Title,
		UpdatedAt: s.now().UTC(),
	})
	return &updated, nil
}

// DeleteByID removes a product by its ID.
// Returns ErrProductNotFound if no product exists with the given ID.
func (s *Service) DeleteByID(ctx context.Context, id int) error {
	if !s.store.DeleteProduct(id) {
		return notFound(id)
	}

	s.publish(ctx, events.ProductDeletedEvent{ProductID: id, DeletedAt: s.now().UTC()})
	s.deletedCounter.Add(ctx, 1)
	return nil
}

func (s *Service) ToggleLike(ctx context.Context, id int) (*model.Product, error) {
	liked, ok := s.store.ToggleLike(id)
	if !ok {
		return nil, notFound(id)
	}
	p, ok := s.store.GetProductByID(id)
	if !ok {
		return nil, notFound(id)
	}

	s.publish(ctx, events.ProductLikedEvent{ProductID: id, Liked: liked, ChangedAt: s.now().UTC()})
	s.likesCounter.Add(ctx, 1)
	return &p, nil
}

// Ready latches the first time the catalog is seeded or found non-empty.
func (s *Service) Ready() bool {
	if s.ready.Load() {
		return true
	}
	if s.seeder.Seeded() || s.store.Len() > 0 {
		s.markReady()
		return true
	}
	return false
}

// OnReady registers fn to run once the catalog becomes ready.
// fn runs immediately if it already is.
func (s *Service) OnReady(fn func()) {
	s.readyMu.Lock()
	if !s.ready.Load() {
		s.onReady = append(s.onReady, fn)
		s.readyMu.Unlock()
		return
	}
	s.readyMu.Unlock()
	fn()
}

func (s *Service) markReady() {
	s.readyMu.Lock()
	if s.ready.Load() {
		s.readyMu.Unlock()
		return
	}
	s.ready.Store(true)
	callbacks := s.onReady
	s.onReady = nil
	s.readyMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// publish sends event and only logs a failure; the mutation has already happened.
func (s *Service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

func notFound(id int) error {
	return fmt.Errorf("product %d: %w", id, catalogerrors.ErrProductNotFound)
}
