// Package rest provides HTTP handlers for the catalog.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/model"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/view"
	"github.com/abgdnv/catalog/pkg/logger"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of the catalog API with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/categories", h.Categories)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Patch("/", h.Patch)
			r.Delete("/", h.DeleteByID)
			r.Post("/like", h.ToggleLike)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// List returns one page of the catalog for the filter, q, category and page query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	filter, ok := web.ParseOptionalEnum(r, w, mLogger, "filter", view.FilterAll, view.FilterAll, view.FilterFavorites)
	if !ok {
		return
	}
	page, ok := web.ParseOptionalGte(r, w, mLogger, "page", 1, 1)
	if !ok {
		return
	}
	category := r.URL.Query().Get("category")
	if category == "" {
		category = view.AllCategories
	}
	sel := view.DefaultSelection().
		WithFilter(filter).
		WithSearch(r.URL.Query().Get("q")).
		WithCategory(category).
		WithPage(page)

	mLogger.DebugContext(r.Context(), "Received request to list products", "selection", sel)
	list, err := h.service.List(r.Context(), sel)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list.Items), "total", list.Total)
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Categories returns the category options.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving categories", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, categories)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, id, "retrieve", err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	form, ok := h.decodeForm(w, r, mLogger)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), form)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Title", created.Title)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update applies the edit form to an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	form, ok := h.decodeForm(w, r, mLogger)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		h.respondServiceError(w, r, mLogger, id, "update", err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Title", updated.Title)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Patch merges the given fields into an existing product.
func (h *Handler) Patch(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var patch model.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		if !web.RespondValidation(w, mLogger, err) {
			mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
			web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		}
		return
	}

	updated, err := h.service.Patch(r.Context(), id, patch)
	if err != nil {
		h.respondServiceError(w, r, mLogger, id, "update", err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product patched successfully", "ID", updated.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, mLogger, id, "delete", err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike flips the liked flag of a product.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	toggled, err := h.service.ToggleLike(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, id, "like", err)
		return
	}
	mLogger.DebugContext(r.Context(), "Product like toggled", "ID", id, "liked", toggled.IsLiked)
	web.RespondJSON(w, mLogger, http.StatusOK, toggled)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck answers 503 until the catalog has been seeded or holds products.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.service.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeForm reads and validates a ProductFormDto. It writes the error response itself.
func (h *Handler) decodeForm(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (service.ProductFormDto, bool) {
	var form service.ProductFormDto
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return form, false
	}
	if err := h.validate.Struct(form); err != nil {
		if web.RespondValidation(w, mLogger, err) {
			return form, false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return form, false
	}
	return form, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id int, action string, err error) {
	if errors.Is(err, catalogerrors.ErrProductNotFound) {
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id, "action", action)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	mLogger.ErrorContext(r.Context(), "Error processing product", "ID", id, "action", action, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product with ID %d", action, id))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With(logger.RequestIDKey, reqID)
}
