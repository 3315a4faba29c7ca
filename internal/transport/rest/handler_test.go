package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/model"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/view"
	"github.com/abgdnv/catalog/pkg/logger"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalogService is a mock implementation of the CatalogService interface
type mockCatalogService struct {
	product    *model.Product
	list       *service.ListDto
	categories []string
	ready      bool
	error      error

	gotSelection view.Selection
	gotForm      service.ProductFormDto
	gotPatch     model.ProductPatch
	gotID        int
}

func (m *mockCatalogService) List(_ context.Context, sel view.Selection) (*service.ListDto, error) {
	m.gotSelection = sel
	if m.error != nil {
		return nil, m.error
	}
	return m.list, nil
}

func (m *mockCatalogService) Categories(_ context.Context) ([]string, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.categories, nil
}

func (m *mockCatalogService) FindByID(_ context.Context, id int) (*model.Product, error) {
	m.gotID = id
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) Create(_ context.Context, form service.ProductFormDto) (*model.Product, error) {
	m.gotForm = form
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) Update(_ context.Context, id int, form service.ProductFormDto) (*model.Product, error) {
	m.gotID = id
	m.gotForm = form
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) Patch(_ context.Context, id int, patch model.ProductPatch) (*model.Product, error) {
	m.gotID = id
	m.gotPatch = patch
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) DeleteByID(_ context.Context, id int) error {
	m.gotID = id
	return m.error
}

func (m *mockCatalogService) ToggleLike(_ context.Context, id int) (*model.Product, error) {
	m.gotID = id
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalogService) Ready() bool { return m.ready }

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	ValidationErrors map[string]string `json:"validation_errors"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v any) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

func serve(t *testing.T, svc service.CatalogService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

var lamp = model.Product{
	ID:          31,
	Title:       "Desk lamp",
	Description: "Warm light for late nights",
	Price:       24.99,
	Brand:       "Lumo",
	Category:    "home",
	Thumbnail:   "https://cdn.example.com/lamp.png",
	Images:      []string{"https://cdn.example.com/lamp.png"},
	IsCustom:    true,
}

const validFormJSON = `{
	"title": "Desk lamp",
	"description": "Warm light for late nights",
	"price": 24.99,
	"brand": "Lumo",
	"category": "home",
	"thumbnail": "https://cdn.example.com/lamp.png"
}`

func Test_CatalogAPI_List(t *testing.T) {
	list := &service.ListDto{
		Items:      []model.Product{lamp},
		Page:       2,
		TotalPages: 3,
		Total:      25,
		PageSize:   view.PageSize,
		Categories: []string{"all", "home"},
		Seeded:     true,
	}
	testCases := []struct {
		name          string
		target        string
		mockService   *mockCatalogService
		expectedCode  int
		expectedBody  string
		expectedQuery view.Selection
	}{
		{
			name:          "Success - defaults",
			target:        "/api/v1/products",
			mockService:   &mockCatalogService{list: list},
			expectedCode:  http.StatusOK,
			expectedBody:  toJSON(t, list),
			expectedQuery: view.Selection{Filter: view.FilterAll, Category: view.AllCategories, Page: 1},
		},
		{
			name:          "Success - all parameters",
			target:        "/api/v1/products?filter=favorites&q=Phone&category=smartphones&page=2",
			mockService:   &mockCatalogService{list: list},
			expectedCode:  http.StatusOK,
			expectedBody:  toJSON(t, list),
			expectedQuery: view.Selection{Filter: view.FilterFavorites, Search: "Phone", Category: "smartphones", Page: 2},
		},
		{
			name:         "Error - page below one",
			target:       "/api/v1/products?page=0",
			mockService:  &mockCatalogService{list: list},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid page number: 0"}),
		},
		{
			name:         "Error - page not a number",
			target:       "/api/v1/products?page=two",
			mockService:  &mockCatalogService{list: list},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid page number: two"}),
		},
		{
			name:         "Error - unknown filter",
			target:       "/api/v1/products?filter=liked",
			mockService:  &mockCatalogService{list: list},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid filter value: liked"}),
		},
		{
			name:         "Error - service failure",
			target:       "/api/v1/products",
			mockService:  &mockCatalogService{error: errors.New("boom")},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to fetch products"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			rr := serve(t, tc.mockService, http.MethodGet, tc.target, "")
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			if tc.expectedCode == http.StatusOK {
				assert.Equal(t, tc.expectedQuery, tc.mockService.gotSelection)
			}
		})
	}
}

func Test_CatalogAPI_Categories(t *testing.T) {
	svc := &mockCatalogService{categories: []string{"all", "home", "laptops"}}

	rr := serve(t, svc, http.MethodGet, "/api/v1/products/categories", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["all","home","laptops"]`, rr.Body.String())
}

func Test_CatalogAPI_FindByID(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockCatalogService
		productID    string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product found",
			mockService:  &mockCatalogService{product: &lamp},
			productID:    "31",
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, lamp),
		},
		{
			name:         "Error - product not found",
			mockService:  &mockCatalogService{error: catalogerrors.ErrProductNotFound},
			productID:    "7",
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 7 not found"}),
		},
		{
			name:         "Error - invalid ID",
			mockService:  &mockCatalogService{},
			productID:    "abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: abc"}),
		},
		{
			name:         "Error - service failure",
			mockService:  &mockCatalogService{error: errors.New("boom")},
			productID:    "7",
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to retrieve product with ID 7"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, tc.mockService, http.MethodGet, "/api/v1/products/"+tc.productID, "")

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_CatalogAPI_Create(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockService  *mockCatalogService
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product created",
			body:         validFormJSON,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, lamp),
		},
		{
			name: "Error - every rule violated",
			body: `{"title":"ab","description":"short","price":0,"brand":"A","category":"x",
				"thumbnail":"not-a-url","rating":6}`,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{
				"Title":       "failed on rule: min",
				"Description": "failed on rule: min",
				"Price":       "failed on rule: gte",
				"Brand":       "failed on rule: min",
				"Category":    "failed on rule: min",
				"Thumbnail":   "failed on rule: url",
				"Rating":      "failed on rule: lte",
			}}),
		},
		{
			name:         "Error - missing fields",
			body:         `{"price":5}`,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{
				"Title":       "failed on rule: required",
				"Description": "failed on rule: required",
				"Brand":       "failed on rule: required",
				"Category":    "failed on rule: required",
				"Thumbnail":   "failed on rule: required",
			}}),
		},
		{
			name:         "Error - invalid JSON",
			body:         `{"title":`,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, tc.mockService, http.MethodPost, "/api/v1/products", tc.body)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_CatalogAPI_Create_PassesForm(t *testing.T) {
	svc := &mockCatalogService{product: &lamp}

	rr := serve(t, svc, http.MethodPost, "/api/v1/products",
		`{"title":"Desk lamp","description":"Warm light for late nights","price":0.01,"brand":"Lu",
		  "category":"ho","thumbnail":"https://cdn.example.com/lamp.png","rating":5}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 0.01, svc.gotForm.Price)
	require.NotNil(t, svc.gotForm.Rating)
	assert.Equal(t, 5.0, *svc.gotForm.Rating)
}

func Test_CatalogAPI_Update(t *testing.T) {
	testCases := []struct {
		name         string
		productID    string
		body         string
		mockService  *mockCatalogService
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product updated",
			productID:    "31",
			body:         validFormJSON,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, lamp),
		},
		{
			name:         "Error - product not found",
			productID:    "8",
			body:         validFormJSON,
			mockService:  &mockCatalogService{error: catalogerrors.ErrProductNotFound},
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 8 not found"}),
		},
		{
			name:         "Error - validation",
			productID:    "31",
			body:         `{"title":"Desk lamp","description":"Warm light for late nights","price":24.99,"brand":"Lumo","category":"home","thumbnail":"lamp"}`,
			mockService:  &mockCatalogService{product: &lamp},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Thumbnail": "failed on rule: url"}}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, tc.mockService, http.MethodPut, "/api/v1/products/"+tc.productID, tc.body)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_CatalogAPI_Patch(t *testing.T) {
	svc := &mockCatalogService{product: &lamp}

	rr := serve(t, svc, http.MethodPatch, "/api/v1/products/31", `{"price": 19.5}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 31, svc.gotID)
	require.NotNil(t, svc.gotPatch.Price)
	assert.Equal(t, 19.5, *svc.gotPatch.Price)
	assert.Nil(t, svc.gotPatch.Title)

	rr = serve(t, &mockCatalogService{error: catalogerrors.ErrProductNotFound}, http.MethodPatch, "/api/v1/products/5", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, toJSON(t, ErrorResponse{Error: "Product with ID 5 not found"}), rr.Body.String())
}

func Test_CatalogAPI_Patch_Validation(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		expectedBody string
	}{
		{
			name: "Error - empty title, negative price, rating out of range",
			body: `{"title":"","price":-5,"rating":42}`,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{
				"Title":  "failed on rule: min",
				"Price":  "failed on rule: gte",
				"Rating": "failed on rule: lte",
			}}),
		},
		{
			name:         "Error - negative rating",
			body:         `{"rating":-1}`,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Rating": "failed on rule: gte"}}),
		},
		{
			name:         "Error - thumbnail is not a URL",
			body:         `{"thumbnail":"lamp"}`,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Thumbnail": "failed on rule: url"}}),
		},
		{
			name:         "Error - empty brand",
			body:         `{"brand":""}`,
			expectedBody: toJSON(t, ValidationErrorResponse{ValidationErrors: map[string]string{"Brand": "failed on rule: min"}}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockCatalogService{product: &lamp}

			// when
			rr := serve(t, svc, http.MethodPatch, "/api/v1/products/31", tc.body)

			// then
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			assert.Zero(t, svc.gotID, "service must not be called")
		})
	}
}

func Test_CatalogAPI_LogsRequestIDOnce(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	r := chi.NewRouter()
	r.Use(web.RequestIDInjector)
	NewHandler(&mockCatalogService{error: catalogerrors.ErrProductNotFound}, log).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/9", nil)
	req.Header.Set(web.XRequestID, "req-9")

	// when
	r.ServeHTTP(httptest.NewRecorder(), req)

	// then
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"request_id"`), line)
		assert.Contains(t, line, `"request_id":"req-9"`)
	}
}

func Test_CatalogAPI_DeleteByID(t *testing.T) {
	testCases := []struct {
		name         string
		productID    string
		mockService  *mockCatalogService
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product deleted",
			productID:    "3",
			mockService:  &mockCatalogService{},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Error - product not found",
			productID:    "3",
			mockService:  &mockCatalogService{error: catalogerrors.ErrProductNotFound},
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product with ID 3 not found"}),
		},
		{
			name:         "Error - invalid ID",
			productID:    "3.5",
			mockService:  &mockCatalogService{},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: 3.5"}),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, tc.mockService, http.MethodDelete, "/api/v1/products/"+tc.productID, "")

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody == "" {
				assert.Empty(t, rr.Body.String())
				return
			}
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_CatalogAPI_ToggleLike(t *testing.T) {
	liked := lamp
	liked.IsLiked = true
	svc := &mockCatalogService{product: &liked}

	rr := serve(t, svc, http.MethodPost, "/api/v1/products/31/like", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 31, svc.gotID)
	assert.JSONEq(t, toJSON(t, liked), rr.Body.String())

	rr = serve(t, &mockCatalogService{error: catalogerrors.ErrProductNotFound}, http.MethodPost, "/api/v1/products/9/like", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_CatalogAPI_HealthAndReadiness(t *testing.T) {
	rr := serve(t, &mockCatalogService{}, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(t, &mockCatalogService{ready: false}, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = serve(t, &mockCatalogService{ready: true}, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
