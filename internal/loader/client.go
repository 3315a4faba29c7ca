// Package loader fetches the remote catalog and seeds the product store from it.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/abgdnv/catalog/internal/model"
	"github.com/abgdnv/catalog/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrUnexpectedStatus is returned when the remote catalog answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from remote catalog")

// Fetcher retrieves a product list from the remote catalog.
type Fetcher interface {
	FetchProducts(ctx context.Context, limit int) (*model.ProductsResponse, error)
}

// Client calls GET <baseURL>/products?limit=N. It never retries;
// a circuit breaker stops calls to an upstream that keeps failing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*model.ProductsResponse]
}

var _ Fetcher = (*Client)(nil)

// NewClient creates a Client with an instrumented transport.
func NewClient(cfg config.CatalogSourceConfig, logger *slog.Logger) *Client {
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return NewClientWith(cfg, httpClient, logger)
}

// NewClientWith creates a Client that sends requests through httpClient.
func NewClientWith(cfg config.CatalogSourceConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		breaker:    newBreaker(cfg.CircuitBreaker, logger),
	}
}

func newBreaker(cfg config.CircuitBreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[*model.ProductsResponse] {
	st := gobreaker.Settings{
		Name:        "remote-catalog-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the upstream.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return gobreaker.NewCircuitBreaker[*model.ProductsResponse](st)
}

// FetchProducts requests up to limit products. Every returned product is
// normalized to isLiked=false and isCustom=false.
func (c *Client) FetchProducts(ctx context.Context, limit int) (*model.ProductsResponse, error) {
	resp, err := c.breaker.Execute(func() (*model.ProductsResponse, error) {
		return c.fetch(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	for i := range resp.Products {
		resp.Products[i].IsLiked = false
		resp.Products[i].IsCustom = false
	}
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, limit int) (*model.ProductsResponse, error) {
	endpoint := c.baseURL + "/products?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	var body model.ProductsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode products response: %w", err)
	}
	return &body, nil
}
