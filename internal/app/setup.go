// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/loader"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	grpcImpl "github.com/abgdnv/catalog/internal/transport/grpc"
	"github.com/abgdnv/catalog/internal/transport/rest"
	"github.com/abgdnv/catalog/pkg/messaging"
	natsclient "github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	Store          store.ProductStore
	Seeder         *loader.Seeder
	CatalogService service.CatalogService
	Health         *health.Server
	Logger         *slog.Logger

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// SetupDependencies builds the store, the seeder and the service around fetcher and publisher.
func SetupDependencies(cfg *config.Config, fetcher loader.Fetcher, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	productStore := store.New()
	seeder := loader.NewSeeder(productStore, fetcher, cfg.Catalog.Limit, cfg.Catalog.Timeout, logger)
	catalogService := service.NewService(productStore, seeder, publisher, logger)

	return &Dependencies{
		Store:          productStore,
		Seeder:         seeder,
		CatalogService: catalogService,
		Health:         grpcImpl.NewHealthServer(catalogService, logger),
		Logger:         logger,
		MetricsPath:    cfg.Telemetry.Metrics.Path,
	}
}

// SetupHttpHandler initializes the router and routes for the catalog.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Logger)
	catalogHandler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures an HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, "catalog-http", SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server exposing the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, nil, server.WithHealth(deps.Health))
}

// SetupPublisher connects to NATS JetStream when enabled, otherwise events are dropped.
// The returned function releases the connection.
func SetupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Nats.Enabled {
		logger.Info("NATS disabled, events will not be published")
		return messaging.NoopPublisher{}, func() {}, nil
	}

	nc, err := natsclient.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if err := natsclient.EnsureStream(ctx, js, cfg.Nats.Stream, messaging.ProductSubjects); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to prepare event stream: %w", err)
	}
	logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "stream", cfg.Nats.Stream)

	return natsclient.NewNatsPublisher(js), func() { _ = nc.Drain() }, nil
}
