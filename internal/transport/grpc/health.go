// Package grpc exposes the catalog readiness over the gRPC health protocol.
package grpc

import (
	"log/slog"

	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reporting catalog readiness.
const ServiceName = "catalog"

// ReadinessNotifier calls fn once the catalog is ready, the same condition /readyz reports.
type ReadinessNotifier interface {
	OnReady(fn func())
}

// NewHealthServer returns a health server where the process is SERVING and
// ServiceName stays NOT_SERVING until notifier reports the catalog ready.
func NewHealthServer(notifier ReadinessNotifier, logger *slog.Logger) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	notifier.OnReady(func() {
		logger.Info("catalog ready, reporting SERVING", "service", ServiceName)
		hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	})
	return hs
}

// MarkNotServing flips every status to NOT_SERVING ahead of a shutdown.
func MarkNotServing(hs *health.Server) {
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}
