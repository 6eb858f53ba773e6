package grpc

import (
	"context"
	"time"

	"farmgear-backend/internal/api/grpc/interceptor"
	"farmgear-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the booking core.
const ServiceName = "farmgear.booking"

// Pinger is satisfied by repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker keeps the gRPC health status in line with database reachability.
type HealthChecker struct {
	db       Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
}

func NewHealthChecker(db Pinger, interval time.Duration) *HealthChecker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &HealthChecker{
		db:       db,
		server:   health.NewServer(),
		interval: interval,
		timeout:  2 * time.Second,
	}
}

// Check pings the database once and publishes the result.
func (h *HealthChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(ServiceName, st)
	return st
}

// Run checks on every interval until ctx is done, then marks everything
// NOT_SERVING.
func (h *HealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// NewServer builds the gRPC server exposing health and reflection.
func NewServer(h *HealthChecker) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(interceptor.Unary()),
	)
	healthpb.RegisterHealthServer(s, h.server)

	// Register reflection service for grpcurl
	reflection.Register(s)
	return s
}
