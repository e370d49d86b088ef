package probe

import (
	"context"
	"time"

	"defense_service/pkg/logging"
	"defense_service/pkg/metadata"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the health service name reported for the storage backend.
const Service = "postgres"

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds the gRPC server hosting the health service, with the
// metadata and logging interceptors chained.
func NewServer(logger *logging.Logger) *grpc.Server {
	return grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			metadata.NewMetadataUnaryInterceptor(),
			logging.NewUnaryLoggingInterceptor(logger),
		)),
	)
}

type Probe struct {
	health   *health.Server
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
}

// Register installs the health service on srv. A nil pinger always reports
// SERVING.
func Register(srv *grpc.Server, pinger Pinger) *Probe {
	p := &Probe{
		health:   health.NewServer(),
		pinger:   pinger,
		interval: 15 * time.Second,
		timeout:  3 * time.Second,
	}
	grpc_health_v1.RegisterHealthServer(srv, p.health)
	p.health.SetServingStatus(Service, grpc_health_v1.HealthCheckResponse_SERVING)
	return p
}

// Watch pings the database every interval until ctx is done, then marks
// every service NOT_SERVING.
func (p *Probe) Watch(ctx context.Context) {
	if p.pinger == nil {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.health.Shutdown()
			return
		case <-ticker.C:
			p.check(ctx)
		}
	}
}

func (p *Probe) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.pinger.Ping(pingCtx); err != nil {
		logging.FromContext(ctx).Warn(ctx, "database ping failed", zap.Error(err))
		p.health.SetServingStatus(Service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	p.health.SetServingStatus(Service, grpc_health_v1.HealthCheckResponse_SERVING)
}
