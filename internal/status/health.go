package status

import (
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-checked service name.
const ServiceName = "mlclient.TurnLoop"

// Health runs the standard gRPC health service for the turn loop.
type Health struct {
	server *grpc.Server
	health *health.Server
	logger zerolog.Logger
}

// NewHealth starts in NOT_SERVING.
func NewHealth(logger zerolog.Logger) *Health {
	h := &Health{
		server: grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(h.server, h.health)
	h.SetServing(false)
	return h
}

// SetServing reports whether the turn loop is running.
func (h *Health) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ServiceName, status)
	h.health.SetServingStatus("", status)
	h.logger.Debug().Stringer("status", status).Msg("Health status changed")
}

// Serve blocks serving lis until Stop.
func (h *Health) Serve(lis net.Listener) error {
	h.logger.Info().Str("addr", lis.Addr().String()).Msg("Health server listening")
	return h.server.Serve(lis)
}

// Stop marks every service NOT_SERVING and stops the server.
func (h *Health) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
