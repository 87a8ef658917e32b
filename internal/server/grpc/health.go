// Package grpc serves the standard gRPC health protocol with one service per
// model role, so orchestrators can probe model readiness without HTTP.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ekisa-team/voxgate/internal/model"
)

// Health service names.
const (
	ServiceTTS = "voxgate.tts"
	ServiceASR = "voxgate.asr"
)

// ReadinessSource notifies readiness changes of the model handles.
type ReadinessSource interface {
	OnReady(fn func(kind model.Kind, ready bool))
}

// Server is a gRPC server exposing grpc.health.v1.Health.
type Server struct {
	addr   string
	server *grpc.Server
	health *health.Server
}

// New creates a health server for host:port. The overall service "" is
// SERVING while the process runs; the per-model services start NOT_SERVING.
func New(host string, port int) *Server {
	s := &Server{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		server: grpc.NewServer(),
		health: health.NewServer(),
	}

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceTTS, healthpb.HealthCheckResponse_NOT_SERVING)
	s.health.SetServingStatus(ServiceASR, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.server, s.health)

	return s
}

// Track mirrors the readiness of src into the per-model services.
func (s *Server) Track(src ReadinessSource) {
	src.OnReady(func(kind model.Kind, ready bool) {
		service := ServiceTTS
		if kind == model.KindRecognition {
			service = ServiceASR
		}
		s.SetServing(service, ready)
	})
}

// SetServing updates the status of service.
func (s *Server) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, status)
	slog.Debug("gRPC health status", "service", service, "status", status.String())
}

// ListenAndServe blocks until ctx is cancelled, then stops gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.Serve(ctx, lis)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		slog.Info("gRPC health server shutting down")
		s.health.Shutdown()
		s.server.GracefulStop()
	}()

	return s.server.Serve(lis)
}
