// Package grpc hosts the gRPC health endpoint of background processes and the
// probe used by container health checks.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// defaultProbeTimeout bounds one probe when the caller sets no deadline.
const defaultProbeTimeout = 3 * time.Second

// HealthServer serves grpc.health.v1 for a process that has no other gRPC
// surface.
type HealthServer struct {
	server   *gogrpc.Server
	health   *health.Server
	listener net.Listener
}

// ListenHealth binds addr and registers every service as SERVING. The empty
// service name covers the whole process.
func ListenHealth(addr string, services ...string) (*HealthServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on health address %s: %w", addr, err)
	}
	server := gogrpc.NewServer(gogrpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
	return &HealthServer{server: server, health: healthServer, listener: listener}, nil
}

// Addr returns the bound listener address.
func (s *HealthServer) Addr() net.Addr {
	return s.listener.Addr()
}

// SetNotServing flips service to NOT_SERVING, for example while a dependency
// is unavailable.
func (s *HealthServer) SetNotServing(service string) {
	s.health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
}

// SetServing flips service back to SERVING.
func (s *HealthServer) SetServing(service string) {
	s.health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}

// Serve blocks until Stop is called.
func (s *HealthServer) Serve() error {
	err := s.server.Serve(s.listener)
	if errors.Is(err, gogrpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop marks every service NOT_SERVING and drains in-flight checks.
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

// Probe performs one health check against addr and fails unless service is
// SERVING.
func Probe(ctx context.Context, addr string, service string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultProbeTimeout)
		defer cancel()
	}
	conn, err := gogrpc.NewClient(addr,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return fmt.Errorf("dial health %s: %w", addr, err)
	}
	defer conn.Close()

	response, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("check health %s: %w", addr, err)
	}
	if status := response.GetStatus(); status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("health %s status %s", addr, status.String())
	}
	return nil
}
