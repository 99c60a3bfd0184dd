package health

import (
	"context"
	"net"

	"epic-tech-ai/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes the checker through the standard gRPC health protocol
// so orchestrators can probe the service without HTTP.
type GRPCServer struct {
	server *grpc.Server
	health *grpchealth.Server
	log    *logger.Logger
}

// NewGRPCServer creates a gRPC health server that follows checker's verdict
func NewGRPCServer(checker *Checker, serviceName string, log *logger.Logger) *GRPCServer {
	if log == nil {
		log = logger.GetGlobal()
	}

	hs := grpchealth.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	g := &GRPCServer{server: srv, health: hs, log: log}

	setStatus := func(healthy bool) {
		status := healthpb.HealthCheckResponse_SERVING
		if !healthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(serviceName, status)
	}
	setStatus(checker.IsSystemHealthy())
	checker.OnChange(setStatus)

	return g
}

// Serve accepts connections on lis until Stop is called
func (g *GRPCServer) Serve(lis net.Listener) error {
	g.log.Info("gRPC health server listening", "addr", lis.Addr().String())
	return g.server.Serve(lis)
}

// ListenAndServe listens on addr and serves in the background
func (g *GRPCServer) ListenAndServe(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := g.Serve(lis); err != nil {
			g.log.LogError(err, "gRPC health server stopped")
		}
	}()
	return nil
}

// Stop marks every service as not serving and stops the server, waiting for
// in-flight probes until ctx is done.
func (g *GRPCServer) Stop(ctx context.Context) {
	g.health.Shutdown()

	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		g.server.Stop()
	}
}
