// Package grpc serves the standard grpc.health.v1 service so orchestrators
// can probe the server. The reported status follows database reachability.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name probes can ask about besides the empty
// whole-server name.
const ServiceName = "jigsawhub"

const defaultProbeInterval = 10 * time.Second

// Pinger reports database reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthServer struct {
	address       string
	db            Pinger
	health        *health.Server
	probeInterval time.Duration
	logger        logging.Logger
}

func NewHealthServer(a string, db Pinger, l logging.Logger) *HealthServer {
	return &HealthServer{
		address:       a,
		db:            db,
		health:        health.NewServer(),
		probeInterval: defaultProbeInterval,
		logger:        l.With("module", "grpc_server"),
	}
}

func (s *HealthServer) Run(ctx context.Context) error {

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	go s.probeLoop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
