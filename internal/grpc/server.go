package grpc

import (
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/weiawesome/jobboard-chat/pkg/log"
)

// ServiceName is the health service name reported for the chat server.
const ServiceName = "jobboard.chat.v1.Chat"

// Server wraps the gRPC server with its health reporter.
type Server struct {
	*grpc.Server
	health *health.Server
}

// NewServer builds a gRPC server exposing grpc.health.v1 with the logging
// interceptors installed.
func NewServer(logger zerolog.Logger) *Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(log.UnaryServerInterceptor(logger)),
		grpc.StreamInterceptor(log.StreamServerInterceptor(logger)),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{Server: s, health: hs}
}

// SetServing flips the overall and chat service status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Shutdown marks the server not serving and stops it gracefully.
func (s *Server) Shutdown() {
	s.health.Shutdown()
	s.Server.GracefulStop()
}

func (s *Server) Start(lis net.Listener) {
	go func() {
		l := log.L()
		l.Info().Str("address", lis.Addr().String()).Msg("chat grpc server listening")
		if err := s.Server.Serve(lis); err != nil {
			l.Error().Err(err).Msg("grpc server error")
		}
	}()
}

// StartGRPCServer listens on addr and serves in the background.
func StartGRPCServer(addr string, logger zerolog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := NewServer(logger)
	s.Start(lis)
	s.SetServing(true)
	return s, nil
}
