package server

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"

	"github.com/dtroode/sportify-server/internal/model"
)

// GRPCServer binds a gRPC server to an address and a listener factory.
type GRPCServer struct {
	server *grpc.Server
	addr   string
	// beforeStop runs before the server stops accepting calls.
	beforeStop func()
}

// NewGRPCServer creates a GRPCServer. beforeStop may be nil.
func NewGRPCServer(server *grpc.Server, addr string, beforeStop func()) *GRPCServer {
	return &GRPCServer{server: server, addr: addr, beforeStop: beforeStop}
}

// Start serves on the configured address until Stop is called.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop drains in-flight calls. When ctx expires first the remaining calls are
// cancelled and ctx.Err() is returned.
func (s *GRPCServer) Stop(ctx context.Context) error {
	if s.beforeStop != nil {
		s.beforeStop()
	}

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		<-done
		return ctx.Err()
	}
}

// Address returns the configured listen address.
func (s *GRPCServer) Address() string {
	return s.addr
}
