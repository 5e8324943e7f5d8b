package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/sportify-server/internal/api/grpc/handler"
	"github.com/dtroode/sportify-server/internal/api/grpc/middleware"
	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
)

// Router builds the gRPC server of sportify.Sportify with its middleware chain.
type Router struct {
	eventService   handler.EventService
	profileService handler.ProfileService
	tokenParser    middleware.TokenParser
	contextManager model.ContextManager
	logger         *logger.Logger
	health         *health.Server
}

// New creates new gRPC Router instance.
func New(
	eventService handler.EventService,
	profileService handler.ProfileService,
	tokenParser middleware.TokenParser,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		eventService:   eventService,
		profileService: profileService,
		tokenParser:    tokenParser,
		contextManager: contextManager,
		logger:         logger,
		health:         health.NewServer(),
	}
}

// authRequired excludes the health service from bearer authentication.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/")
}

// Register registers all gRPC services and middleware.
//
// Returns the configured gRPC server instance.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger.Component("grpc"))
	authenticate := middleware.NewAuthenticate(r.tokenParser, r.contextManager, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
		grpc.ChainStreamInterceptor(
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	sportifyHandler := handler.NewSportify(r.eventService, r.profileService, r.contextManager, r.logger)
	handler.RegisterSportifyServer(s, sportifyHandler)

	healthpb.RegisterHealthServer(s, r.health)
	r.health.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Shutdown marks every service as not serving so health probes fail while
// in-flight calls drain.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}
