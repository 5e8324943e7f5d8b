package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/sportify-server/internal/api/grpc/context"
	"github.com/dtroode/sportify-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/sportify-server/internal/api/grpc/server"
	"github.com/dtroode/sportify-server/internal/app"
	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/logger"
	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/server"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", "error", err)
	}
	defer application.Close()

	r := router.New(application.Cached, application.Profiles, application.Tokens, grpcctx.NewManager(), logger)
	s := r.Register()
	reflection.Register(s)
	srv := grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port), r.Shutdown)

	sl := server.NewSecurityLayer(cfg.GRPC)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.Every(ctx, cfg.Sync.ReconcileInterval, "reconcile", logger, application.ReconcileJob)
	}()
	go func() {
		defer wg.Done()
		app.Every(ctx, cfg.Cache.TTL, "cache prune", logger, application.PruneJob(cfg.Cache.TTL, logger))
	}()

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
