package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/grpcserver"
	"jobboard/scrape-service/internal/logging"
	"jobboard/scrape-service/internal/scheduler"
	"jobboard/scrape-service/internal/scraper"
	"jobboard/scrape-service/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scrape invocations over HTTP (and gRPC when GRPC_PORT is set)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing extraction credential is reported per invocation as a 500,
	// the service itself still starts.
	if err := cfg.ExtractionCredential(); err != nil {
		log.Warn("extraction credential missing, invocations will fail", zap.String("mode", cfg.Mode), zap.Error(err))
	}

	a, err := newApp(ctx, cfg, log, false)
	if err != nil {
		return err
	}
	defer a.close()

	errCh := make(chan error, 2)

	// ── HTTP server ─────────────────────────────────────────────────────────
	h := server.NewHandler(a.coord, a.jobs, log, version)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // one batch window
	}
	go func() {
		log.Info("http listening", zap.String("version", version), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "http server")
		}
	}()

	// ── gRPC server ─────────────────────────────────────────────────────────
	var gs *grpc.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return errors.Wrapf(err, "listen grpc :%s", cfg.GRPCPort)
		}
		gs = grpc.NewServer()
		grpcserver.Register(gs, grpcserver.NewServer(a.coord, log))
		go func() {
			log.Info("grpc listening", zap.String("port", cfg.GRPCPort))
			if err := gs.Serve(lis); err != nil {
				errCh <- errors.Wrap(err, "grpc server")
			}
		}()
	}

	// ── Cron ────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.ScrapeIntervalHours > 0 {
		sched = scheduler.New(scraper.NewRunner(a.coord, log.Named("runner")), cfg.ScrapeIntervalHours, log)
		if err := sched.Start(ctx); err != nil {
			return err
		}
	}

	// ── Graceful shutdown ───────────────────────────────────────────────────
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stop()

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if gs != nil {
		gs.GracefulStop()
	}
	if sched != nil {
		sched.Stop()
	}
	log.Info("stopped")
	return runErr
}
