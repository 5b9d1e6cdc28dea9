// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/config"
	casgrpc "github.com/holomush/casauth/internal/grpc"
	"github.com/holomush/casauth/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve credential resolution over gRPC",
		Long: `Serve casauth.v1.Resolver/Resolve over gRPC, plus Prometheus metrics
and health probes on the metrics address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, a)
		},
	}

	cmd.Flags().String("grpc-addr", defaults.Server.GRPCAddr, "gRPC listen address")
	cmd.Flags().String("metrics-addr", defaults.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// runServe runs until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, a *app) error {
	logger := a.logger

	pool, err := a.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	resolver, err := a.resolver(pool)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		obsServer ObservabilityServer
		recorder  auth.OutcomeRecorder
		grpcOpts  = []casgrpc.ServerOption{casgrpc.WithLogger(logger)}
	)
	if addr := a.cfg.Server.MetricsAddr; addr != "" {
		obsServer = a.deps.ObservabilityServerFactory(addr, observability.ReadinessChecker(pool.Ping))
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(startErr)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
				logger.Warn("error stopping observability server", "error", stopErr)
			}
		}()
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

		metrics := obsServer.Metrics()
		recorder = metrics
		grpcOpts = append(grpcOpts, casgrpc.WithRequestRecorder(metrics))
	}

	handler, err := auth.NewHandler(resolver, recorder)
	if err != nil {
		return err
	}
	resolverServer, err := casgrpc.NewResolverServer(handler, logger)
	if err != nil {
		return err
	}
	grpcServer, healthServer := casgrpc.NewGRPCServer(resolverServer, grpcOpts...)

	listener, err := a.deps.ListenerFactory("tcp", a.cfg.Server.GRPCAddr)
	if err != nil {
		return oops.Code("SERVE_FAILED").With("addr", a.cfg.Server.GRPCAddr).Wrap(err)
	}

	serveErrCh := make(chan error, 1)
	go func() {
		defer close(serveErrCh)
		if serveErr := grpcServer.Serve(listener); serveErr != nil {
			serveErrCh <- serveErr
		}
	}()

	logger.Info("casauth ready",
		"grpc_addr", listener.Addr().String(),
		"metrics_addr", a.cfg.Server.MetricsAddr,
		"registration_url", a.cfg.Registration.BaseURL,
	)
	cmd.Printf("Serving on %s\n", listener.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr := <-serveErrCh:
		runErr = oops.Code("SERVE_FAILED").With("operation", "serve grpc").Wrap(serveErr)
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(casgrpc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	gracefulStop(grpcServer, shutdownTimeout)

	logger.Info("shutdown complete")
	return runErr
}

// stopper is the part of *grpc.Server used during shutdown.
type stopper interface {
	GracefulStop()
	Stop()
}

// gracefulStop drains in-flight RPCs, forcing a stop after timeout.
func gracefulStop(s stopper, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.GracefulStop()
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.Stop()
		<-done
	}
}

// monitorServerErrors cancels the process context when a server fails.
// It exits when either an error is received, the channel is closed, or the
// context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
