// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package grpc exposes the credential resolver over gRPC and provides a
// client that satisfies auth.CredentialResolver against a remote server.
package grpc

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/holomush/casauth/internal/auth"
)

// ResolverServer implements ResolverService on top of a CredentialResolver.
type ResolverServer struct {
	resolver auth.CredentialResolver
	logger   *slog.Logger
}

// NewResolverServer creates a ResolverServer.
func NewResolverServer(resolver auth.CredentialResolver, logger *slog.Logger) (*ResolverServer, error) {
	if resolver == nil {
		return nil, oops.Code("GRPC_INVALID_CONFIG").Errorf("credential resolver is required")
	}
	if logger == nil {
		return nil, oops.Code("GRPC_INVALID_CONFIG").Errorf("logger is required")
	}
	return &ResolverServer{resolver: resolver, logger: logger}, nil
}

// Resolve decodes a credential, resolves it and encodes the outcome.
//
// Negative outcomes are ordinary responses. A fault that prevented a
// decision maps to codes.Unavailable; a malformed request maps to
// codes.InvalidArgument.
func (s *ResolverServer) Resolve(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	username, err := stringField(req, FieldUsername)
	if err != nil {
		return nil, err
	}
	password, err := stringField(req, FieldPassword)
	if err != nil {
		return nil, err
	}

	cred := &auth.Credential{Username: username, Secret: password}
	outcome, err := s.resolver.Resolve(ctx, cred)
	if err != nil {
		if auth.IsOperationPrevented(err) {
			return nil, status.Error(codes.Unavailable, "authentication could not be completed")
		}
		s.logger.ErrorContext(ctx, "resolve failed", "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	fields := map[string]any{
		FieldOutcome:  outcome.String(),
		FieldUsername: cred.Username,
	}
	if outcome == auth.Success {
		fields[FieldPrincipal] = cred.Username
	}
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return resp, nil
}

func stringField(req *structpb.Struct, key string) (string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
	return sv.StringValue, nil
}

var _ ResolverService = (*ResolverServer)(nil)

// ServerOption configures NewGRPCServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger   *slog.Logger
	recorder RequestRecorder
	grpcOpts []grpc.ServerOption
}

// WithLogger sets the logger used by the request interceptor.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// WithRequestRecorder counts requests through recorder.
func WithRequestRecorder(recorder RequestRecorder) ServerOption {
	return func(o *serverOptions) {
		o.recorder = recorder
	}
}

// WithGRPCOptions appends raw grpc.ServerOptions.
func WithGRPCOptions(opts ...grpc.ServerOption) ServerOption {
	return func(o *serverOptions) {
		o.grpcOpts = append(o.grpcOpts, opts...)
	}
}

// NewGRPCServer creates a gRPC server with the resolver and health services
// registered. Both report SERVING; callers flip the health server to
// NOT_SERVING before shutdown.
func NewGRPCServer(srv ResolverService, opts ...ServerOption) (*grpc.Server, *health.Server) {
	o := serverOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	grpcOpts := append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor(o.logger, o.recorder)),
	}, o.grpcOpts...)
	server := grpc.NewServer(grpcOpts...)

	RegisterResolverService(server, srv)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return server, healthServer
}
