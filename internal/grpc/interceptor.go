// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

// RequestRecorder receives one observation per unary RPC.
type RequestRecorder interface {
	RecordRequest(method, code string, elapsed time.Duration)
}

// UnaryServerInterceptor tags every request with an id, echoes it in the
// response header, and logs and records the result. recorder may be nil.
func UnaryServerInterceptor(logger *slog.Logger, recorder RequestRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		requestID := requestIDFromContext(ctx)
		// Fails only outside a server transport, e.g. when called directly.
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		resp, err := handler(ctx, req)

		elapsed := time.Since(start)
		code := status.Code(err)
		if recorder != nil {
			recorder.RecordRequest(info.FullMethod, code.String(), elapsed)
		}

		attrs := []any{
			"method", info.FullMethod,
			"request_id", requestID,
			"code", code.String(),
			"duration", elapsed,
		}
		if code == codes.OK {
			logger.DebugContext(ctx, "rpc handled", attrs...)
		} else {
			logger.WarnContext(ctx, "rpc failed", attrs...)
		}
		return resp, err
	}
}

func requestIDFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return ulid.Make().String()
}
