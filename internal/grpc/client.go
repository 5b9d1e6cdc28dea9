// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package grpc

import (
	"context"
	"time"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/holomush/casauth/internal/auth"
)

// Client resolves credentials against a remote casauth server.
type Client struct {
	conn *grpc.ClientConn
}

// ClientConfig holds configuration for the gRPC client.
type ClientConfig struct {
	// Address is the target server, e.g. "127.0.0.1:9400".
	Address string

	// KeepaliveTime is how often to ping the server (default: 10s).
	KeepaliveTime time.Duration

	// KeepaliveTimeout is how long to wait for a ping response (default: 5s).
	KeepaliveTimeout time.Duration

	// DialOptions are appended after the defaults.
	DialOptions []grpc.DialOption
}

// NewClient creates a client. The connection is established lazily on the
// first call.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Address == "" {
		return nil, oops.Code("GRPC_INVALID_CONFIG").Errorf("address is required")
	}
	if cfg.KeepaliveTime == 0 {
		cfg.KeepaliveTime = 10 * time.Second
	}
	if cfg.KeepaliveTimeout == 0 {
		cfg.KeepaliveTimeout = 5 * time.Second
	}

	opts := []grpc.DialOption{
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveTime,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	opts = append(opts, cfg.DialOptions...)

	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, oops.Code("GRPC_DIAL_FAILED").With("address", cfg.Address).Wrap(err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return oops.Code("GRPC_CLOSE_FAILED").Wrap(err)
		}
	}
	return nil
}

// Resolve sends cred to the server. It follows the same contract as
// auth.Resolver: on Success cred.Username becomes the canonical id, and any
// RPC failure is reported as an operation-prevented error.
func (c *Client) Resolve(ctx context.Context, cred *auth.Credential) (auth.Outcome, error) {
	if cred == nil {
		return auth.OutcomeUnknown, oops.Code("AUTH_INVALID_CREDENTIAL").Errorf("credential is required")
	}

	req, err := structpb.NewStruct(map[string]any{
		FieldUsername: cred.Username,
		FieldPassword: cred.Secret,
	})
	if err != nil {
		return auth.OutcomeUnknown, auth.OperationPrevented("encode request", cred.Username, err)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, ResolveMethod, req, resp); err != nil {
		return auth.OutcomeUnknown, oops.With("grpc_code", status.Code(err).String()).
			Wrap(auth.OperationPrevented("resolve rpc", cred.Username, err))
	}

	fields := resp.GetFields()
	outcome, err := auth.ParseOutcome(fields[FieldOutcome].GetStringValue())
	if err != nil {
		return auth.OutcomeUnknown, auth.OperationPrevented("decode response", cred.Username, err)
	}
	if outcome == auth.Success {
		principal := fields[FieldPrincipal].GetStringValue()
		if principal == "" {
			return auth.OutcomeUnknown, auth.OperationPrevented("decode response", cred.Username,
				oops.Errorf("success response without principal"))
		}
		cred.Username = principal
	}
	return outcome, nil
}

var _ auth.CredentialResolver = (*Client)(nil)
