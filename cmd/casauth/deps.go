// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"net"

	"github.com/holomush/casauth/internal/auth"
	casgrpc "github.com/holomush/casauth/internal/grpc"
	"github.com/holomush/casauth/internal/observability"
	"github.com/holomush/casauth/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// PoolFactory opens the account database.
	// Default: store.NewPool
	PoolFactory func(ctx context.Context, cfg store.PoolConfig) (Pool, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// RemoteFactory creates a client for a running casauth server.
	// Default: casgrpc.NewClient
	RemoteFactory func(cfg casgrpc.ClientConfig) (RemoteResolver, error)

	// ObservabilityServerFactory creates the metrics and health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// ListenerFactory binds the gRPC listener.
	// Default: net.Listen
	ListenerFactory func(network, address string) (net.Listener, error)

	// Hasher produces and verifies digests.
	// Default: auth.NewArgon2idHasher()
	Hasher auth.PasswordHasher
}

// Pool is the part of *pgxpool.Pool the commands use.
type Pool interface {
	store.Querier
	Ping(ctx context.Context) error
	Close()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	PendingMigrations() ([]uint, error)
	AppliedMigrations() ([]uint, error)
	Close() error
}

// RemoteResolver wraps the methods used from casgrpc.Client.
type RemoteResolver interface {
	auth.CredentialResolver
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.PoolFactory == nil {
		out.PoolFactory = func(ctx context.Context, cfg store.PoolConfig) (Pool, error) {
			return store.NewPool(ctx, cfg)
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	if out.RemoteFactory == nil {
		out.RemoteFactory = func(cfg casgrpc.ClientConfig) (RemoteResolver, error) {
			return casgrpc.NewClient(cfg)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if out.ListenerFactory == nil {
		out.ListenerFactory = net.Listen
	}
	if out.Hasher == nil {
		out.Hasher = auth.NewArgon2idHasher()
	}
	return &out
}
