// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/auth/postgres"
	"github.com/holomush/casauth/internal/config"
	"github.com/holomush/casauth/internal/logging"
	"github.com/holomush/casauth/internal/store"
)

const serviceName = "casauth"

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configFile string
	deps       *Deps
}

// NewRootCmd creates the root command for the casauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	opts := &rootOptions{deps: deps.withDefaults()}
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "casauth",
		Short: "casauth - credential resolver for the account database",
		Long: `casauth decides whether a submitted username and password identify an
active, verified account. It serves that decision over gRPC and offers
maintenance commands for the account database.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/casauth/config.yaml)")
	flags.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	flags.Int32("db-min-conns", defaults.Database.Pool.MinConns, "minimum pooled connections")
	flags.Int32("db-max-conns", defaults.Database.Pool.MaxConns, "maximum pooled connections")
	flags.String("log-format", defaults.Log.Format, "log format (json or text)")
	flags.String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	flags.String("registration-url", defaults.Registration.BaseURL, "account registration site shown to rejected users")

	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewCheckCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewDigestCmd(opts))
	cmd.AddCommand(NewResetPasswordCmd(opts))
	cmd.AddCommand(NewConfirmEmailCmd(opts))
	cmd.AddCommand(NewAccountCmd(opts))
	cmd.AddCommand(NewConfigCmd(opts))

	return cmd
}

// app is the loaded configuration plus the logger built from it.
type app struct {
	cfg    *config.Config
	source config.Source
	logger *slog.Logger
	deps   *Deps
}

// load reads configuration for cmd and installs the configured logger as
// the slog default.
func (o *rootOptions) load(cmd *cobra.Command) (*app, error) {
	cfg, src, err := config.Load(o.configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := logging.Setup(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   level,
	}, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	if src.File != "" {
		logger.Debug("loaded config file", "file", src.File)
	}
	return &app{cfg: cfg, source: src, logger: logger, deps: o.deps}, nil
}

// openPool connects to the configured database.
func (a *app) openPool(ctx context.Context) (Pool, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := a.deps.PoolFactory(ctx, store.PoolConfig{
		URL:      a.cfg.Database.URL,
		MinConns: a.cfg.Database.Pool.MinConns,
		MaxConns: a.cfg.Database.Pool.MaxConns,
	})
	if err != nil {
		return nil, oops.With("operation", "connect to database").Wrap(err)
	}
	return pool, nil
}

func (a *app) retrier() *store.Retrier {
	return store.NewRetrier(store.RetryConfig{
		MaxAttempts: a.cfg.Database.Retry.MaxAttempts,
		BaseDelay:   a.cfg.Database.Retry.BaseDelay,
	})
}

// resolver builds the local resolution engine over pool. Legacy digests
// are rehashed on successful logins.
func (a *app) resolver(pool Pool) (*auth.Resolver, error) {
	accounts, err := a.accountService(pool)
	if err != nil {
		return nil, err
	}
	directory := postgres.NewDirectory(pool, a.retrier())
	return auth.NewResolverWithLogger(directory, a.deps.Hasher, a.logger, auth.WithDigestUpgrader(accounts))
}

// accountService builds the maintenance service over pool.
func (a *app) accountService(pool Pool) (*auth.AccountService, error) {
	accounts := postgres.NewAccountStore(pool, a.retrier())
	return auth.NewAccountServiceWithLogger(accounts, a.deps.Hasher, a.logger)
}
