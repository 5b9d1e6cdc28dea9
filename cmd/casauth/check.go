// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/holomush/casauth/internal/auth"
	casgrpc "github.com/holomush/casauth/internal/grpc"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd(opts *rootOptions) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "check <username>",
		Short: "Check a username and password",
		Long: `Check whether a username (account id or email address) and a password
read from the terminal identify an active, verified account. The check runs
against the database unless --server names a running casauth server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd, a, args[0], server)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "gRPC address of a running casauth server")

	return cmd
}

func runCheck(ctx context.Context, cmd *cobra.Command, a *app, username, server string) error {
	secret, err := newSecretPrompt(cmd).Read("Password")
	if err != nil {
		return err
	}

	var resolver auth.CredentialResolver
	if server != "" {
		remote, err := a.deps.RemoteFactory(casgrpc.ClientConfig{Address: server})
		if err != nil {
			return err
		}
		defer func() { _ = remote.Close() }()
		resolver = remote
	} else {
		pool, err := a.openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		local, err := a.resolver(pool)
		if err != nil {
			return err
		}
		resolver = local
	}

	handler, err := auth.NewHandler(resolver, nil)
	if err != nil {
		return err
	}

	principal, err := handler.Authenticate(ctx, &auth.Credential{Username: username, Secret: secret})
	switch {
	case err == nil:
		cmd.Printf("%s: authenticated as %s\n", auth.Success, principal.ID)
		return nil
	case errors.Is(err, auth.ErrEmailAddressIncorrect):
		cmd.Printf("%s\n", auth.IncorrectEmailAddress)
		cmd.Printf("No account matches %q. Register at %s\n", username, a.cfg.Registration.BaseURL)
	case errors.Is(err, auth.ErrEmailNotVerified):
		cmd.Printf("%s\n", auth.EmailNotVerified)
		cmd.Printf("The account is inactive or unverified. Finish registration at %s\n", a.cfg.Registration.BaseURL)
	case errors.Is(err, auth.ErrPasswordIncorrect):
		cmd.Printf("%s\n", auth.IncorrectPassword)
	}
	return err
}
