// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/casauth/internal/auth"
)

// NewDigestCmd creates the digest subcommand.
func NewDigestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print an argon2id digest for a password",
		Long: `Read a password and print the argon2id digest casauth would store for it.
No database access is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			secret, err := newSecretPrompt(cmd).ReadConfirmed("Password")
			if err != nil {
				return err
			}
			digest, err := a.deps.Hasher.Hash(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
}

// withAccountService loads config, opens the database and runs fn.
func withAccountService(opts *rootOptions, cmd *cobra.Command, fn func(ctx context.Context, svc *auth.AccountService) error) error {
	a, err := opts.load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	pool, err := a.openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	svc, err := a.accountService(pool)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

// NewResetPasswordCmd creates the reset-password subcommand.
func NewResetPasswordCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <account-id>",
		Short: "Set a new password for an account",
		Long: `Read a new password twice, store its digest for the account and clear the
account's password-reset flag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(opts, cmd, func(ctx context.Context, svc *auth.AccountService) error {
				secret, err := newSecretPrompt(cmd).ReadConfirmed("New password")
				if err != nil {
					return err
				}
				auditID, err := svc.ResetPassword(ctx, args[0], secret)
				if err != nil {
					return err
				}
				cmd.Printf("Password reset for %s (audit id %s)\n", args[0], auditID)
				return nil
			})
		},
	}
}

// NewConfirmEmailCmd creates the confirm-email subcommand.
func NewConfirmEmailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-email <email> <token>",
		Short: "Verify an email address with its verification token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(opts, cmd, func(ctx context.Context, svc *auth.AccountService) error {
				if err := svc.ConfirmEmail(ctx, args[0], args[1]); err != nil {
					return err
				}
				cmd.Printf("Email %s confirmed\n", args[0])
				return nil
			})
		},
	}
}

// NewAccountCmd creates the account subcommand.
func NewAccountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account <account-id>",
		Short: "Show an account's email address and reset flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(opts, cmd, func(ctx context.Context, svc *auth.AccountService) error {
				email, err := svc.EmailForAccount(ctx, args[0])
				if err != nil {
					return err
				}
				resetRequired, err := svc.PasswordResetRequired(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Account: %s\n", args[0])
				fmt.Fprintf(out, "Email: %s\n", email)
				fmt.Fprintf(out, "Password reset required: %t\n", resetRequired)
				return nil
			})
		},
	}
}
