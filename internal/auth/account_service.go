// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccountStore is the write side of the account store.
type AccountStore interface {
	// EmailForAccount returns the primary email address of an account.
	// Returns ErrNotFound if the account does not exist.
	EmailForAccount(ctx context.Context, accountID string) (string, error)

	// ConsumeVerificationToken clears a pending verification token for the
	// given email and marks the email verified. Both values compare
	// case-insensitively. Returns false if no such token is pending.
	ConsumeVerificationToken(ctx context.Context, email, token string) (bool, error)

	// PasswordResetRequired reports whether the account must choose a new
	// password.
	PasswordResetRequired(ctx context.Context, accountID string) (bool, error)

	// UpdateDigest stores a new digest and clears the reset flag.
	// Returns ErrNotFound if the account does not exist.
	UpdateDigest(ctx context.Context, accountID, digest string) error

	// ReplaceDigest swaps oldDigest for newDigest, leaving the reset flag
	// alone. Returns false when the stored digest is no longer oldDigest.
	ReplaceDigest(ctx context.Context, accountID, oldDigest, newDigest string) (bool, error)
}

// AccountService handles account maintenance around the login flow:
// email confirmation and password resets.
type AccountService struct {
	store  AccountStore
	hasher PasswordHasher
	logger *slog.Logger
}

// NewAccountService creates an AccountService that logs to slog.Default().
func NewAccountService(store AccountStore, hasher PasswordHasher) (*AccountService, error) {
	return NewAccountServiceWithLogger(store, hasher, slog.Default())
}

// NewAccountServiceWithLogger creates an AccountService with an explicit logger.
func NewAccountServiceWithLogger(store AccountStore, hasher PasswordHasher, logger *slog.Logger) (*AccountService, error) {
	if store == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger is required")
	}
	return &AccountService{store: store, hasher: hasher, logger: logger}, nil
}

// EmailForAccount returns the address to show a user in place of their
// canonical account id.
func (s *AccountService) EmailForAccount(ctx context.Context, accountID string) (string, error) {
	email, err := s.store.EmailForAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account_id", accountID).
				Wrap(err)
		}
		return "", oops.Code("AUTH_EMAIL_LOOKUP_FAILED").
			With("operation", "EmailForAccount").
			With("account_id", accountID).
			Wrap(err)
	}
	return email, nil
}

// ConfirmEmail consumes an email verification token.
func (s *AccountService) ConfirmEmail(ctx context.Context, email, token string) error {
	if isBlank(email) {
		return oops.Code("AUTH_EMAIL_EMPTY").Errorf("email address cannot be empty")
	}
	if isBlank(token) {
		return oops.Code("AUTH_TOKEN_EMPTY").Errorf("verification token cannot be empty")
	}

	ok, err := s.store.ConsumeVerificationToken(ctx, email, token)
	if err != nil {
		return oops.Code("AUTH_CONFIRM_EMAIL_FAILED").
			With("operation", "ConsumeVerificationToken").
			With("email", email).
			Wrap(err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "verification token rejected", "email", email)
		return oops.Code("AUTH_TOKEN_INVALID").
			With("email", email).
			Errorf("verification token not found")
	}

	s.logger.InfoContext(ctx, "email confirmed", "email", email)
	return nil
}

// PasswordResetRequired reports whether the account is flagged to change
// its password.
func (s *AccountService) PasswordResetRequired(ctx context.Context, accountID string) (bool, error) {
	required, err := s.store.PasswordResetRequired(ctx, accountID)
	if err != nil {
		return false, oops.Code("AUTH_RESET_FLAG_FAILED").
			With("operation", "PasswordResetRequired").
			With("account_id", accountID).
			Wrap(err)
	}
	return required, nil
}

// ResetPassword hashes newPassword and stores it as the account's digest.
// The returned id tags the audit log entry for the reset.
func (s *AccountService) ResetPassword(ctx context.Context, accountID, newPassword string) (ulid.ULID, error) {
	if newPassword == "" {
		return ulid.ULID{}, emptyPassword()
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return ulid.ULID{}, oops.Code("AUTH_RESET_PASSWORD_FAILED").
			With("operation", "Hash").
			Wrap(err)
	}

	if err := s.store.UpdateDigest(ctx, accountID, digest); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ulid.ULID{}, oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account_id", accountID).
				Wrap(err)
		}
		return ulid.ULID{}, oops.Code("AUTH_RESET_PASSWORD_FAILED").
			With("operation", "UpdateDigest").
			With("account_id", accountID).
			Wrap(err)
	}

	auditID := ulid.Make()
	s.logger.InfoContext(ctx, "password reset", "account_id", accountID, "audit_id", auditID.String())
	return auditID, nil
}

// UpgradeDigest rehashes secret when digest uses a legacy algorithm. The
// swap only happens if digest is still the stored value, so a concurrent
// password reset wins.
func (s *AccountService) UpgradeDigest(ctx context.Context, accountID, secret, digest string) (bool, error) {
	if !s.hasher.NeedsUpgrade(digest) {
		return false, nil
	}

	fresh, err := s.hasher.Hash(secret)
	if err != nil {
		return false, oops.Code("AUTH_UPGRADE_DIGEST_FAILED").
			With("operation", "Hash").
			With("account_id", accountID).
			Wrap(err)
	}

	replaced, err := s.store.ReplaceDigest(ctx, accountID, digest, fresh)
	if err != nil {
		return false, oops.Code("AUTH_UPGRADE_DIGEST_FAILED").
			With("operation", "ReplaceDigest").
			With("account_id", accountID).
			Wrap(err)
	}
	return replaced, nil
}

var _ DigestUpgrader = (*AccountService)(nil)
