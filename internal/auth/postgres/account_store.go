// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/store"
)

// AccountStore implements auth.AccountStore. Reads are retried on transient
// errors; writes run once.
type AccountStore struct {
	db      store.Querier
	retrier *store.Retrier
}

// NewAccountStore creates an AccountStore. A nil retrier runs each query once.
func NewAccountStore(db store.Querier, retrier *store.Retrier) *AccountStore {
	if retrier == nil {
		retrier = store.NoRetry()
	}
	return &AccountStore{db: db, retrier: retrier}
}

// EmailForAccount returns the email address linked to the account.
func (s *AccountStore) EmailForAccount(ctx context.Context, accountID string) (string, error) {
	var email string
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.db.QueryRow(ctx, `
			SELECT e.email_address
			FROM auth_accounts a JOIN emails e ON a.email_id = e.id
			WHERE LOWER(a.auth_id) = LOWER($1)
		`, accountID).Scan(&email)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "get email for account").
			With("account_id", accountID).
			Wrap(err)
	}
	return email, nil
}

// ConsumeVerificationToken clears a matching token and marks the email
// verified in one statement.
func (s *AccountStore) ConsumeVerificationToken(ctx context.Context, email, token string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		WITH consumed AS (
			UPDATE auth_accounts a
			SET verification_token = NULL, last_modified = now()
			FROM emails e
			WHERE a.email_id = e.id
			  AND LOWER(e.email_address) = LOWER($1)
			  AND LOWER(a.verification_token) = LOWER($2)
			RETURNING a.email_id
		)
		UPDATE emails SET verified = TRUE
		WHERE id IN (SELECT email_id FROM consumed)
	`, email, token)
	if err != nil {
		return false, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "consume verification token").
			With("email", email).
			Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

// PasswordResetRequired reads the account's reset flag.
func (s *AccountStore) PasswordResetRequired(ctx context.Context, accountID string) (bool, error) {
	var required bool
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		return s.db.QueryRow(ctx, `
			SELECT password_reset
			FROM auth_accounts
			WHERE LOWER(auth_id) = LOWER($1)
		`, accountID).Scan(&required)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return false, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "get password reset flag").
			With("account_id", accountID).
			Wrap(err)
	}
	return required, nil
}

// UpdateDigest replaces the password digest and clears the reset flag.
func (s *AccountStore) UpdateDigest(ctx context.Context, accountID, digest string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE auth_accounts
		SET password = $2, password_reset = FALSE, last_modified = now()
		WHERE LOWER(auth_id) = LOWER($1)
	`, accountID, digest)
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update digest").
			With("account_id", accountID).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ReplaceDigest swaps the digest only while it still equals oldDigest.
func (s *AccountStore) ReplaceDigest(ctx context.Context, accountID, oldDigest, newDigest string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE auth_accounts
		SET password = $3, last_modified = now()
		WHERE auth_id = $1 AND password = $2
	`, accountID, oldDigest, newDigest)
	if err != nil {
		return false, oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "replace digest").
			With("account_id", accountID).
			Wrap(err)
	}
	return tag.RowsAffected() > 0, nil
}

var _ auth.AccountStore = (*AccountStore)(nil)
