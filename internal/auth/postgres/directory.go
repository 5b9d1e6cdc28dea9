// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres implements the auth account directory and account store
// on PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/store"
)

// Directory implements auth.AccountDirectory. Reads are retried on
// transient errors.
type Directory struct {
	db      store.Querier
	retrier *store.Retrier
}

// NewDirectory creates a Directory. A nil retrier runs each query once.
func NewDirectory(db store.Querier, retrier *store.Retrier) *Directory {
	if retrier == nil {
		retrier = store.NoRetry()
	}
	return &Directory{db: db, retrier: retrier}
}

// ResolveIDByEmail returns the account id for email (case-insensitive).
func (d *Directory) ResolveIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		return d.db.QueryRow(ctx, `
			SELECT a.auth_id
			FROM auth_accounts a JOIN emails e ON a.email_id = e.id
			WHERE LOWER(e.email_address) = LOWER($1)
			ORDER BY a.auth_id
			LIMIT 1
		`, email).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "resolve id by email").
			With("email", email).
			Wrap(err)
	}
	return id, nil
}

// IsActiveAndVerified reports whether the account is active and its email
// verified. An unknown account is simply not active. The id must match
// exactly: a raw id typed in another case is not active.
func (d *Directory) IsActiveAndVerified(ctx context.Context, accountID string) (bool, error) {
	var ok bool
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		return d.db.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM auth_accounts a JOIN emails e ON a.email_id = e.id
				WHERE a.auth_id = $1 AND a.is_active AND e.verified
			)
		`, accountID).Scan(&ok)
	})
	if err != nil {
		return false, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "check account status").
			With("account_id", accountID).
			Wrap(err)
	}
	return ok, nil
}

// StoredDigest returns the account's password digest. A missing account or
// a NULL password is ErrNotFound.
func (d *Directory) StoredDigest(ctx context.Context, accountID string) (string, error) {
	var digest string
	err := d.retrier.Do(ctx, func(ctx context.Context) error {
		return d.db.QueryRow(ctx, `
			SELECT COALESCE(password, '')
			FROM auth_accounts
			WHERE LOWER(auth_id) = LOWER($1)
		`, accountID).Scan(&digest)
	})
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && digest == "") {
		return "", oops.Code("DIGEST_NOT_FOUND").
			With("account_id", accountID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "get stored digest").
			With("account_id", accountID).
			Wrap(err)
	}
	return digest, nil
}

var _ auth.AccountDirectory = (*Directory)(nil)
