// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/casauth/pkg/errutil"
)

const tracerName = "github.com/holomush/casauth/internal/auth"

// AccountDirectory is the read side of the account store used during
// resolution. Absence is reported as ErrNotFound (or an empty value); any
// other error is treated as an infrastructure fault.
type AccountDirectory interface {
	// ResolveIDByEmail returns the canonical account id for an email
	// address (case-insensitive).
	ResolveIDByEmail(ctx context.Context, email string) (string, error)

	// IsActiveAndVerified reports whether the account is active and its
	// primary email is verified.
	IsActiveAndVerified(ctx context.Context, accountID string) (bool, error)

	// StoredDigest returns the stored secret digest for the account.
	StoredDigest(ctx context.Context, accountID string) (string, error)
}

// SecretVerifier compares a plaintext secret with a stored digest.
// Returns (false, nil) on mismatch and an error only for malformed digests
// or internal failures.
type SecretVerifier interface {
	Verify(plaintext, digest string) (bool, error)
}

// DigestUpgrader replaces a legacy digest once the secret it protects has
// been verified. It reports whether a new digest was stored.
type DigestUpgrader interface {
	UpgradeDigest(ctx context.Context, accountID, secret, digest string) (bool, error)
}

// CredentialResolver turns a credential into an Outcome.
type CredentialResolver interface {
	Resolve(ctx context.Context, cred *Credential) (Outcome, error)
}

// Resolver is the credential resolution engine. It holds no per-call state
// and is safe for concurrent use when its collaborators are.
type Resolver struct {
	directory AccountDirectory
	verifier  SecretVerifier
	upgrader  DigestUpgrader
	logger    *slog.Logger
	tracer    trace.Tracer
}

// ResolverOption configures optional Resolver behavior.
type ResolverOption func(*Resolver)

// WithDigestUpgrader rehashes legacy digests after a successful resolution.
// Upgrade failures are logged and never change the outcome.
func WithDigestUpgrader(upgrader DigestUpgrader) ResolverOption {
	return func(r *Resolver) {
		r.upgrader = upgrader
	}
}

// NewResolver creates a Resolver that logs to slog.Default().
func NewResolver(directory AccountDirectory, verifier SecretVerifier, opts ...ResolverOption) (*Resolver, error) {
	return NewResolverWithLogger(directory, verifier, slog.Default(), opts...)
}

// NewResolverWithLogger creates a Resolver with an explicit logger.
func NewResolverWithLogger(directory AccountDirectory, verifier SecretVerifier, logger *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	if directory == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("account directory is required")
	}
	if verifier == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("secret verifier is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("logger is required")
	}
	r := &Resolver{
		directory: directory,
		verifier:  verifier,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve checks cred and reports the outcome.
//
// Checks run in a fixed order: the identifier must resolve, then the
// account must be active and verified, then the secret must match. The
// first failing check decides the outcome.
//
// Negative results are returned as Outcome values with a nil error. A
// collaborator fault yields OutcomeUnknown and an error wrapping
// ErrOperationPrevented.
//
// On Success cred.Username holds the canonical account id. On every other
// result it is restored to the value the caller submitted.
func (r *Resolver) Resolve(ctx context.Context, cred *Credential) (outcome Outcome, err error) {
	if cred == nil {
		return OutcomeUnknown, oops.Code("AUTH_INVALID_CREDENTIAL").Errorf("credential is required")
	}

	ctx, span := r.tracer.Start(ctx, "auth.Resolve")
	defer span.End()

	original := cred.Username
	defer func() {
		if err != nil || outcome != Success {
			cred.Username = original
		}
		span.SetAttributes(attribute.String("auth.outcome", outcome.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "authentication prevented")
			errutil.LogErrorContext(ctx, r.logger, "authentication prevented", err)
		}
	}()

	return r.resolve(ctx, cred)
}

func (r *Resolver) resolve(ctx context.Context, cred *Credential) (Outcome, error) {
	username := cred.Username
	if isBlank(username) {
		r.logger.WarnContext(ctx, "credential has no username")
		return IncorrectEmailAddress, nil
	}

	accountID := username
	emailForm := IsEmailForm(username)
	if emailForm {
		id, err := r.directory.ResolveIDByEmail(ctx, username)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return OutcomeUnknown, OperationPrevented("resolve id by email", username, err)
		}
		if err != nil || isBlank(id) {
			r.logger.InfoContext(ctx, "no account for email address", "email", username)
			return IncorrectEmailAddress, nil
		}
		accountID = id
		cred.Username = id
	}

	ok, err := r.directory.IsActiveAndVerified(ctx, accountID)
	if err != nil {
		return OutcomeUnknown, OperationPrevented("check account status", accountID, err)
	}
	if !ok {
		r.logger.InfoContext(ctx, "account not active or not verified", "account_id", accountID)
		if emailForm {
			return EmailNotVerified, nil
		}
		return IncorrectEmailAddress, nil
	}

	digest, err := r.directory.StoredDigest(ctx, accountID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return OutcomeUnknown, OperationPrevented("get stored digest", accountID, err)
	}
	if err != nil || isBlank(digest) {
		r.logger.WarnContext(ctx, "no stored digest for account", "account_id", accountID)
		return IncorrectPassword, nil
	}

	match, err := r.verifier.Verify(cred.Secret, digest)
	if err != nil {
		return OutcomeUnknown, OperationPrevented("verify secret", accountID, err)
	}
	if !match {
		r.logger.InfoContext(ctx, "secret does not match stored digest", "account_id", accountID)
		return IncorrectPassword, nil
	}

	if r.upgrader != nil {
		r.upgradeDigest(ctx, accountID, cred.Secret, digest)
	}

	r.logger.DebugContext(ctx, "credential resolved", "account_id", accountID)
	return Success, nil
}

func (r *Resolver) upgradeDigest(ctx context.Context, accountID, secret, digest string) {
	upgraded, err := r.upgrader.UpgradeDigest(ctx, accountID, secret, digest)
	if err != nil {
		r.logger.WarnContext(ctx, "digest upgrade failed", "account_id", accountID, "error", err)
		return
	}
	if upgraded {
		r.logger.InfoContext(ctx, "upgraded legacy digest", "account_id", accountID)
	}
}

var _ CredentialResolver = (*Resolver)(nil)
