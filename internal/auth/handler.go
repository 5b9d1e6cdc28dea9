// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"

	"github.com/samber/oops"
)

// OutcomeRecorder receives one observation per resolution attempt.
type OutcomeRecorder interface {
	RecordOutcome(outcome string)
}

// OutcomeOperationPrevented is the label recorded for collaborator faults.
const OutcomeOperationPrevented = "operation_prevented"

// Principal identifies an authenticated account.
type Principal struct {
	ID string
}

// Handler is the boundary between the resolver and callers that expect
// error-style signalling. It also counts outcomes.
type Handler struct {
	resolver CredentialResolver
	recorder OutcomeRecorder
}

// NewHandler creates a Handler. recorder may be nil.
func NewHandler(resolver CredentialResolver, recorder OutcomeRecorder) (*Handler, error) {
	if resolver == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("credential resolver is required")
	}
	return &Handler{resolver: resolver, recorder: recorder}, nil
}

// Resolve delegates to the wrapped resolver and records the result.
func (h *Handler) Resolve(ctx context.Context, cred *Credential) (Outcome, error) {
	outcome, err := h.resolver.Resolve(ctx, cred)
	if h.recorder != nil {
		if err != nil {
			h.recorder.RecordOutcome(OutcomeOperationPrevented)
		} else {
			h.recorder.RecordOutcome(outcome.String())
		}
	}
	return outcome, err
}

// Authenticate resolves cred and returns the principal on success.
// Negative outcomes come back as coded errors wrapping
// ErrEmailAddressIncorrect, ErrEmailNotVerified or ErrPasswordIncorrect;
// faults come back unchanged (IsOperationPrevented reports true).
func (h *Handler) Authenticate(ctx context.Context, cred *Credential) (*Principal, error) {
	outcome, err := h.Resolve(ctx, cred)
	if err != nil {
		return nil, err
	}
	if outcome != Success {
		return nil, outcome.Err()
	}
	return &Principal{ID: cred.Username}, nil
}

var _ CredentialResolver = (*Handler)(nil)
