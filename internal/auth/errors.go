// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrOperationPrevented is wrapped by every error that means no
// authentication decision could be reached (store unreachable, malformed
// stored data, verifier failure). It never stands for a bad credential.
var ErrOperationPrevented = errors.New("operation prevented")

// Sentinels wrapped by the coded errors Handler returns for negative outcomes.
var (
	ErrEmailAddressIncorrect = errors.New("email address incorrect")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrPasswordIncorrect     = errors.New("password incorrect")
)

// Error codes attached with oops.Code.
const (
	CodeOperationPrevented = "AUTH_OPERATION_PREVENTED"
	CodeEmailIncorrect     = "AUTH_EMAIL_INCORRECT"
	CodeEmailNotVerified   = "AUTH_EMAIL_NOT_VERIFIED"
	CodePasswordIncorrect  = "AUTH_PASSWORD_INCORRECT"
)

// IsOperationPrevented reports whether err means the system could not
// determine an answer, as opposed to a negative authentication result.
func IsOperationPrevented(err error) bool {
	return errors.Is(err, ErrOperationPrevented)
}

// OperationPrevented wraps a collaborator fault so that both the cause and
// ErrOperationPrevented match with errors.Is.
func OperationPrevented(operation, username string, cause error) error {
	return oops.Code(CodeOperationPrevented).
		With("operation", operation).
		With("username", username).
		Wrap(fmt.Errorf("%w: %w", ErrOperationPrevented, cause))
}
