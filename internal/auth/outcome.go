// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"github.com/samber/oops"
)

// Outcome is the result of resolving a credential.
//
// The zero value is OutcomeUnknown and is only ever returned together with
// a non-nil error.
type Outcome int

// Outcome values.
const (
	OutcomeUnknown Outcome = iota
	Success
	IncorrectEmailAddress
	EmailNotVerified
	IncorrectPassword
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:        "unknown",
	Success:               "success",
	IncorrectEmailAddress: "incorrect_email_address",
	EmailNotVerified:      "email_not_verified",
	IncorrectPassword:     "incorrect_password",
}

// String returns the snake_case name used in logs, metrics and on the wire.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return outcomeNames[OutcomeUnknown]
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) (Outcome, error) {
	for o, name := range outcomeNames {
		if o != OutcomeUnknown && name == s {
			return o, nil
		}
	}
	return OutcomeUnknown, oops.Code("AUTH_UNKNOWN_OUTCOME").
		With("outcome", s).
		Errorf("unknown authentication outcome %q", s)
}

// Err translates a negative outcome into a coded error wrapping the
// matching sentinel. Success yields nil.
func (o Outcome) Err() error {
	switch o {
	case Success:
		return nil
	case IncorrectEmailAddress:
		return oops.Code(CodeEmailIncorrect).Wrap(ErrEmailAddressIncorrect)
	case EmailNotVerified:
		return oops.Code(CodeEmailNotVerified).Wrap(ErrEmailNotVerified)
	case IncorrectPassword:
		return oops.Code(CodePasswordIncorrect).Wrap(ErrPasswordIncorrect)
	default:
		return oops.Code("AUTH_UNKNOWN_OUTCOME").
			With("outcome", int(o)).
			Errorf("unknown authentication outcome")
	}
}
