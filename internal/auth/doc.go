// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth resolves and verifies login credentials.
//
// # Resolution
//
// Resolver turns a submitted Credential into an Outcome. The username may be
// a canonical account id or an email address (see IsEmailForm). Checks run in
// a fixed order:
//   - the identifier must resolve to an account (IncorrectEmailAddress)
//   - the account must be active with a verified email (EmailNotVerified,
//     or IncorrectEmailAddress when the caller sent a raw account id)
//   - the secret must match the stored digest (IncorrectPassword)
//
// Collaborator faults are never folded into a negative outcome. They are
// returned as errors wrapping ErrOperationPrevented.
//
// # Services
//
//   - Handler - exception-style boundary over a CredentialResolver
//   - AccountService - email confirmation and password resets
//
// Services are created with New* constructors that validate dependencies.
package auth
