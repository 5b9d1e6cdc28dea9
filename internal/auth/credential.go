// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"strings"
)

// Credential is a submitted username/secret pair.
//
// Resolve rewrites Username: on Success it holds the canonical account id,
// on any other result it holds exactly what the caller submitted.
type Credential struct {
	Username string
	Secret   string
}

// LogValue keeps the secret out of structured logs.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("username", c.Username))
}

// IsEmailForm reports whether username should be treated as an email
// address: it contains '@' somewhere after the first character.
func IsEmailForm(username string) bool {
	return strings.IndexByte(username, '@') > 0
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
