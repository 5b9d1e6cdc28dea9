// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

// AssertErrorCode asserts that err is an oops error whose code is code.
// oops reports the deepest code in a wrapped chain.
func AssertErrorCode(t testing.TB, err error, code string) bool {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !assert.True(t, ok, "expected oops error with code %s, got %T: %v", code, err, err) {
		return false
	}
	return assert.Equal(t, code, oopsErr.Code(), "error: %v", err)
}

// AssertErrorContext asserts that err carries key=value in its oops context.
func AssertErrorContext(t testing.TB, err error, key string, value any) bool {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	if !assert.True(t, ok, "expected oops error with %s, got %T: %v", key, err, err) {
		return false
	}
	ctx := oopsErr.Context()
	if !assert.Contains(t, ctx, key) {
		return false
	}
	return assert.Equal(t, value, ctx[key])
}

// AssertCoded asserts that err wraps sentinel and carries code.
func AssertCoded(t testing.TB, err error, code string, sentinel error) bool {
	t.Helper()
	if !assert.True(t, errors.Is(err, sentinel), "expected %v in chain, got %v", sentinel, err) {
		return false
	}
	return AssertErrorCode(t, err, code)
}
