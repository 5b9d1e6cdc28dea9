// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/casauth/internal/auth"
)

type cleanupT interface {
	mock.TestingT
	Cleanup(func())
}

// MockAccountDirectory mocks auth.AccountDirectory.
type MockAccountDirectory struct {
	mock.Mock
}

// NewMockAccountDirectory creates a MockAccountDirectory whose expectations
// are asserted when the test finishes.
func NewMockAccountDirectory(t cleanupT) *MockAccountDirectory {
	m := &MockAccountDirectory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountDirectory) ResolveIDByEmail(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockAccountDirectory) IsActiveAndVerified(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountDirectory) StoredDigest(ctx context.Context, accountID string) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

// MockSecretVerifier mocks auth.SecretVerifier.
type MockSecretVerifier struct {
	mock.Mock
}

// NewMockSecretVerifier creates a MockSecretVerifier.
func NewMockSecretVerifier(t cleanupT) *MockSecretVerifier {
	m := &MockSecretVerifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSecretVerifier) Verify(plaintext, digest string) (bool, error) {
	args := m.Called(plaintext, digest)
	return args.Bool(0), args.Error(1)
}

// MockPasswordHasher mocks auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher.
func NewMockPasswordHasher(t cleanupT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, digest string) (bool, error) {
	args := m.Called(password, digest)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) NeedsUpgrade(digest string) bool {
	args := m.Called(digest)
	return args.Bool(0)
}

// MockAccountStore mocks auth.AccountStore.
type MockAccountStore struct {
	mock.Mock
}

// NewMockAccountStore creates a MockAccountStore.
func NewMockAccountStore(t cleanupT) *MockAccountStore {
	m := &MockAccountStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAccountStore) EmailForAccount(ctx context.Context, accountID string) (string, error) {
	args := m.Called(ctx, accountID)
	return args.String(0), args.Error(1)
}

func (m *MockAccountStore) ConsumeVerificationToken(ctx context.Context, email, token string) (bool, error) {
	args := m.Called(ctx, email, token)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountStore) PasswordResetRequired(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountStore) UpdateDigest(ctx context.Context, accountID, digest string) error {
	args := m.Called(ctx, accountID, digest)
	return args.Error(0)
}

func (m *MockAccountStore) ReplaceDigest(ctx context.Context, accountID, oldDigest, newDigest string) (bool, error) {
	args := m.Called(ctx, accountID, oldDigest, newDigest)
	return args.Bool(0), args.Error(1)
}

// MockDigestUpgrader mocks auth.DigestUpgrader.
type MockDigestUpgrader struct {
	mock.Mock
}

// NewMockDigestUpgrader creates a MockDigestUpgrader.
func NewMockDigestUpgrader(t cleanupT) *MockDigestUpgrader {
	m := &MockDigestUpgrader{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDigestUpgrader) UpgradeDigest(ctx context.Context, accountID, secret, digest string) (bool, error) {
	args := m.Called(ctx, accountID, secret, digest)
	return args.Bool(0), args.Error(1)
}

// MockCredentialResolver mocks auth.CredentialResolver. Run can be used to
// mutate the credential the way a real resolver does.
type MockCredentialResolver struct {
	mock.Mock
}

// NewMockCredentialResolver creates a MockCredentialResolver.
func NewMockCredentialResolver(t cleanupT) *MockCredentialResolver {
	m := &MockCredentialResolver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialResolver) Resolve(ctx context.Context, cred *auth.Credential) (auth.Outcome, error) {
	args := m.Called(ctx, cred)
	return args.Get(0).(auth.Outcome), args.Error(1)
}

var (
	_ auth.AccountDirectory   = (*MockAccountDirectory)(nil)
	_ auth.SecretVerifier     = (*MockSecretVerifier)(nil)
	_ auth.PasswordHasher     = (*MockPasswordHasher)(nil)
	_ auth.AccountStore       = (*MockAccountStore)(nil)
	_ auth.DigestUpgrader     = (*MockDigestUpgrader)(nil)
	_ auth.CredentialResolver = (*MockCredentialResolver)(nil)
)
