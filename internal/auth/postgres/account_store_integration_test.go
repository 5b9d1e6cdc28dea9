// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/auth/postgres"
)

var _ = Describe("AccountStore", func() {
	var (
		ctx      context.Context
		accounts *postgres.AccountStore
		dir      *postgres.Directory
	)

	BeforeEach(func() {
		ctx = context.Background()
		token := "AbC123"
		digest := "$2a$04$legacy"
		seed(ctx, seedAccount{id: "pending-1", email: "Pending@Example.com", digest: &digest, active: true, token: &token})
		_, err := testPool.Exec(ctx, `UPDATE auth_accounts SET password_reset = TRUE WHERE auth_id = 'pending-1'`)
		Expect(err).NotTo(HaveOccurred())

		accounts = postgres.NewAccountStore(testPool, nil)
		dir = postgres.NewDirectory(testPool, nil)
	})

	It("returns the email for an account", func() {
		email, err := accounts.EmailForAccount(ctx, "PENDING-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(email).To(Equal("Pending@Example.com"))
	})

	It("consumes a verification token case-insensitively", func() {
		ok, err := accounts.ConsumeVerificationToken(ctx, "pending@example.com", "abc123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		active, err := dir.IsActiveAndVerified(ctx, "pending-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(BeTrue())

		ok, err = accounts.ConsumeVerificationToken(ctx, "pending@example.com", "abc123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse(), "a token can only be used once")
	})

	It("rejects a token for another email", func() {
		ok, err := accounts.ConsumeVerificationToken(ctx, "someone@example.com", "AbC123")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("updates the digest and clears the reset flag", func() {
		required, err := accounts.PasswordResetRequired(ctx, "pending-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(required).To(BeTrue())

		Expect(accounts.UpdateDigest(ctx, "pending-1", "$argon2id$fresh")).To(Succeed())

		required, err = accounts.PasswordResetRequired(ctx, "pending-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(required).To(BeFalse())

		digest, err := dir.StoredDigest(ctx, "pending-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(digest).To(Equal("$argon2id$fresh"))
	})

	It("reports unknown accounts as not found", func() {
		err := accounts.UpdateDigest(ctx, "missing", "$argon2id$fresh")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})
})
