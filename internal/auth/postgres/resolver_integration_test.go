// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/casauth/internal/auth"
	"github.com/holomush/casauth/internal/auth/postgres"
	"github.com/holomush/casauth/internal/store"
)

const knownID = "af8d4adf-1629-ce51-b4a3-ea0ea28c11e0"

var _ = Describe("Resolver against PostgreSQL", func() {
	var (
		ctx      context.Context
		hasher   *auth.Argon2idHasher
		resolver *auth.Resolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		hasher = auth.NewArgon2idHasherWithParams(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32})

		digest, err := hasher.Hash("password1")
		Expect(err).NotTo(HaveOccurred())
		seed(ctx, seedAccount{id: knownID, email: "EmailInDB@gmail.com", digest: &digest, active: true, verified: true})

		dir := postgres.NewDirectory(testPool, store.NewRetrier(store.RetryConfig{MaxAttempts: 2}))
		resolver, err = auth.NewResolver(dir, hasher)
		Expect(err).NotTo(HaveOccurred())
	})

	It("resolves a known email with the right password", func() {
		cred := &auth.Credential{Username: "emailindb@gmail.com", Secret: "password1"}
		outcome, err := resolver.Resolve(ctx, cred)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(auth.Success))
		Expect(cred.Username).To(Equal(knownID))
	})

	It("rejects the wrong password", func() {
		cred := &auth.Credential{Username: "emailindb@gmail.com", Secret: "password1x"}
		outcome, err := resolver.Resolve(ctx, cred)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(auth.IncorrectPassword))
		Expect(cred.Username).To(Equal("emailindb@gmail.com"))
	})

	It("reports an unknown email", func() {
		cred := &auth.Credential{Username: "emailnotindb@gmail.com", Secret: "password1"}
		outcome, err := resolver.Resolve(ctx, cred)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(auth.IncorrectEmailAddress))
		Expect(cred.Username).To(Equal("emailnotindb@gmail.com"))
	})

	It("accepts the canonical id directly", func() {
		cred := &auth.Credential{Username: knownID, Secret: "password1"}
		outcome, err := resolver.Resolve(ctx, cred)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(auth.Success))
	})

	It("matches a raw id exactly in the status check", func() {
		cred := &auth.Credential{Username: strings.ToUpper(knownID), Secret: "password1"}
		outcome, err := resolver.Resolve(ctx, cred)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(auth.IncorrectEmailAddress))
	})

	Context("with a legacy bcrypt digest", func() {
		var upgrading *auth.Resolver

		BeforeEach(func() {
			legacy, err := bcrypt.GenerateFromPassword([]byte("password3"), bcrypt.MinCost)
			Expect(err).NotTo(HaveOccurred())
			digest := string(legacy)
			seed(ctx, seedAccount{id: "legacy-1", email: "legacy@example.com", digest: &digest, active: true, verified: true})

			accounts, err := auth.NewAccountService(postgres.NewAccountStore(testPool, nil), hasher)
			Expect(err).NotTo(HaveOccurred())
			dir := postgres.NewDirectory(testPool, nil)
			upgrading, err = auth.NewResolver(dir, hasher, auth.WithDigestUpgrader(accounts))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rehashes it with argon2id after a successful login", func() {
			outcome, err := upgrading.Resolve(ctx, &auth.Credential{Username: "legacy@example.com", Secret: "password3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(auth.Success))

			var stored string
			Expect(testPool.QueryRow(ctx, `SELECT password FROM auth_accounts WHERE auth_id = 'legacy-1'`).Scan(&stored)).To(Succeed())
			Expect(stored).To(HavePrefix("$argon2id$"))

			outcome, err = upgrading.Resolve(ctx, &auth.Credential{Username: "legacy@example.com", Secret: "password3"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(auth.Success))
		})
	})

	Context("with an unverified account", func() {
		BeforeEach(func() {
			digest, err := hasher.Hash("password2")
			Expect(err).NotTo(HaveOccurred())
			seed(ctx, seedAccount{id: "unverified-1", email: "new@example.com", digest: &digest, active: true, verified: false})
		})

		It("reports EmailNotVerified for the email", func() {
			outcome, err := resolver.Resolve(ctx, &auth.Credential{Username: "new@example.com", Secret: "password2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(auth.EmailNotVerified))
		})

		It("reports IncorrectEmailAddress for the raw id", func() {
			outcome, err := resolver.Resolve(ctx, &auth.Credential{Username: "unverified-1", Secret: "password2"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(auth.IncorrectEmailAddress))
		})
	})

	Context("with no password on file", func() {
		BeforeEach(func() {
			seed(ctx, seedAccount{id: "nopass-1", email: "nopass@example.com", active: true, verified: true})
		})

		It("reports IncorrectPassword", func() {
			outcome, err := resolver.Resolve(ctx, &auth.Credential{Username: "nopass@example.com", Secret: "anything"})
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome).To(Equal(auth.IncorrectPassword))
		})
	})
})
