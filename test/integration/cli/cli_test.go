// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package cli_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

const (
	accountID = "af8d4adf-1629-ce51-b4a3-ea0ea28c11e0"
	email     = "EmailInDB@gmail.com"
)

var _ = Describe("casauth CLI", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		resetDatabase(ctx, env.pool)

		_, output, err := casauth(ctx, "", "migrate", "up")
		Expect(err).NotTo(HaveOccurred(), "migrate up failed: %s", output)
		Expect(output).To(ContainSubstring("now at version 1"))
	})

	// seedAccount stores an account whose digest comes from the digest command.
	seedAccount := func(active, verified bool, token string) {
		digest, output, err := casauth(ctx, "password1\npassword1\n", "digest")
		Expect(err).NotTo(HaveOccurred(), "digest failed: %s", output)

		var emailID int64
		err = env.pool.QueryRow(ctx,
			`INSERT INTO emails (email_address, verified) VALUES ($1, $2) RETURNING id`,
			email, verified,
		).Scan(&emailID)
		Expect(err).NotTo(HaveOccurred())

		var tokenArg any
		if token != "" {
			tokenArg = token
		}
		_, err = env.pool.Exec(ctx,
			`INSERT INTO auth_accounts (auth_id, email_id, password, is_active, verification_token)
			 VALUES ($1, $2, $3, $4, $5)`,
			accountID, emailID, strings.TrimSpace(digest), active, tokenArg,
		)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("migrate", func() {
		It("reports the applied schema", func() {
			_, output, err := casauth(ctx, "", "migrate", "status")
			Expect(err).NotTo(HaveOccurred(), "status failed: %s", output)
			Expect(output).To(ContainSubstring("Version: 1 (clean)"))
			Expect(output).To(ContainSubstring("Pending: none"))
		})

		It("is idempotent", func() {
			_, output, err := casauth(ctx, "", "migrate", "up")
			Expect(err).NotTo(HaveOccurred(), "second migrate up failed: %s", output)
			Expect(output).To(ContainSubstring("Schema is up to date"))
		})
	})

	Describe("check", func() {
		It("authenticates a verified account by email", func() {
			seedAccount(true, true, "")

			_, output, err := casauth(ctx, "password1\n", "check", "emailindb@gmail.com")
			Expect(err).NotTo(HaveOccurred(), "check failed: %s", output)
			Expect(output).To(ContainSubstring("success: authenticated as " + accountID))
		})

		It("rejects the wrong password", func() {
			seedAccount(true, true, "")

			_, output, err := casauth(ctx, "password1x\n", "check", "emailindb@gmail.com")
			Expect(err).To(HaveOccurred())
			Expect(output).To(ContainSubstring("incorrect_password"))
		})

		It("points unknown emails at registration", func() {
			_, output, err := casauth(ctx, "password1\n", "check", "emailnotindb@gmail.com",
				"--registration-url", "https://accounts.example.org")
			Expect(err).To(HaveOccurred())
			Expect(output).To(ContainSubstring("incorrect_email_address"))
			Expect(output).To(ContainSubstring("https://accounts.example.org"))
		})
	})

	Describe("account maintenance", func() {
		It("confirms an email and then authenticates", func() {
			seedAccount(true, false, "ABC123")

			_, output, err := casauth(ctx, "password1\n", "check", email)
			Expect(err).To(HaveOccurred())
			Expect(output).To(ContainSubstring("email_not_verified"))

			_, output, err = casauth(ctx, "", "confirm-email", email, "abc123")
			Expect(err).NotTo(HaveOccurred(), "confirm-email failed: %s", output)

			_, output, err = casauth(ctx, "password1\n", "check", email)
			Expect(err).NotTo(HaveOccurred(), "check failed: %s", output)
			Expect(output).To(ContainSubstring(accountID))
		})

		It("resets a password", func() {
			seedAccount(true, true, "")

			_, output, err := casauth(ctx, "s3cond\ns3cond\n", "reset-password", accountID)
			Expect(err).NotTo(HaveOccurred(), "reset-password failed: %s", output)

			_, output, err = casauth(ctx, "s3cond\n", "check", email)
			Expect(err).NotTo(HaveOccurred(), "check failed: %s", output)

			stdout, output, err := casauth(ctx, "", "account", accountID)
			Expect(err).NotTo(HaveOccurred(), "account failed: %s", output)
			Expect(stdout).To(ContainSubstring("Email: " + email))
			Expect(stdout).To(ContainSubstring("Password reset required: false"))
		})
	})
})
