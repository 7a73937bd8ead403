// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Walletd Contributors

//go:build integration

package auth_test

import (
	"fmt"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/oklog/ulid/v2"

	"github.com/walletd/walletd/internal/auth"
	authredis "github.com/walletd/walletd/internal/auth/redis"
)

func registerInput() auth.RegisterInput {
	n := rand.Int63n(1_000_000_000) //nolint:gosec // test data only
	return auth.RegisterInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       fmt.Sprintf("jane.%d@example.com", n),
		PhoneNumber: fmt.Sprintf("+4915%010d", n),
		Password:    "Sup3r-Secret!",
	}
}

var _ = Describe("Account lifecycle", func() {
	AfterEach(func() {
		cleanupUsers(env.ctx, env.pool)
	})

	Describe("registration", func() {
		It("creates a user with a zero-balance account", func() {
			in := registerInput()
			public, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(public.Email).To(Equal(in.Email))
			Expect(public.AccountID).NotTo(BeEmpty())

			id, err := ulid.Parse(public.ID)
			Expect(err).NotTo(HaveOccurred())
			profile, err := env.Service.GetProfile(env.ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Account).NotTo(BeNil())
			Expect(profile.Account.Balance).To(BeZero())
		})

		It("rejects a duplicate email with a conflict", func() {
			in := registerInput()
			_, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())

			dup := registerInput()
			dup.Email = in.Email
			_, err = env.Service.Register(env.ctx, dup)
			Expect(err).To(HaveOccurred())
			Expect(auth.HasCode(err, auth.CodeConflict)).To(BeTrue())
		})

		It("rejects a duplicate phone number with a conflict", func() {
			in := registerInput()
			_, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())

			dup := registerInput()
			dup.PhoneNumber = in.PhoneNumber
			_, err = env.Service.Register(env.ctx, dup)
			Expect(err).To(HaveOccurred())
			Expect(auth.HasCode(err, auth.CodeConflict)).To(BeTrue())
		})
	})

	Describe("login", func() {
		var in auth.RegisterInput

		BeforeEach(func() {
			in = registerInput()
			_, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns a session token for valid credentials", func() {
			public, token, err := env.Service.Login(env.ctx, in.Email, in.Password)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
			Expect(public.Email).To(Equal(in.Email))

			user, err := env.Guard.VerifyAndResolve(env.ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal(in.Email))
		})

		It("accepts the email case-insensitively", func() {
			_, token, err := env.Service.Login(env.ctx, "JANE."+in.Email[5:], in.Password)
			Expect(err).NotTo(HaveOccurred())
			Expect(token).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, _, err := env.Service.Login(env.ctx, in.Email, "Wrong-Passw0rd!")
			Expect(err).To(HaveOccurred())
			Expect(auth.HasCode(err, auth.CodeUnauthorized)).To(BeTrue())
		})

		It("rejects an unknown email with the same error as a wrong password", func() {
			_, _, unknownErr := env.Service.Login(env.ctx, "nobody@example.com", in.Password)
			_, _, wrongErr := env.Service.Login(env.ctx, in.Email, "Wrong-Passw0rd!")
			Expect(unknownErr).To(HaveOccurred())
			Expect(wrongErr).To(HaveOccurred())
			Expect(unknownErr.Error()).To(Equal(wrongErr.Error()))
		})
	})

	Describe("password reset", func() {
		var in auth.RegisterInput

		BeforeEach(func() {
			in = registerInput()
			_, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())
		})

		It("issues a token that rotates the password exactly once", func() {
			Expect(env.Service.ForgotPassword(env.ctx, in.Email)).To(Succeed())
			Expect(env.Mailer.lastEmail).To(Equal(in.Email))
			token := env.Mailer.lastToken
			Expect(token).NotTo(BeEmpty())

			Expect(env.Service.ResetPassword(env.ctx, token, "N3w-Secret!!")).To(Succeed())

			_, _, err := env.Service.Login(env.ctx, in.Email, in.Password)
			Expect(auth.HasCode(err, auth.CodeUnauthorized)).To(BeTrue())
			_, newToken, err := env.Service.Login(env.ctx, in.Email, "N3w-Secret!!")
			Expect(err).NotTo(HaveOccurred())
			Expect(newToken).NotTo(BeEmpty())

			// Replay with the consumed token must fail.
			err = env.Service.ResetPassword(env.ctx, token, "An0ther-Secret!")
			Expect(auth.HasCode(err, auth.CodeInvalidToken)).To(BeTrue())
		})

		It("silently accepts a reset request for an unknown email", func() {
			env.Mailer.lastToken = ""
			Expect(env.Service.ForgotPassword(env.ctx, "nobody@example.com")).To(Succeed())
			Expect(env.Mailer.lastToken).To(BeEmpty())
		})

		It("rejects a token that was never issued", func() {
			err := env.Service.ResetPassword(env.ctx, "f6b6cfb5-9f0a-4f4e-9a5e-1f2d3c4b5a69", "N3w-Secret!!")
			Expect(auth.HasCode(err, auth.CodeInvalidToken)).To(BeTrue())
		})
	})

	Describe("reset token store", func() {
		It("expires tokens after their ttl", func() {
			store := authredis.NewResetTokenStore(env.redisClient)
			token := auth.NewResetToken()
			Expect(store.Save(env.ctx, token, "ttl@example.com", 200*time.Millisecond)).To(Succeed())

			Eventually(func() error {
				_, err := store.Take(env.ctx, token)
				return err
			}, "2s", "50ms").Should(MatchError(auth.ErrNotFound))
		})
	})

	Describe("session guard", func() {
		It("rejects a token for a deleted user", func() {
			in := registerInput()
			_, err := env.Service.Register(env.ctx, in)
			Expect(err).NotTo(HaveOccurred())
			_, token, err := env.Service.Login(env.ctx, in.Email, in.Password)
			Expect(err).NotTo(HaveOccurred())

			cleanupUsers(env.ctx, env.pool)

			_, err = env.Guard.VerifyAndResolve(env.ctx, token)
			Expect(auth.HasCode(err, auth.CodeUnauthorized)).To(BeTrue())
		})
	})
})
