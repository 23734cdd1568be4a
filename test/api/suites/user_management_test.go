/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//nolint:testpackage,revive // test package in suites is standard for these tests, dot imports standard for Ginkgo
package suites

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/test/api"
)

var _ = Describe("User Management", func() {
	Context("When registering a reader", func() {
		Describe("Given valid details", func() {
			It("should list the active account without its password", func() {
				payload := library.NewUserPayload()

				userID := api.CreateUserWithCleanup(client, ctx, payload)

				users, err := client.ListUsers(ctx, &library.UserFilter{Email: payload.Email()})
				Expect(err).NotTo(HaveOccurred())
				Expect(users).To(HaveLen(1))
				Expect(users[0]).To(api.SatisfyShape(payload.Expected()))
				Expect(users[0]).To(api.SatisfyShape(record.Record{"id": userID}))
				Expect(users[0]).NotTo(HaveKey("password"))
			})

			It("should allow the reader to log in", func() {
				payload := library.NewUserPayload()

				api.CreateUserWithCleanup(client, ctx, payload)

				token, err := api.NewAPIClientWithConfig(config, baseURL).Login(ctx, payload.Credentials())
				Expect(err).NotTo(HaveOccurred())
				Expect(token).NotTo(BeEmpty())
			})
		})

		Describe("Given invalid details", func() {
			It("should reject an invalid CPF", func() {
				_, err := client.RegisterUser(ctx, library.NewUserPayload().WithCPF("11111111111").Build())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})

			It("should reject a duplicate email", func() {
				payload := library.NewUserPayload()

				api.CreateUserWithCleanup(client, ctx, payload)

				_, err := client.RegisterUser(ctx, library.NewUserPayload().WithEmail(payload.Email()).Build())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("409"))
			})
		})
	})

	Context("When changing account state", func() {
		Describe("Given a registered reader", func() {
			It("should deactivate and reactivate the account", func() {
				payload := library.NewUserPayload().WithName(api.GenerateTestID())

				userID := api.CreateUserWithCleanup(client, ctx, payload)

				Expect(client.DeactivateUser(ctx, userID)).To(Succeed())

				user, err := client.GetUser(ctx, userID)
				Expect(err).NotTo(HaveOccurred())
				Expect(user).To(api.SatisfyShape(record.Record{"id": userID, "is_active": false}))

				_, err = api.NewAPIClientWithConfig(config, baseURL).Login(ctx, payload.Credentials())
				Expect(err).To(HaveOccurred())

				Expect(client.ActivateUser(ctx, userID)).To(Succeed())

				user, err = client.GetUser(ctx, userID)
				Expect(err).NotTo(HaveOccurred())
				Expect(user).To(api.SatisfyShape(record.Record{"id": userID, "is_active": true}))
			})
		})

		Describe("Given a deleted reader", func() {
			It("should no longer be found", func() {
				payload := library.NewUserPayload()

				userID, err := client.RegisterUser(ctx, payload.Build())
				Expect(err).NotTo(HaveOccurred())

				Expect(client.DeleteUser(ctx, userID)).To(Succeed())

				_, err = client.GetUser(ctx, userID)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("404"))

				users, err := client.ListUsers(ctx, &library.UserFilter{Email: payload.Email()})
				Expect(err).NotTo(HaveOccurred())
				Expect(users).To(BeEmpty())
			})
		})
	})
})
