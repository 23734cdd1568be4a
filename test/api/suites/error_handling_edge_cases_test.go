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
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/test/api"
)

var _ = Describe("Error Handling and Edge Cases", func() {
	var endpoints *library.Endpoints

	BeforeEach(func() {
		endpoints = library.NewEndpoints()
	})

	Context("When API encounters errors", func() {
		Describe("Given malformed requests", func() {
			It("should return a documented error for a non-numeric identifier", func() {
				path := endpoints.GetBook("abc")

				resp, err := client.Raw(ctx, http.MethodGet, path, nil, nil, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(validator.ValidateResponse(ctx, http.MethodGet, path, resp.StatusCode, resp.Raw)).To(Succeed())
			})

			It("should return a documented error for an unknown book", func() {
				path := endpoints.GetBook("987654321")

				resp, err := client.Raw(ctx, http.MethodGet, path, nil, nil, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				Expect(validator.ValidateResponse(ctx, http.MethodGet, path, resp.StatusCode, resp.Raw)).To(Succeed())
			})

			It("should reject a body of the wrong type", func() {
				path := endpoints.CreateBook()

				resp, err := client.Raw(ctx, http.MethodPost, path, nil, nil, []string{"not", "a", "book"})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(validator.ValidateResponse(ctx, http.MethodPost, path, resp.StatusCode, resp.Raw)).To(Succeed())
			})

			It("should reject an unknown genre", func() {
				_, err := client.CreateBook(ctx, library.NewBookPayload().WithGenreIDs(1, 999).Build())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})

			It("should return not found for unknown routes", func() {
				resp, err := client.Raw(ctx, http.MethodGet, "/api/v1/periodicals/", nil, nil, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})

		Describe("Given resource constraints", func() {
			It("should cap the reservations a reader may hold", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)
				reader := readerClient()

				for range 5 {
					_, err := reader.CreateReservation(ctx, fixture.BookID, library.DefaultBorrowPeriodDays)
					Expect(err).NotTo(HaveOccurred())
				}

				_, err := reader.CreateReservation(ctx, fixture.BookID, library.DefaultBorrowPeriodDays)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("409"))
			})
		})
	})

	Context("When testing edge case scenarios", func() {
		Describe("Given unusual timing conditions", func() {
			It("should handle operations on deleted resources", func() {
				book, err := client.CreateBook(ctx, library.NewBookPayload().Build())
				Expect(err).NotTo(HaveOccurred())

				bookID := api.IDOf(book, "id")

				Expect(client.DeleteBook(ctx, bookID)).To(Succeed())

				err = client.UpdateBook(ctx, bookID, library.BookUpdatePayload("Gone", "Gone", 1))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("404"))

				_, err = client.AddStock(ctx, bookID, library.UniqueCode())
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("404"))
			})

			It("should refuse to delete a book with a copy on loan", func() {
				fixture := api.CreateLoanFixture(client, ctx)

				err := client.DeleteBook(ctx, fixture.BookID)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("409"))

				_, err = client.GetBook(ctx, fixture.BookID)
				Expect(err).NotTo(HaveOccurred())
			})

			It("should lend a copy only once", func() {
				fixture := api.CreateLoanFixture(client, ctx)

				reservation, err := client.CreateReservation(ctx, fixture.BookID, library.DefaultBorrowPeriodDays)
				Expect(err).NotTo(HaveOccurred())

				_, err = client.CreateLoan(ctx, fixture.StockID, api.IDOf(reservation, "id"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))

				reservations, err := client.ListReservations(ctx, &library.ReservationFilter{Status: library.ReservationPending})
				Expect(err).NotTo(HaveOccurred())
				Expect(reservations).To(api.ContainRecord(record.Record{"id": reservation["id"]}))
			})

			It("should refuse to finish a loan twice", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				reservation, err := client.CreateReservation(ctx, fixture.BookID, library.DefaultBorrowPeriodDays)
				Expect(err).NotTo(HaveOccurred())

				loan, err := client.CreateLoan(ctx, fixture.StockID, api.IDOf(reservation, "id"))
				Expect(err).NotTo(HaveOccurred())

				loanID := api.IDOf(loan, "id")

				Expect(client.FinishLoan(ctx, loanID)).To(Succeed())

				err = client.FinishLoan(ctx, loanID)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})
		})
	})
})
