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

var _ = Describe("Reservations and Loans", func() {
	Context("When reserving a book", func() {
		Describe("Given a stocked book", func() {
			It("should list the pending reservation", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				reservation, err := client.CreateReservation(ctx, fixture.BookID, library.DefaultBorrowPeriodDays)
				Expect(err).NotTo(HaveOccurred())
				Expect(reservation).To(api.SatisfyShape(record.Record{
					"status":        library.ReservationPending,
					"borrowed_days": library.DefaultBorrowPeriodDays,
					"fk_book_id":    fixture.BookID,
				}))

				// Listings may render timestamps differently, they must
				// still denote the same instants.
				reservations, err := client.ListReservations(ctx, &library.ReservationFilter{Status: library.ReservationPending})
				Expect(err).NotTo(HaveOccurred())
				Expect(reservations).To(api.ContainRecord(record.Record{
					"id":            reservation["id"],
					"fk_book_id":    fixture.BookID,
					"borrowed_days": library.DefaultBorrowPeriodDays,
					"reserved_at":   reservation["reserved_at"],
					"expires_at":    reservation["expires_at"],
				}))
			})
		})

		Describe("Given an unsupported borrowing period", func() {
			It("should reject the reservation", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				_, err := client.CreateReservation(ctx, fixture.BookID, 45)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})
		})
	})

	Context("When lending a book", func() {
		Describe("Given a pending reservation", func() {
			It("should lend the copy and collect the reservation", func() {
				fixture := api.CreateLoanFixture(client, ctx)

				Expect(fixture.Loan).To(api.SatisfyShape(record.Record{
					"status":         library.LoanBorrowed,
					"book_stock_id":  fixture.StockID,
					"reservation_id": fixture.ReservationID,
				}))

				stock, err := client.ListStock(ctx, fixture.BookID, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).To(api.ContainRecord(record.Record{
					"id":     fixture.StockID,
					"status": library.StockBorrowed,
				}))

				reservations, err := client.ListReservations(ctx, &library.ReservationFilter{Status: library.ReservationCollected})
				Expect(err).NotTo(HaveOccurred())
				Expect(reservations).To(api.ContainRecord(record.Record{"id": fixture.ReservationID}))
			})

			It("should refuse a second loan against the same reservation", func() {
				fixture := api.CreateLoanFixture(client, ctx)

				_, err := client.CreateLoan(ctx, fixture.StockID, fixture.ReservationID)

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})
		})

		Describe("Given the loan is finished", func() {
			It("should return the copy to stock", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				reservation, err := client.CreateReservation(ctx, fixture.BookID, 60)
				Expect(err).NotTo(HaveOccurred())

				loan, err := client.CreateLoan(ctx, fixture.StockID, api.IDOf(reservation, "id"))
				Expect(err).NotTo(HaveOccurred())

				Expect(client.FinishLoan(ctx, api.IDOf(loan, "id"))).To(Succeed())

				stock, err := client.ListStock(ctx, fixture.BookID, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).To(api.ContainRecord(record.Record{
					"id":     fixture.StockID,
					"status": library.StockAvailable,
				}))
			})
		})
	})
})
