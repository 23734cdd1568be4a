/*
Copyright 2024-2025 the Unikorn Authors.
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

//nolint:revive,staticcheck // dot imports are standard for Ginkgo/Gomega test code
package api

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nscaledev/uni-library-contract/pkg/library"
	"github.com/nscaledev/uni-library-contract/pkg/record"
)

// CreateBookWithCleanup creates a book and schedules its deletion, which is
// allowed to fail if the test already deleted it.
func CreateBookWithCleanup(client *APIClient, ctx context.Context, payload *library.BookPayloadBuilder) (record.Record, int) {
	book, err := client.CreateBook(ctx, payload.Build())
	Expect(err).NotTo(HaveOccurred())

	bookID, err := recordID(book, "id")
	Expect(err).NotTo(HaveOccurred())

	GinkgoWriter.Printf("Created book with ID: %d\n", bookID)

	// Schedule cleanup - this runs whether the test passes or fails so we don't need to clean up manually
	DeferCleanup(func() {
		GinkgoWriter.Printf("Cleaning up book: %d\n", bookID)

		if deleteErr := client.DeleteBook(ctx, bookID); deleteErr != nil {
			GinkgoWriter.Printf("Warning: Failed to delete book %d: %v\n", bookID, deleteErr)
		}
	})

	return book, bookID
}

// CreateUserWithCleanup registers an account and schedules its deletion.
func CreateUserWithCleanup(client *APIClient, ctx context.Context, payload *library.UserPayloadBuilder) int {
	userID, err := client.RegisterUser(ctx, payload.Build())
	Expect(err).NotTo(HaveOccurred())

	GinkgoWriter.Printf("Registered user with ID: %d\n", userID)

	DeferCleanup(func() {
		if deleteErr := client.DeleteUser(ctx, userID); deleteErr != nil {
			GinkgoWriter.Printf("Warning: Failed to delete user %d: %v\n", userID, deleteErr)
		}
	})

	return userID
}

// StockedBookFixture is a book with a single available copy.
type StockedBookFixture struct {
	Book    record.Record
	BookID  int
	StockID int
	Code    int
}

// CreateStockedBookFixture creates a book with no initial stock then adds a
// single copy, as a librarian receiving a new title would.
func CreateStockedBookFixture(client *APIClient, ctx context.Context) *StockedBookFixture {
	book, bookID := CreateBookWithCleanup(client, ctx, library.NewBookPayload().WithCodes())

	code := library.UniqueCode()

	stockID, err := client.AddStock(ctx, bookID, code)
	Expect(err).NotTo(HaveOccurred())

	return &StockedBookFixture{
		Book:    book,
		BookID:  bookID,
		StockID: stockID,
		Code:    code,
	}
}

// LoanFixture is an open loan against a reservation.
type LoanFixture struct {
	*StockedBookFixture

	Reservation   record.Record
	ReservationID int
	Loan          record.Record
	LoanID        int
}

// CreateLoanFixture reserves a stocked book and lends its copy.  The loan is
// finished on cleanup so the book can be deleted.
func CreateLoanFixture(client *APIClient, ctx context.Context) *LoanFixture {
	book := CreateStockedBookFixture(client, ctx)

	reservation, err := client.CreateReservation(ctx, book.BookID, library.DefaultBorrowPeriodDays)
	Expect(err).NotTo(HaveOccurred())

	reservationID, err := recordID(reservation, "id")
	Expect(err).NotTo(HaveOccurred())

	loan, err := client.CreateLoan(ctx, book.StockID, reservationID)
	Expect(err).NotTo(HaveOccurred())

	loanID, err := recordID(loan, "id")
	Expect(err).NotTo(HaveOccurred())

	DeferCleanup(func() {
		if finishErr := client.FinishLoan(ctx, loanID); finishErr != nil {
			GinkgoWriter.Printf("Warning: Failed to finish loan %d: %v\n", loanID, finishErr)
		}
	})

	return &LoanFixture{
		StockedBookFixture: book,
		Reservation:        reservation,
		ReservationID:      reservationID,
		Loan:               loan,
		LoanID:             loanID,
	}
}

// VerifyBookPresence verifies the catalogue lists a book of the given shape.
func VerifyBookPresence(client *APIClient, ctx context.Context, filter *library.BookFilter, expected record.Record) {
	books, err := client.ListBooks(ctx, filter)
	Expect(err).NotTo(HaveOccurred())
	Expect(books).To(ContainRecord(expected), "Expected the catalogue to list the book")
}

// VerifyBookAbsence verifies no listed book has the given ID.
func VerifyBookAbsence(client *APIClient, ctx context.Context, bookID int) {
	books, err := client.ListBooks(ctx, nil)
	Expect(err).NotTo(HaveOccurred())
	Expect(books).NotTo(ContainRecord(record.Record{"id": bookID}), "Expected book %d to be deleted", bookID)
}

// IDOf extracts a numeric identifier from a response record.
func IDOf(r record.Record, field string) int {
	id, err := recordID(r, field)
	Expect(err).NotTo(HaveOccurred())

	return id
}
