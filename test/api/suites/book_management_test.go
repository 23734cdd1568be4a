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

var _ = Describe("Book Catalogue Management", func() {
	Context("When creating a new book", func() {
		Describe("Given a valid book with two copies", func() {
			It("should return the author, genres and stock", func() {
				payload := library.NewBookPayload()

				book, bookID := api.CreateBookWithCleanup(client, ctx, payload)

				Expect(bookID).To(BeNumerically(">", 0))
				Expect(book).To(api.SatisfyShape(payload.Expected()))
			})

			It("should list the book in the catalogue", func() {
				payload := library.NewBookPayload()

				_, bookID := api.CreateBookWithCleanup(client, ctx, payload)

				expected := payload.Expected()
				expected["id"] = bookID
				delete(expected, "stock")

				api.VerifyBookPresence(client, ctx, &library.BookFilter{Title: payload.Title()}, expected)
			})

			It("should be found when filtering by genre", func() {
				payload := library.NewBookPayload().WithGenreIDs(2, 4)

				_, bookID := api.CreateBookWithCleanup(client, ctx, payload)

				api.VerifyBookPresence(client, ctx, &library.BookFilter{Genres: []int{4, 2}}, record.Record{"id": bookID})

				books, err := client.ListBooks(ctx, &library.BookFilter{Title: payload.Title(), Genres: []int{1}})
				Expect(err).NotTo(HaveOccurred())
				Expect(books).NotTo(api.ContainRecord(record.Record{"id": bookID}))
			})
		})

		Describe("Given an invalid book", func() {
			It("should reject a book without a title", func() {
				_, err := client.CreateBook(ctx, library.NewBookPayload().WithTitle("").Build())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})

			It("should reject a book without an author", func() {
				_, err := client.CreateBook(ctx, library.NewBookPayload().WithAuthorID(0).Build())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("400"))
			})
		})
	})

	Context("When updating a book", func() {
		Describe("Given the book exists", func() {
			It("should change the title, synopsis and amount", func() {
				payload := library.NewBookPayload()

				_, bookID := api.CreateBookWithCleanup(client, ctx, payload)

				title := "updated-" + api.GenerateTestID()

				Expect(client.UpdateBook(ctx, bookID, library.BookUpdatePayload(title, "Updated synopsis", 5))).To(Succeed())

				book, err := client.GetBook(ctx, bookID)
				Expect(err).NotTo(HaveOccurred())
				Expect(book).To(api.SatisfyShape(record.Record{
					"id":       bookID,
					"title":    title,
					"synopsis": "Updated synopsis",
					"amount":   5,
					"author":   library.Author(),
				}))
			})
		})

		Describe("Given the book does not exist", func() {
			It("should return not found", func() {
				err := client.UpdateBook(ctx, 987654321, library.BookUpdatePayload("Missing", "Missing", 1))

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("404"))
			})
		})
	})

	Context("When managing stock", func() {
		Describe("Given a book with no initial copies", func() {
			It("should add, list and remove a copy", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				stock, err := client.ListStock(ctx, fixture.BookID, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).To(api.ContainRecord(record.Record{
					"id":      fixture.StockID,
					"code":    fixture.Code,
					"status":  library.StockAvailable,
					"book_id": fixture.BookID,
				}))

				Expect(client.RemoveStock(ctx, fixture.BookID, fixture.StockID)).To(Succeed())

				stock, err = client.ListStock(ctx, fixture.BookID, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).NotTo(api.ContainRecord(record.Record{"id": fixture.StockID}))
			})

			It("should filter copies by code", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				other := library.UniqueCode()

				_, err := client.AddStock(ctx, fixture.BookID, other)
				Expect(err).NotTo(HaveOccurred())

				stock, err := client.ListStock(ctx, fixture.BookID, &library.StockFilter{Code: &fixture.Code})
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).To(HaveLen(1))
				Expect(stock[0]).To(api.SatisfyShape(record.Record{"id": fixture.StockID}))
			})

			It("should mark a copy as missing", func() {
				fixture := api.CreateStockedBookFixture(client, ctx)

				Expect(client.UpdateStockStatus(ctx, fixture.BookID, fixture.StockID, library.StockMissing)).To(Succeed())

				stock, err := client.ListStock(ctx, fixture.BookID, nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(stock).To(api.ContainRecord(record.Record{
					"id":     fixture.StockID,
					"status": library.StockMissing,
				}))
			})
		})
	})

	Context("When deleting a book", func() {
		Describe("Given the book exists", func() {
			It("should remove it from the catalogue", func() {
				book, err := client.CreateBook(ctx, library.NewBookPayload().Build())
				Expect(err).NotTo(HaveOccurred())

				bookID := api.IDOf(book, "id")

				Expect(client.DeleteBook(ctx, bookID)).To(Succeed())

				api.VerifyBookAbsence(client, ctx, bookID)

				_, err = client.GetBook(ctx, bookID)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("404"))
			})
		})
	})
})
