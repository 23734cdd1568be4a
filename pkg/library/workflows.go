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

package library

import (
	"net/http"

	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

const (
	BookLifecycleName            = "book-lifecycle"
	ReservationLoanLifecycleName = "reservation-loan-lifecycle"
	UserLifecycleName            = "user-lifecycle"
)

// Context keys written by the built in workflows.
const (
	KeyBookID        = "bookId"
	KeyStockID       = "stockId"
	KeyReservationID = "reservationId"
	KeyReservedAt    = "reservedAt"
	KeyExpiresAt     = "expiresAt"
	KeyLoanID        = "loanId"
	KeyUserID        = "userId"
)

func message(text string) record.Record {
	return record.Record{
		"message": text,
	}
}

func mustQuery(q Querier) map[string]string {
	query, err := QueryMap(q)
	if err != nil {
		panic(err)
	}

	return query
}

// BookLifecycle creates a book, reads it back from the catalogue, updates it,
// adds and removes a copy and finally deletes it.  Every call generates fresh
// titles and codes so runs never collide.
func BookLifecycle() *scenario.Scenario {
	e := NewEndpoints()

	codes := UniqueCodes(3)

	book := NewBookPayload().WithCodes(codes[:2]...)

	updatedTitle := book.Title() + "-updated"
	updatedSynopsis := "An updated synopsis"
	updatedAmount := 5

	code := codes[2]

	bookID := scenario.Ref(KeyBookID)
	stockID := scenario.Ref(KeyStockID)

	listed := book.Expected()
	listed["id"] = bookID
	delete(listed, "stock")

	return &scenario.Scenario{
		Name:        BookLifecycleName,
		Description: "Create, read, update, restock and delete a book",
		Steps: []scenario.Step{
			{
				Name: "create-book",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.CreateBook(),
					Body:   book.Build(),
				},
				Expect: scenario.Expectation{
					Status: http.StatusCreated,
					Body:   book.Expected(),
				},
				Extract: map[string]string{
					KeyBookID: "id",
				},
			},
			{
				Name: "list-books",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.ListBooks(),
					Query:  mustQuery(&BookFilter{Title: book.Title()}),
				},
				Expect: scenario.Expectation{
					Status:   http.StatusOK,
					Contains: listed,
				},
			},
			{
				Name: "update-book",
				Request: scenario.Request{
					Method: http.MethodPut,
					Path:   e.UpdateBook(bookID),
					Body:   BookUpdatePayload(updatedTitle, updatedSynopsis, updatedAmount),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageBookUpdated),
				},
			},
			{
				Name: "get-updated-book",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.GetBook(bookID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body: record.Record{
						"id":       bookID,
						"title":    updatedTitle,
						"synopsis": updatedSynopsis,
						"amount":   updatedAmount,
						"author":   Author(),
					},
				},
			},
			{
				Name: "add-stock",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.AddStock(bookID),
					Body:   StockPayload(code),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageStockAdded),
				},
				Extract: map[string]string{
					KeyStockID: "book_stock_id",
				},
			},
			{
				Name: "list-stock",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.ListStock(bookID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Contains: record.Record{
						"id":      stockID,
						"code":    code,
						"status":  StockAvailable,
						"book_id": bookID,
					},
				},
			},
			{
				Name: "remove-stock",
				Request: scenario.Request{
					Method: http.MethodDelete,
					Path:   e.RemoveStock(bookID, stockID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageStockRemoved),
				},
			},
			{
				Name: "delete-book",
				Request: scenario.Request{
					Method: http.MethodDelete,
					Path:   e.DeleteBook(bookID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageBookDeleted),
				},
			},
		},
	}
}

// ReservationLoanLifecycle reserves a freshly stocked book, lends the copy
// against the reservation, returns it and deletes the book.
func ReservationLoanLifecycle() *scenario.Scenario {
	e := NewEndpoints()

	book := NewBookPayload().WithCodes()
	code := UniqueCode()

	bookID := scenario.Ref(KeyBookID)
	stockID := scenario.Ref(KeyStockID)
	reservationID := scenario.Ref(KeyReservationID)
	loanID := scenario.Ref(KeyLoanID)

	return &scenario.Scenario{
		Name:        ReservationLoanLifecycleName,
		Description: "Reserve a book, lend the copy and return it",
		Steps: []scenario.Step{
			{
				Name: "create-book",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.CreateBook(),
					Body:   book.Build(),
				},
				Expect: scenario.Expectation{
					Status: http.StatusCreated,
					Body:   book.Expected(),
				},
				Extract: map[string]string{
					KeyBookID: "id",
				},
			},
			{
				Name: "add-stock",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.AddStock(bookID),
					Body:   StockPayload(code),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageStockAdded),
				},
				Extract: map[string]string{
					KeyStockID: "book_stock_id",
				},
			},
			{
				Name: "create-reservation",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.CreateReservation(),
					Body:   ReservationPayload(bookID, DefaultBorrowPeriodDays),
				},
				Expect: scenario.Expectation{
					Status: http.StatusCreated,
					Body: record.Record{
						"status":        ReservationPending,
						"borrowed_days": DefaultBorrowPeriodDays,
						"fk_book_id":    bookID,
					},
				},
				Extract: map[string]string{
					KeyReservationID: "id",
					KeyReservedAt:    "reserved_at",
					KeyExpiresAt:     "expires_at",
				},
			},
			{
				Name: "list-reservations",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.ListReservations(),
					Query:  mustQuery(&ReservationFilter{Status: ReservationPending}),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Contains: record.Record{
						"id":            reservationID,
						"status":        ReservationPending,
						"borrowed_days": DefaultBorrowPeriodDays,
						"fk_book_id":    bookID,
						"reserved_at":   scenario.Ref(KeyReservedAt),
						"expires_at":    scenario.Ref(KeyExpiresAt),
					},
				},
			},
			{
				Name: "create-loan",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.CreateLoan(),
					Body:   LoanPayload(stockID, reservationID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusCreated,
					Body: record.Record{
						"status":         LoanBorrowed,
						"book_stock_id":  stockID,
						"reservation_id": reservationID,
					},
				},
				Extract: map[string]string{
					KeyLoanID: "id",
				},
			},
			{
				Name: "finish-loan",
				Request: scenario.Request{
					Method: http.MethodPut,
					Path:   e.FinishLoan(loanID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageLoanFinished),
				},
			},
			{
				Name: "delete-book",
				Request: scenario.Request{
					Method: http.MethodDelete,
					Path:   e.DeleteBook(bookID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageBookDeleted),
				},
			},
		},
	}
}

// UserLifecycle registers a reader, finds it in the user listing, toggles its
// activation and deletes it.
func UserLifecycle() *scenario.Scenario {
	e := NewEndpoints()

	user := NewUserPayload()

	userID := scenario.Ref(KeyUserID)

	listed := user.Expected()
	listed["id"] = userID

	deactivated := user.Expected()
	deactivated["id"] = userID
	deactivated["is_active"] = false

	return &scenario.Scenario{
		Name:        UserLifecycleName,
		Description: "Register, activate, deactivate and delete a reader",
		Steps: []scenario.Step{
			{
				Name: "create-user",
				Request: scenario.Request{
					Method: http.MethodPost,
					Path:   e.Register(),
					Body:   user.Build(),
				},
				Expect: scenario.Expectation{
					Status: http.StatusCreated,
					Body:   message(MessageUserRegistered),
				},
				Extract: map[string]string{
					KeyUserID: "user_id",
				},
			},
			{
				Name: "list-users",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.ListUsers(),
					Query:  mustQuery(&UserFilter{Email: user.Email()}),
				},
				Expect: scenario.Expectation{
					Status:   http.StatusOK,
					Contains: listed,
				},
			},
			{
				Name: "activate-user",
				Request: scenario.Request{
					Method: http.MethodPut,
					Path:   e.ActivateUser(userID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageUserActivated),
				},
			},
			{
				Name: "deactivate-user",
				Request: scenario.Request{
					Method: http.MethodPut,
					Path:   e.DeactivateUser(userID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageUserDeactivated),
				},
			},
			{
				Name: "get-deactivated-user",
				Request: scenario.Request{
					Method: http.MethodGet,
					Path:   e.GetUser(userID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   deactivated,
				},
			},
			{
				Name: "delete-user",
				Request: scenario.Request{
					Method: http.MethodDelete,
					Path:   e.DeleteUser(userID),
				},
				Expect: scenario.Expectation{
					Status: http.StatusOK,
					Body:   message(MessageUserDeleted),
				},
			},
		},
	}
}

// Workflows returns freshly generated instances of every built in workflow.
func Workflows() []*scenario.Scenario {
	return []*scenario.Scenario{
		BookLifecycle(),
		ReservationLoanLifecycle(),
		UserLifecycle(),
	}
}

// WorkflowNames lists the built in workflows.
func WorkflowNames() []string {
	return []string{
		BookLifecycleName,
		ReservationLoanLifecycleName,
		UserLifecycleName,
	}
}

// Workflow returns a fresh instance of the named built in workflow.
func Workflow(name string) (*scenario.Scenario, bool) {
	switch name {
	case BookLifecycleName:
		return BookLifecycle(), true
	case ReservationLoanLifecycleName:
		return ReservationLoanLifecycle(), true
	case UserLifecycleName:
		return UserLifecycle(), true
	}

	return nil, false
}
