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

package library

import (
	"github.com/nscaledev/uni-library-contract/pkg/record"
	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

// BookPayloadBuilder builds book creation payloads.
type BookPayloadBuilder struct {
	title    string
	synopsis string
	authorID int
	genreIDs []int
	codes    []int
}

// NewBookPayload creates a builder for a uniquely titled book by the fixture
// author, in every genre, with two copies.
func NewBookPayload() *BookPayloadBuilder {
	return &BookPayloadBuilder{
		title:    UniqueName("book"),
		synopsis: "A book created by the contract suite",
		authorID: AuthorID,
		genreIDs: GenreIDs(),
		codes:    UniqueCodes(2),
	}
}

// WithTitle sets the book title.
func (b *BookPayloadBuilder) WithTitle(title string) *BookPayloadBuilder {
	b.title = title
	return b
}

// WithSynopsis sets the book synopsis.
func (b *BookPayloadBuilder) WithSynopsis(synopsis string) *BookPayloadBuilder {
	b.synopsis = synopsis
	return b
}

// WithAuthorID sets the author, zero omits it.
func (b *BookPayloadBuilder) WithAuthorID(id int) *BookPayloadBuilder {
	b.authorID = id
	return b
}

// WithGenreIDs replaces the genres.
func (b *BookPayloadBuilder) WithGenreIDs(ids ...int) *BookPayloadBuilder {
	b.genreIDs = ids
	return b
}

// WithCodes replaces the initial copies, none creates a book with no stock.
func (b *BookPayloadBuilder) WithCodes(codes ...int) *BookPayloadBuilder {
	b.codes = codes
	return b
}

func (b *BookPayloadBuilder) Title() string {
	return b.title
}

func (b *BookPayloadBuilder) Codes() []int {
	return b.codes
}

// Build returns the request body.
func (b *BookPayloadBuilder) Build() record.Record {
	payload := record.Record{
		"title":      b.title,
		"synopsis":   b.synopsis,
		"book_codes": intsToAny(b.codes),
		"genre_ids":  intsToAny(b.genreIDs),
	}

	if b.authorID != 0 {
		payload["author_id"] = b.authorID
	}

	return payload
}

// Expected returns the shape a created book is expected to have.
func (b *BookPayloadBuilder) Expected() record.Record {
	expected := record.Record{
		"title":    b.title,
		"synopsis": b.synopsis,
		"amount":   len(b.codes),
	}

	if b.authorID == AuthorID {
		expected["author"] = Author()
	}

	genres := Genres()

	expectedGenres := []any{}

	for _, id := range b.genreIDs {
		if id > 0 && id <= len(genres) {
			expectedGenres = append(expectedGenres, genres[id-1])
		}
	}

	expected["genres"] = expectedGenres

	if len(b.codes) > 0 {
		stock := make([]any, len(b.codes))

		for i, code := range b.codes {
			stock[i] = record.Record{
				"code":   code,
				"status": StockAvailable,
			}
		}

		expected["stock"] = stock
	}

	return expected
}

// BookUpdatePayload is the body of a book update.
func BookUpdatePayload(title, synopsis string, amount int) record.Record {
	return record.Record{
		"title":     title,
		"synopsis":  synopsis,
		"amount":    amount,
		"author_id": AuthorID,
	}
}

// StockPayload is the body that adds a copy to a book.
func StockPayload(code int) record.Record {
	return record.Record{
		"code": code,
	}
}

// StockStatusPayload is the body that changes a copy's state.
func StockStatusPayload(status string) record.Record {
	return record.Record{
		"status": status,
	}
}

// ReservationPayload is the body of a reservation, bookID may be a literal
// identifier or a context reference.
func ReservationPayload(bookID any, days int) record.Record {
	return record.Record{
		"book_id":       bookID,
		"borrowed_days": days,
	}
}

// LoanPayload is the body of a loan, the identifiers may be literals or
// context references.
func LoanPayload(stockID, reservationID any) record.Record {
	return record.Record{
		"book_stock_id":  stockID,
		"reservation_id": reservationID,
	}
}

// UserPayloadBuilder builds registration payloads.
type UserPayloadBuilder struct {
	name     string
	cpf      string
	phone    string
	email    string
	password string
	roleID   int
}

// NewUserPayload creates a builder for a unique reader account.
func NewUserPayload() *UserPayloadBuilder {
	return &UserPayloadBuilder{
		name:     UniqueName("reader"),
		cpf:      RandomCPF(),
		phone:    RandomPhone(),
		email:    UniqueEmail(),
		password: UniquePassword(),
		roleID:   RoleUserID,
	}
}

// WithName sets the account holder's name.
func (b *UserPayloadBuilder) WithName(name string) *UserPayloadBuilder {
	b.name = name
	return b
}

// WithCPF sets the taxpayer number, which need not be valid.
func (b *UserPayloadBuilder) WithCPF(cpf string) *UserPayloadBuilder {
	b.cpf = cpf
	return b
}

// WithEmail sets the login address.
func (b *UserPayloadBuilder) WithEmail(email string) *UserPayloadBuilder {
	b.email = email
	return b
}

// WithRoleID sets the account role.
func (b *UserPayloadBuilder) WithRoleID(id int) *UserPayloadBuilder {
	b.roleID = id
	return b
}

func (b *UserPayloadBuilder) Name() string {
	return b.name
}

func (b *UserPayloadBuilder) Email() string {
	return b.email
}

// Credentials returns what the new account logs in with.
func (b *UserPayloadBuilder) Credentials() scenario.Credentials {
	return scenario.Credentials{
		Email:    b.email,
		Password: b.password,
	}
}

// Build returns the request body.
func (b *UserPayloadBuilder) Build() record.Record {
	return record.Record{
		"name":     b.name,
		"cpf":      b.cpf,
		"phone":    b.phone,
		"email":    b.email,
		"password": b.password,
		"role_id":  b.roleID,
	}
}

// Expected returns the shape a listed account is expected to have.  The
// password is never returned.
func (b *UserPayloadBuilder) Expected() record.Record {
	expected := record.Record{
		"name":      b.name,
		"cpf":       b.cpf,
		"phone":     b.phone,
		"email":     b.email,
		"is_active": true,
	}

	if b.roleID == RoleUserID {
		expected["account_role"] = UserRole()
	}

	return expected
}

func intsToAny(in []int) []any {
	out := make([]any, len(in))

	for i := range in {
		out[i] = in[i]
	}

	return out
}
