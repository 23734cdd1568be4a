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
	"fmt"
	"net/url"
	"strings"
)

// Endpoints contains all API endpoint patterns.  Identifiers may be literal
// values or run context placeholders, the latter are left unescaped so they
// can be resolved when a step runs.
type Endpoints struct{}

// NewEndpoints creates a new Endpoints instance.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

func segment(id string) string {
	if strings.HasPrefix(id, "${") && strings.HasSuffix(id, "}") {
		return id
	}

	return url.PathEscape(id)
}

// Authentication endpoints.
func (e *Endpoints) Login() string {
	return "/api/v1/login"
}

func (e *Endpoints) Register() string {
	return "/api/v1/register"
}

// User management endpoints.
func (e *Endpoints) ListUsers() string {
	return "/api/v1/users/"
}

func (e *Endpoints) GetUser(userID string) string {
	return fmt.Sprintf("/api/v1/users/%s", segment(userID))
}

func (e *Endpoints) ActivateUser(userID string) string {
	return fmt.Sprintf("/api/v1/users/activate/%s", segment(userID))
}

func (e *Endpoints) DeactivateUser(userID string) string {
	return fmt.Sprintf("/api/v1/users/deactivate/%s", segment(userID))
}

func (e *Endpoints) DeleteUser(userID string) string {
	return fmt.Sprintf("/api/v1/users/delete/%s", segment(userID))
}

// Book catalogue endpoints.
func (e *Endpoints) ListBooks() string {
	return "/api/v1/books/"
}

func (e *Endpoints) CreateBook() string {
	return "/api/v1/books/create"
}

func (e *Endpoints) GetBook(bookID string) string {
	return fmt.Sprintf("/api/v1/books/%s", segment(bookID))
}

func (e *Endpoints) UpdateBook(bookID string) string {
	return fmt.Sprintf("/api/v1/books/update/%s", segment(bookID))
}

func (e *Endpoints) DeleteBook(bookID string) string {
	return fmt.Sprintf("/api/v1/books/delete/%s", segment(bookID))
}

// Stock endpoints.
func (e *Endpoints) ListStock(bookID string) string {
	return fmt.Sprintf("/api/v1/books/%s/stock/", segment(bookID))
}

func (e *Endpoints) AddStock(bookID string) string {
	return fmt.Sprintf("/api/v1/books/%s/stock/add", segment(bookID))
}

func (e *Endpoints) UpdateStockStatus(bookID, stockID string) string {
	return fmt.Sprintf("/api/v1/books/%s/stock/update-status/%s",
		segment(bookID), segment(stockID))
}

func (e *Endpoints) RemoveStock(bookID, stockID string) string {
	return fmt.Sprintf("/api/v1/books/%s/stock/remove/%s",
		segment(bookID), segment(stockID))
}

// Circulation endpoints.
func (e *Endpoints) ListReservations() string {
	return "/api/v1/reservations/"
}

func (e *Endpoints) CreateReservation() string {
	return "/api/v1/reservations/create"
}

func (e *Endpoints) CreateLoan() string {
	return "/api/v1/loans/create"
}

func (e *Endpoints) FinishLoan(loanID string) string {
	return fmt.Sprintf("/api/v1/loans/finish-loan/%s", segment(loanID))
}

// Metadata endpoints.
func (e *Endpoints) OpenAPISpec() string {
	return "/api/v1/openapi.yaml"
}
