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
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/nscaledev/uni-library-contract/pkg/openapi"
	"github.com/nscaledev/uni-library-contract/pkg/record"
)

// The catalogue below is seeded by the service's migrations and is expected
// to be identical in every deployment.
const (
	// AuthorID is the author every generated book is attributed to.
	AuthorID = 2

	// RoleAdminID and RoleUserID identify the account roles.
	RoleAdminID = 1
	RoleUserID  = 2

	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Stock, reservation and loan states.
const (
	StockAvailable = "available"
	StockBorrowed  = "borrowed"
	StockMissing   = "missing"

	ReservationPending   = "pending"
	ReservationCollected = "collected"

	LoanBorrowed = "borrowed"
	LoanReturned = "returned"
)

// Confirmation messages returned by mutating endpoints.
const (
	MessageBookUpdated     = "Book updated successfully"
	MessageBookDeleted     = "Book deleted successfully"
	MessageStockAdded      = "Book stock added"
	MessageStockRemoved    = "Book stock removed"
	MessageStockStatus     = "Book stock status updated"
	MessageLoanFinished    = "loan updated successfully"
	MessageUserRegistered  = "User registered successfully"
	MessageUserActivated   = "User has been successfully activated"
	MessageUserDeactivated = "User has been successfully deactivated"
	MessageUserDeleted     = "User has been successfully deleted"
)

const (
	// DefaultBorrowPeriodDays is the shortest loan a reservation may request.
	DefaultBorrowPeriodDays = 30

	passwordBytes = 12
)

// Author is the expected shape of the fixture author.
func Author() record.Record {
	return record.Record{
		"id":   AuthorID,
		"name": "José",
	}
}

// GenreIDs are the identifiers of every seeded genre.
func GenreIDs() []int {
	return []int{1, 2, 3, 4, 5}
}

// Genres is the expected shape of every seeded genre, in identifier order.
func Genres() []any {
	return []any{
		record.Record{"id": 1, "name": "Romance"},
		record.Record{"id": 2, "name": "Aventura"},
		record.Record{"id": 3, "name": "Mistério"},
		record.Record{"id": 4, "name": "Fantasia"},
		record.Record{"id": 5, "name": "Ficção Científica"},
	}
}

// UserRole is the expected shape of the role assigned to readers.
func UserRole() record.Record {
	return record.Record{
		"id":   RoleUserID,
		"name": RoleUser,
	}
}

func randomHex(n int) string {
	bytes := make([]byte, n)

	//nolint:errcheck
	rand.Read(bytes)

	return hex.EncodeToString(bytes)
}

func randomInt(limit int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(limit))
	if err != nil {
		panic(err)
	}

	return n.Int64()
}

// UniqueName returns a name unlikely to collide with anything already held
// by a shared service.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, randomHex(4))
}

// UniqueEmail returns an address for a freshly registered account.
func UniqueEmail() string {
	return UniqueName("reader") + "@library.test"
}

// UniquePassword returns a throwaway password.
func UniquePassword() string {
	return randomHex(passwordBytes)
}

// UniqueCode returns a six digit stock code.
func UniqueCode() int {
	return int(100000 + randomInt(900000))
}

// UniqueCodes returns n distinct stock codes.
func UniqueCodes(n int) []int {
	seen := map[int]bool{}
	out := make([]int, 0, n)

	for len(out) < n {
		if code := UniqueCode(); !seen[code] {
			seen[code] = true

			out = append(out, code)
		}
	}

	return out
}

// RandomCPF returns a valid, randomly generated taxpayer number.
func RandomCPF() string {
	for {
		var base strings.Builder

		for range 9 {
			base.WriteByte(byte('0' + randomInt(10)))
		}

		if cpf, err := openapi.CompleteCPF(base.String()); err == nil {
			return cpf
		}
	}
}

// RandomPhone returns an eleven digit mobile number.
func RandomPhone() string {
	return fmt.Sprintf("119%08d", randomInt(100000000))
}
