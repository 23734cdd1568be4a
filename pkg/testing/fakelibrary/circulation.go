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

package fakelibrary

import (
	"maps"
	"net/http"
	"slices"
	"time"

	"k8s.io/utils/ptr"
)

const (
	ReservationPending   = "pending"
	ReservationCollected = "collected"
	ReservationExpired   = "expired"
	ReservationCancelled = "cancelled"

	LoanBorrowed = "borrowed"
	LoanReturned = "returned"
)

// BorrowPeriods are the loan lengths, in days, a reservation may request.
func BorrowPeriods() []int {
	return []int{30, 60, 90}
}

type reservationView struct {
	ID           int    `json:"id"`
	ReservedAt   any    `json:"reserved_at"`
	ExpiresAt    any    `json:"expires_at"`
	Status       string `json:"status"`
	BorrowedDays int    `json:"borrowed_days"`
	UserID       int    `json:"fk_user_id"`
	BookID       int    `json:"fk_book_id"`
}

// reservationListView adds the fields only listings carry.
type reservationListView struct {
	reservationView

	AdminID  *int   `json:"fk_admin_id"`
	UserName string `json:"user_name"`
}

type loanView struct {
	ID            int        `json:"id"`
	LoanedAt      time.Time  `json:"loaned_at"`
	ReturnBy      time.Time  `json:"return_by"`
	ReturnedAt    *time.Time `json:"returned_at,omitempty"`
	Status        string     `json:"status"`
	AdminID       int        `json:"admin_id"`
	BookStockID   int        `json:"book_stock_id"`
	ReservationID int        `json:"reservation_id"`
}

// currentStatus reports pending reservations past their window as expired.
func (res *reservation) currentStatus(now time.Time) string {
	if res.status == ReservationPending && now.After(res.expiresAt) {
		return ReservationExpired
	}

	return res.status
}

func (l *loan) view() loanView {
	return loanView{
		ID:            l.id,
		LoanedAt:      l.loanedAt,
		ReturnBy:      l.returnBy,
		ReturnedAt:    l.returnedAt,
		Status:        l.status,
		AdminID:       l.adminID,
		BookStockID:   l.stockID,
		ReservationID: l.reservationID,
	}
}

// checkEligibility enforces the borrowing rules for an account.  The caller
// must hold the lock.
func (s *Server) checkEligibility(accountID int) (int, string) {
	a, ok := s.accounts[accountID]
	if !ok || !a.active {
		return http.StatusBadRequest, "user is not active"
	}

	now := s.now()
	active := 0

	for _, l := range s.loans {
		if l.status != LoanBorrowed {
			continue
		}

		res, ok := s.reservations[l.reservationID]
		if !ok || res.userID != accountID {
			continue
		}

		if l.returnBy.Before(now) {
			return http.StatusConflict, "user has overdue loans"
		}

		active++
	}

	for _, res := range s.reservations {
		if res.userID == accountID && res.currentStatus(now) == ReservationPending {
			active++
		}
	}

	if active >= maxActive {
		return http.StatusConflict, "user already has 5 or more active reservations/loans"
	}

	return 0, ""
}

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var request struct {
		BookID       int `json:"book_id"`
		BorrowedDays int `json:"borrowed_days"`
	}

	if err := decode(r, &request); err != nil || request.BookID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid data")
		return
	}

	if !slices.Contains(BorrowPeriods(), request.BorrowedDays) {
		writeError(w, http.StatusBadRequest, "borrowed days must be 30, 60, or 90")
		return
	}

	p := principalFrom(r.Context())

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.books[request.BookID]; !ok {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}

	if status, message := s.checkEligibility(p.accountID); status != 0 {
		writeError(w, status, message)
		return
	}

	now := s.now().UTC().Truncate(time.Microsecond)

	res := &reservation{
		id:           s.nextID("reservation"),
		reservedAt:   now,
		expiresAt:    now.Add(reservationWindow),
		borrowedDays: request.BorrowedDays,
		status:       ReservationPending,
		userID:       p.accountID,
		bookID:       request.BookID,
	}

	s.reservations[res.id] = res

	writeJSON(w, http.StatusCreated, reservationView{
		ID:           res.id,
		ReservedAt:   res.reservedAt,
		ExpiresAt:    res.expiresAt,
		Status:       res.status,
		BorrowedDays: res.borrowedDays,
		UserID:       res.userID,
		BookID:       res.bookID,
	})
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userName := query.Get("user_name")
	status := query.Get("status")

	var reservedAt *time.Time

	if param := query.Get("reserved_at"); param != "" {
		t, err := time.Parse(time.DateOnly, param)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid reserved_at filter")
			return
		}

		reservedAt = &t
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()

	out := []reservationListView{}

	for _, id := range slices.Sorted(maps.Keys(s.reservations)) {
		res := s.reservations[id]

		var name string

		if a, ok := s.accounts[res.userID]; ok {
			name = a.name
		}

		current := res.currentStatus(now)

		if !contains(name, userName) || (status != "" && current != status) {
			continue
		}

		if reservedAt != nil && res.reservedAt.UTC().Format(time.DateOnly) != reservedAt.Format(time.DateOnly) {
			continue
		}

		out = append(out, reservationListView{
			reservationView: reservationView{
				ID:           res.id,
				ReservedAt:   listTimestamp(res.reservedAt),
				ExpiresAt:    listTimestamp(res.expiresAt),
				Status:       current,
				BorrowedDays: res.borrowedDays,
				UserID:       res.userID,
				BookID:       res.bookID,
			},
			AdminID:  res.adminID,
			UserName: name,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

//nolint:cyclop
func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	var request struct {
		BookStockID   int `json:"book_stock_id"`
		ReservationID int `json:"reservation_id"`
	}

	if err := decode(r, &request); err != nil || request.BookStockID <= 0 || request.ReservationID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := principalFrom(r.Context())

	s.lock.Lock()
	defer s.lock.Unlock()

	res, ok := s.reservations[request.ReservationID]
	if !ok {
		writeError(w, http.StatusNotFound, "reservation not found or invalid")
		return
	}

	if res.status != ReservationPending {
		writeError(w, http.StatusBadRequest, "reservation is not pending")
		return
	}

	now := s.now().UTC().Truncate(time.Microsecond)

	if res.expiresAt.Before(now.Add(-collectionGrace)) {
		writeError(w, http.StatusBadRequest, "reservation has expired")
		return
	}

	st, ok := s.stock[request.BookStockID]
	if !ok {
		writeError(w, http.StatusNotFound, "book stock not found")
		return
	}

	if st.bookID != res.bookID {
		writeError(w, http.StatusBadRequest, "book stock does not belong to the reserved book")
		return
	}

	if st.status != StockAvailable {
		writeError(w, http.StatusBadRequest, "book stock is not available")
		return
	}

	res.status = ReservationCollected
	res.adminID = ptr.To(p.accountID)
	st.status = StockBorrowed

	l := &loan{
		id:            s.nextID("loan"),
		loanedAt:      now,
		returnBy:      now.AddDate(0, 0, res.borrowedDays),
		status:        LoanBorrowed,
		adminID:       p.accountID,
		stockID:       st.id,
		reservationID: res.id,
	}

	s.loans[l.id] = l

	writeJSON(w, http.StatusCreated, l.view())
}

func (s *Server) finishLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid loan ID")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	l, ok := s.loans[id]
	if !ok {
		writeError(w, http.StatusNotFound, "loan not found")
		return
	}

	if l.status != LoanBorrowed {
		writeError(w, http.StatusBadRequest, "loan is not borrowed")
		return
	}

	now := s.now().UTC().Truncate(time.Microsecond)

	l.status = LoanReturned
	l.returnedAt = ptr.To(now)

	if st, ok := s.stock[l.stockID]; ok {
		st.status = StockAvailable
	}

	writeMessage(w, "loan updated successfully")
}
