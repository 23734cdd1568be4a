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
	"strconv"
	"strings"
)

const (
	StockAvailable = "available"
	StockBorrowed  = "borrowed"
	StockMissing   = "missing"
)

type stockView struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Code   int    `json:"code"`
	BookID int    `json:"book_id"`
}

type bookView struct {
	ID       int          `json:"id"`
	Title    string       `json:"title"`
	Synopsis string       `json:"synopsis"`
	Amount   int          `json:"amount"`
	Stock    *[]stockView `json:"stock"`
	Author   *Author      `json:"author"`
	Genres   []Genre      `json:"genres"`
}

func (st *stock) view() stockView {
	return stockView{
		ID:     st.id,
		Status: st.status,
		Code:   st.code,
		BookID: st.bookID,
	}
}

func findAuthor(id int) (*Author, bool) {
	for _, a := range Authors() {
		if a.ID == id {
			return &a, true
		}
	}

	return nil, false
}

func findGenres(ids []int) ([]Genre, bool) {
	catalogue := Genres()

	out := make([]Genre, 0, len(ids))

	for _, id := range ids {
		i := slices.IndexFunc(catalogue, func(g Genre) bool {
			return g.ID == id
		})

		if i < 0 {
			return nil, false
		}

		out = append(out, catalogue[i])
	}

	return out, true
}

// bookStock returns the copies of a book in identifier order.
func (s *Server) bookStock(bookID int) []*stock {
	var out []*stock

	for _, id := range slices.Sorted(maps.Keys(s.stock)) {
		if st := s.stock[id]; st.bookID == bookID {
			out = append(out, st)
		}
	}

	return out
}

// viewBook renders a book.  Listings present genres in reverse order.
func (s *Server) viewBook(b *book, listing bool) bookView {
	author, _ := findAuthor(b.authorID)

	genres, _ := findGenres(b.genreIDs)

	if listing {
		slices.Reverse(genres)
	}

	view := bookView{
		ID:       b.id,
		Title:    b.title,
		Synopsis: b.synopsis,
		Amount:   b.amount,
		Author:   author,
		Genres:   genres,
	}

	if copies := s.bookStock(b.id); len(copies) > 0 {
		views := make([]stockView, len(copies))

		for i, st := range copies {
			views[i] = st.view()
		}

		view.Stock = &views
	}

	return view
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title     string `json:"title"`
		Synopsis  string `json:"synopsis"`
		BookCodes []int  `json:"book_codes"`
		AuthorID  int    `json:"author_id"`
		GenreIDs  []int  `json:"genre_ids"`
	}

	if err := decode(r, &request); err != nil || request.Title == "" || request.Synopsis == "" || request.AuthorID == 0 {
		writeError(w, http.StatusBadRequest, "Invalid book creation input")
		return
	}

	if _, ok := findAuthor(request.AuthorID); !ok {
		writeError(w, http.StatusBadRequest, "author not found")
		return
	}

	genreIDs := slices.Compact(slices.Sorted(slices.Values(request.GenreIDs)))

	if _, ok := findGenres(genreIDs); !ok {
		writeError(w, http.StatusBadRequest, "genre not found")
		return
	}

	if len(slices.Compact(slices.Sorted(slices.Values(request.BookCodes)))) != len(request.BookCodes) {
		writeError(w, http.StatusBadRequest, "duplicate book codes")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	b := &book{
		id:       s.nextID("book"),
		title:    request.Title,
		synopsis: request.Synopsis,
		amount:   len(request.BookCodes),
		authorID: request.AuthorID,
		genreIDs: genreIDs,
	}

	s.books[b.id] = b

	for _, code := range request.BookCodes {
		st := &stock{
			id:     s.nextID("stock"),
			status: StockAvailable,
			code:   code,
			bookID: b.id,
		}

		s.stock[st.id] = st
	}

	writeJSON(w, http.StatusCreated, s.viewBook(b, false))
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	title := query.Get("title")
	author := query.Get("author")

	var genreIDs []int

	if genres := query.Get("genres"); genres != "" {
		for _, field := range strings.Split(genres, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid genres filter")
				return
			}

			genreIDs = append(genreIDs, id)
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	out := []bookView{}

	for _, id := range slices.Sorted(maps.Keys(s.books)) {
		b := s.books[id]

		a, _ := findAuthor(b.authorID)

		if !contains(b.title, title) || !contains(a.Name, author) {
			continue
		}

		if slices.ContainsFunc(genreIDs, func(id int) bool { return !slices.Contains(b.genreIDs, id) }) {
			continue
		}

		out = append(out, s.viewBook(b, true))
	}

	writeJSON(w, http.StatusOK, out)
}

// lookupBook resolves the book path parameter, writing an error on failure.
// The caller must hold the lock.
func (s *Server) lookupBook(w http.ResponseWriter, r *http.Request) (*book, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid book Id")
		return nil, false
	}

	b, ok := s.books[id]
	if !ok {
		writeError(w, http.StatusNotFound, "book not found")
		return nil, false
	}

	return b, true
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.lookupBook(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.viewBook(b, false))
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title    string `json:"title"`
		Synopsis string `json:"synopsis"`
		Amount   *int   `json:"amount"`
		AuthorID int    `json:"author_id"`
	}

	if err := decode(r, &request); err != nil || request.Title == "" || request.Synopsis == "" || request.AuthorID == 0 || (request.Amount != nil && *request.Amount < 0) {
		writeError(w, http.StatusBadRequest, "Invalid book update input")
		return
	}

	if _, ok := findAuthor(request.AuthorID); !ok {
		writeError(w, http.StatusBadRequest, "author not found")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.lookupBook(w, r)
	if !ok {
		return
	}

	b.title = request.Title
	b.synopsis = request.Synopsis
	b.authorID = request.AuthorID

	if request.Amount != nil {
		b.amount = *request.Amount
	}

	writeMessage(w, "Book updated successfully")
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.lookupBook(w, r)
	if !ok {
		return
	}

	copies := s.bookStock(b.id)

	if slices.ContainsFunc(copies, func(st *stock) bool { return st.status == StockBorrowed }) {
		writeError(w, http.StatusConflict, "book has copies on loan")
		return
	}

	for _, st := range copies {
		delete(s.stock, st.id)
	}

	for _, res := range s.reservations {
		if res.bookID == b.id && res.status == ReservationPending {
			res.status = ReservationCancelled
		}
	}

	delete(s.books, b.id)

	writeMessage(w, "Book deleted successfully")
}

func (s *Server) listStock(w http.ResponseWriter, r *http.Request) {
	code := -1

	if param := r.URL.Query().Get("code"); param != "" {
		c, err := strconv.Atoi(param)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid stock code")
			return
		}

		code = c
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.lookupBook(w, r)
	if !ok {
		return
	}

	out := []stockView{}

	for _, st := range s.bookStock(b.id) {
		if code < 0 || st.code == code {
			out = append(out, st.view())
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addStock(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Code *int `json:"code"`
	}

	if err := decode(r, &request); err != nil || request.Code == nil || *request.Code < 0 {
		writeError(w, http.StatusBadRequest, "Invalid book stock input")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	b, ok := s.lookupBook(w, r)
	if !ok {
		return
	}

	if slices.ContainsFunc(s.bookStock(b.id), func(st *stock) bool { return st.code == *request.Code }) {
		writeError(w, http.StatusConflict, "book stock code already exists")
		return
	}

	st := &stock{
		id:     s.nextID("stock"),
		status: StockAvailable,
		code:   *request.Code,
		bookID: b.id,
	}

	s.stock[st.id] = st
	b.amount++

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Book stock added",
		"book_stock_id": st.id,
	})
}

// lookupStock resolves a copy of the book in the path.  The caller must hold
// the lock.
func (s *Server) lookupStock(w http.ResponseWriter, r *http.Request) (*book, *stock, bool) {
	b, ok := s.lookupBook(w, r)
	if !ok {
		return nil, nil, false
	}

	id, ok := pathID(r, "stockId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid stock Id")
		return nil, nil, false
	}

	st, ok := s.stock[id]
	if !ok || st.bookID != b.id {
		writeError(w, http.StatusNotFound, "book stock not found")
		return nil, nil, false
	}

	return b, st, true
}

func (s *Server) updateStockStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Status string `json:"status"`
	}

	if err := decode(r, &request); err != nil || !slices.Contains([]string{StockAvailable, StockBorrowed, StockMissing}, request.Status) {
		writeError(w, http.StatusBadRequest, "Invalid book stock status")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	_, st, ok := s.lookupStock(w, r)
	if !ok {
		return
	}

	st.status = request.Status

	writeMessage(w, "Book stock status updated")
}

func (s *Server) removeStock(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	b, st, ok := s.lookupStock(w, r)
	if !ok {
		return
	}

	if st.status == StockBorrowed {
		writeError(w, http.StatusConflict, "book stock is on loan")
		return
	}

	delete(s.stock, st.id)

	if b.amount > 0 {
		b.amount--
	}

	writeMessage(w, "Book stock removed")
}
