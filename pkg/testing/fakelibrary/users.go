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
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/nscaledev/uni-library-contract/pkg/openapi"
)

type accountView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Role     Role   `json:"account_role"`
	IsActive bool   `json:"is_active"`
}

func (a *account) view() accountView {
	return accountView{
		ID:       a.id,
		Name:     a.name,
		CPF:      a.cpf,
		Phone:    a.phone,
		Email:    a.email,
		Role:     a.role,
		IsActive: a.active,
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := decode(r, &request); err != nil || request.Email == "" || request.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid login input")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for _, a := range s.accounts {
		if !strings.EqualFold(a.email, request.Email) || a.password != request.Password {
			continue
		}

		if !a.active {
			writeError(w, http.StatusUnauthorized, "user is not active")
			return
		}

		token, err := s.IssueToken(a.id, a.role.Name, s.now().Add(tokenLifetime))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, token)

		return
	}

	writeError(w, http.StatusUnauthorized, "invalid email or password")
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name     string      `json:"name"`
		CPF      openapi.CPF `json:"cpf"`
		Phone    string      `json:"phone"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		RoleID   int         `json:"role_id"`
	}

	if err := decode(r, &request); err != nil {
		if errors.Is(err, openapi.ErrInvalidCPF) {
			writeError(w, http.StatusBadRequest, "Invalid cpf input")
			return
		}

		writeError(w, http.StatusBadRequest, "Invalid registration input")

		return
	}

	if request.Name == "" || request.CPF.Value == "" || request.Phone == "" || request.Email == "" || request.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid registration input")
		return
	}

	i := slices.IndexFunc(Roles(), func(role Role) bool {
		return role.ID == request.RoleID
	})

	if i < 0 {
		writeError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.email, request.Email) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}

		if a.cpf == request.CPF.Value {
			writeError(w, http.StatusConflict, "cpf already registered")
			return
		}
	}

	a := &account{
		name:     request.Name,
		cpf:      request.CPF.Value,
		phone:    request.Phone,
		email:    request.Email,
		password: request.Password,
		role:     Roles()[i],
		active:   true,
	}

	s.addAccount(a)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user_id": a.id,
	})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")

	s.lock.Lock()
	defer s.lock.Unlock()

	out := []accountView{}

	for _, id := range slices.Sorted(maps.Keys(s.accounts)) {
		a := s.accounts[id]

		if contains(a.name, name) && contains(a.email, email) {
			out = append(out, a.view())
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, a.view())
}

func (s *Server) toggleUser(active bool) http.HandlerFunc {
	message := "User has been successfully deactivated"
	if active {
		message = "User has been successfully activated"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid user id")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()

		a, ok := s.accounts[id]
		if !ok {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}

		a.active = active

		writeMessage(w, message)
	}
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.accounts[id]; !ok {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	delete(s.accounts, id)

	writeMessage(w, "User has been successfully deleted")
}
