/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"encoding/json"
	"net/http"

	"server/internal/service"

	"github.com/gorilla/sessions"
)

type credentialFields struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthHandler struct {
	authService service.AuthService
	cookieStore sessions.Store
}

func NewAuthHandler(authService service.AuthService, cookieStore sessions.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieStore: cookieStore,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request credentialFields
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Error occurred while parsing the request body", http.StatusBadRequest)
		return
	}
	if request.Username == "" || request.Email == "" || request.Password == "" {
		http.Error(w, "Username, email and password are all required", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Register(request.Username, request.Email, request.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":   user,
		"status": "success",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request credentialFields
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Error occurred while parsing the request body", http.StatusBadRequest)
		return
	}

	user, err := h.authService.Login(request.Username, request.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	session, _ := h.cookieStore.Get(r, "auth-session")
	session.Values["user_uuid"] = user.UUID
	session.Values["username"] = user.Username
	if err := sessions.Save(r, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user":   user,
		"status": "success",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.cookieStore.Get(r, "auth-session")
	session.Options.MaxAge = -1
	if err := sessions.Save(r, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
