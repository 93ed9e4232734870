// internal/httpserver/routes_auth.go
//
// Authentication endpoints for puzzle authors.
//   - POST /auth/signup  {username,password} → create account, set cookie
//   - POST /auth/login   {username,password} → verify, set cookie
//   - POST /auth/logout                      → clear cookie
//   - GET  /auth/me                          → current user (requires auth)
//
// Tokens are returned in the body as well as the cookie so CLI clients can
// send them as a Bearer header.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderlygame/orderly/internal/auth"
	"github.com/orderlygame/orderly/internal/repo"
)

func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.With(s.Auth.RequireAuth).Get("/me", s.handleMe)
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Auth.Signup(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.issue(w, r, http.StatusCreated, a)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.Auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.issue(w, r, http.StatusOK, a)
}

func (s *Server) issue(w http.ResponseWriter, r *http.Request, status int, a repo.Account) {
	token, exp, err := s.Auth.Issue(a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.Auth.SetCookie(w, token, exp)
	writeJSON(w, status, tokenResponse{ID: a.ID, Username: a.Username, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.CurrentUser(r.Context())
	writeJSON(w, http.StatusOK, me)
}
