// internal/httpserver/server.go
//
// HTTP server wiring for the Orderly backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/day".
//   - Game endpoints (anonymous player cookie): /game/*.
//   - Auth endpoints: /auth/*.
//   - Admin authoring endpoints (require auth): /admin/*.
//   - Mapping domain errors onto HTTP statuses and JSON error bodies.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Game state lives in the session store; every change is also written to
//     the per-player snapshot cache on a best-effort basis.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/orderlygame/orderly/internal/auth"
	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/cache"
	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/game"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
	"github.com/orderlygame/orderly/internal/store"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Sessions     store.Store
	Repo         repo.Repository
	Authoring    *authoring.Service
	Auth         *auth.Service
	Cache        cache.Store
	Days         *daily.Resolver
	MaxChecks    int
	Picker       game.Picker // nil: random
	ClientOrigin string
	SecureCookie bool
	Logger       *zerolog.Logger // nil: global logger
}

// Server bundles router and dependencies.
type Server struct {
	r *chi.Mux
	Deps
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = &log.Logger
	}
	s := &Server{r: chi.NewRouter(), Deps: d}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(*d.Logger))      // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(d.ClientOrigin))            // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"orderly","endpoints":["/health","/day","POST /game/new","/auth/*","/admin/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.mountDaily(s.r)
	s.mountAuthRoutes(s.r)
	s.r.Route("/admin", func(r chi.Router) {
		r.Use(s.Auth.RequireAuth)
		s.mountAdmin(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("req_id", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// ------------------------------ responses ----------------------------------

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads an optional JSON body; an empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return &puzzle.ValidationError{Message: "invalid JSON body"}
	}
	return nil
}

// writeError maps domain errors to statuses. Unknown errors are logged and
// reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *puzzle.ValidationError
		ave auth.ValidationError
	)
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.As(err, &ve), errors.As(err, &ave):
		status, code = http.StatusBadRequest, "invalid"
	case errors.Is(err, puzzle.ErrConcurrentEdit):
		status, code = http.StatusConflict, "concurrent_edit"
	case errors.Is(err, puzzle.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, puzzle.ErrLocked):
		status, code = http.StatusLocked, "locked"
	case errors.Is(err, puzzle.ErrNotOwner):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, puzzle.ErrAtBoundary):
		status, code = http.StatusBadRequest, "at_boundary"
	case errors.Is(err, game.ErrGameFinished):
		status, code = http.StatusConflict, "game_over"
	case errors.Is(err, game.ErrNoChecksLeft):
		status, code = http.StatusConflict, "no_checks_left"
	case errors.Is(err, game.ErrRankingSolved):
		status, code = http.StatusConflict, "ranking_solved"
	case errors.Is(err, game.ErrUnknownBlank):
		status, code = http.StatusBadRequest, "unknown_blank"
	case errors.Is(err, repo.ErrUsernameTaken):
		status, code = http.StatusConflict, "username_taken"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	}
	if status == http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, status, errorBody{Error: code})
		return
	}
	writeJSON(w, status, errorBody{Error: code, Message: err.Error()})
}
