// internal/httpserver/routes_admin.go
//
// Puzzle authoring endpoints. Every route requires auth; the caller's
// username is the author for new puzzles and the editor for changes.
//   - GET    /admin/puzzles                 → listing as seen by the caller
//   - GET    /admin/version                 → current repository version
//   - POST   /admin/puzzles                 {expectedVersion,puzzle}    → append
//   - PUT    /admin/puzzles/{day}           {expectedVersion,puzzle}    → edit
//   - POST   /admin/puzzles/{day}/move      {expectedVersion,direction} → swap with neighbour
//   - DELETE /admin/puzzles/{day}?expectedVersion=N                    → delete + renumber
//   - POST   /admin/puzzles/upload          {puzzles,defaultAuthor}     → replace everything
//   - GET    /admin/puzzles/{day}/testlink  → base64 preview token
//
// Writes carry the version the client last saw; a stale version gets 409.

package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/orderlygame/orderly/internal/auth"
	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/puzzle"
)

func (s *Server) mountAdmin(r chi.Router) {
	r.Get("/version", s.handleVersion)
	r.Route("/puzzles", func(r chi.Router) {
		r.Get("/", s.handleListPuzzles)
		r.Post("/", s.handleAddPuzzle)
		r.Post("/upload", s.handleUpload)
		r.Route("/{day}", func(r chi.Router) {
			r.Put("/", s.handleEditPuzzle)
			r.Delete("/", s.handleDeletePuzzle)
			r.Post("/move", s.handleMovePuzzle)
			r.Get("/testlink", s.handleTestLink)
		})
	})
}

type versionResponse struct {
	Version int64 `json:"version"`
}

type puzzleWrite struct {
	ExpectedVersion *int64        `json:"expectedVersion"`
	Puzzle          puzzle.Record `json:"puzzle"`
}

type puzzleWriteResponse struct {
	Version int64         `json:"version"`
	Puzzle  puzzle.Record `json:"puzzle"`
}

type moveRequest struct {
	ExpectedVersion *int64 `json:"expectedVersion"`
	Direction       string `json:"direction"`
}

type uploadRequest struct {
	Puzzles       []puzzle.Record `json:"puzzles"`
	DefaultAuthor string          `json:"defaultAuthor"`
}

func editor(r *http.Request) string {
	me, _ := auth.CurrentUser(r.Context())
	return me.Username
}

func requireVersion(v *int64) (int64, error) {
	if v == nil {
		return 0, &puzzle.ValidationError{Field: "expectedVersion", Message: "required"}
	}
	return *v, nil
}

// parseDay reads the {day} path parameter.
func parseDay(r *http.Request) (int, error) {
	d, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil || d <= 0 {
		return 0, &puzzle.ValidationError{Field: "day", Message: "want a positive integer"}
	}
	return d, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.Authoring.Version(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	l, err := s.Authoring.List(r.Context(), editor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleAddPuzzle(w http.ResponseWriter, r *http.Request) {
	var body puzzleWrite
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	expected, err := requireVersion(body.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body.Puzzle.Author = ""
	rec, v, err := s.Authoring.Add(r.Context(), expected, body.Puzzle, editor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, puzzleWriteResponse{Version: v, Puzzle: rec})
}

func (s *Server) handleEditPuzzle(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body puzzleWrite
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	expected, err := requireVersion(body.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, v, err := s.Authoring.Edit(r.Context(), expected, day, body.Puzzle, editor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, puzzleWriteResponse{Version: v, Puzzle: rec})
}

func (s *Server) handleMovePuzzle(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body moveRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	expected, err := requireVersion(body.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	dir, err := authoring.ParseDirection(body.Direction)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Authoring.Move(r.Context(), expected, day, dir, editor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *Server) handleDeletePuzzle(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expected, err := strconv.ParseInt(r.URL.Query().Get("expectedVersion"), 10, 64)
	if err != nil {
		writeError(w, r, &puzzle.ValidationError{Field: "expectedVersion", Message: "want an integer query parameter"})
		return
	}
	v, err := s.Authoring.Delete(r.Context(), expected, day, editor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var body uploadRequest
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Authoring.Upload(r.Context(), body.Puzzles, body.DefaultAuthor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{Version: v})
}

type testLinkResponse struct {
	Day  int    `json:"day"`
	Test string `json:"test"`
	Path string `json:"path"`
}

// handleTestLink only reveals links for puzzles the caller may see.
func (s *Server) handleTestLink(w http.ResponseWriter, r *http.Request) {
	day, err := parseDay(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.Repo.Get(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !s.Authoring.Locked(day) && !strings.EqualFold(rec.Author, editor(r)) {
		writeError(w, r, puzzle.ErrNotOwner)
		return
	}
	link := authoring.TestLink(rec.Question)
	writeJSON(w, http.StatusOK, testLinkResponse{
		Day:  day,
		Test: link,
		Path: "/game/new?test=" + url.QueryEscape(link),
	})
}
