// internal/httpserver/routes_daily.go
//
// HTTP routes for playing the daily puzzle.
//   - GET  /day                 → current puzzle day and countdown to the next one
//   - POST /game/new            → start (or resume) a game for today or an override day
//   - GET  /game/{id}           → current view of a game
//   - POST /game/{id}/reorder   → move one card onto another card's slot
//   - POST /game/{id}/word      → submit a word for one blank
//   - POST /game/{id}/check     → spend a ranking check
//   - POST /game/{id}/giveup    → forfeit
//
// Players are identified by an anonymous cookie. Every mutation writes the
// game snapshot to the player's cache namespace so a reload resumes the game.
// Games opened through a test link are previews and are never cached.

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/game"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/store"
)

const playerCookie = "orderly_player"

// mountDaily registers /day and /game routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Get("/day", s.handleDay)
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGetGame))
			r.Post("/reorder", s.withSession(s.handleReorder))
			r.Post("/word", s.withSession(s.handleWord))
			r.Post("/check", s.withSession(s.handleCheck))
			r.Post("/giveup", s.withSession(s.handleGiveUp))
		})
	})
}

// ensurePlayer returns the anonymous player ID, issuing a cookie if needed.
func (s *Server) ensurePlayer(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.SecureCookie {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     playerCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookie,
		SameSite: sameSite,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})
	return id
}

func (s *Server) options() game.Options {
	return game.Options{MaxChecks: s.MaxChecks, Picker: s.Picker}
}

// ---------------------------------- /day -----------------------------------

type dayResponse struct {
	Day       int    `json:"day"`
	Countdown string `json:"countdown"`
	Remaining int64  `json:"remainingSeconds"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	left := s.Days.UntilNext()
	writeJSON(w, http.StatusOK, dayResponse{
		Day:       s.Days.Today(daily.OverridesFromQuery(r.URL.Query())),
		Countdown: daily.FormatRemaining(left),
		Remaining: int64(left / time.Second),
	})
}

// ------------------------------- /game/new ---------------------------------

type newGameRequest struct {
	Day   int    `json:"day"`
	Tmr   bool   `json:"tmr"`
	Reset bool   `json:"reset"`
	Test  string `json:"test"`
}

// handleNewGame accepts its options as JSON or as query parameters
// (?day=N, ?tmr, ?reset, ?test=<base64 question>).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	o := daily.OverridesFromQuery(q)
	if req.Day > 0 {
		o.Day = req.Day
	}
	o.Tomorrow = o.Tomorrow || req.Tmr
	if _, ok := q["reset"]; ok {
		req.Reset = true
	}
	if v := q.Get("test"); v != "" {
		req.Test = v
	}

	ctx := r.Context()
	player := s.ensurePlayer(w, r)
	preview := req.Test != ""

	var (
		rec puzzle.Record
		err error
	)
	if preview {
		rec, err = s.Authoring.FindByQuestion(ctx, req.Test)
	} else {
		rec, err = s.Repo.Get(ctx, s.Days.Today(o))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := game.NewPuzzle(rec)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var g *game.Game
	switch {
	case preview:
	case req.Reset:
		if err := s.Cache.Clear(player); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("cache clear failed")
		}
	default:
		g = s.resume(r, player, p)
	}
	if g == nil {
		g = game.New(p, s.options())
	}
	g.ID = uuid.NewString()

	sess := &store.Session{ID: g.ID, Player: player, Game: g, Preview: preview, Touched: time.Now()}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		writeError(w, r, err)
		return
	}
	s.persist(r, sess)
	writeJSON(w, http.StatusCreated, g.View())
}

// resume restores the player's cached game for p, or returns nil.
func (s *Server) resume(r *http.Request, player string, p *game.Puzzle) *game.Game {
	snap, ok, err := s.Cache.Load(player, p.Day)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("cache load failed")
		return nil
	}
	if !ok {
		return nil
	}
	g, err := game.Restore(p, snap, s.options())
	if err != nil {
		// puzzle changed under the cached game
		hlog.FromRequest(r).Info().Err(err).Int("day", p.Day).Msg("discarding cached game")
		return nil
	}
	return g
}

// persist writes the session's snapshot to the cache. Failures are logged only.
func (s *Server) persist(r *http.Request, sess *store.Session) {
	if sess.Preview {
		return
	}
	if err := s.Cache.Save(sess.Player, sess.Game.Snapshot()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("player", sess.Player).Msg("cache save failed")
	}
}

// ------------------------------ /game/{id} ---------------------------------

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *store.Session)

// withSession resolves {id}, checks the caller owns it and holds its lock for
// the duration of h.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		c, err := r.Cookie(playerCookie)
		if err != nil || c.Value != sess.Player {
			writeError(w, r, store.ErrNotFound)
			return
		}
		sess.Lock()
		defer sess.Unlock()
		sess.Touched = time.Now()
		h(w, r, sess)
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	writeJSON(w, http.StatusOK, sess.Game.View())
}

type reorderRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type reorderResponse struct {
	Moved bool      `json:"moved"`
	View  game.View `json:"view"`
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	var req reorderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	moved := sess.Game.Reorder(req.From, req.To)
	if moved {
		s.persist(r, sess)
	}
	writeJSON(w, http.StatusOK, reorderResponse{Moved: moved, View: sess.Game.View()})
}

type wordRequest struct {
	Index *int   `json:"index"`
	Text  string `json:"text"`
}

type wordResponse struct {
	Result game.WordResult `json:"result"`
	View   game.View       `json:"view"`
}

func (s *Server) handleWord(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	var req wordRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Index == nil {
		writeError(w, r, &puzzle.ValidationError{Field: "index", Message: "required"})
		return
	}
	res, err := sess.Game.SubmitWord(*req.Index, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res == game.WordAccepted || res == game.WordRejected {
		s.persist(r, sess)
	}
	writeJSON(w, http.StatusOK, wordResponse{Result: res, View: sess.Game.View()})
}

type checkResponse struct {
	Hints game.Column `json:"hints"`
	View  game.View   `json:"view"`
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	hints, err := sess.Game.CheckRanking()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.persist(r, sess)
	writeJSON(w, http.StatusOK, checkResponse{Hints: hints, View: sess.Game.View()})
}

func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	if err := sess.Game.GiveUp(); err != nil {
		writeError(w, r, err)
		return
	}
	s.persist(r, sess)
	writeJSON(w, http.StatusOK, sess.Game.View())
}
