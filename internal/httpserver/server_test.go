package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/orderlygame/orderly/internal/auth"
	"github.com/orderlygame/orderly/internal/authoring"
	"github.com/orderlygame/orderly/internal/cache"
	"github.com/orderlygame/orderly/internal/daily"
	"github.com/orderlygame/orderly/internal/game"
	"github.com/orderlygame/orderly/internal/puzzle"
	"github.com/orderlygame/orderly/internal/repo"
	"github.com/orderlygame/orderly/internal/store"
)

var intended = []string{"sun", "jupiter", "saturn", "earth", "mars", "moon"}

func record(day int, author string) puzzle.Record {
	return puzzle.Record{
		Day:           day,
		Question:      fmt.Sprintf("Brightest $$object$$ in the night $$sky$$ %d", day),
		IntendedOrder: intended,
		StartingOrder: []string{"moon", "mars", "earth", "saturn", "jupiter", "sun"},
		AlsoAccepts:   map[string][]string{"object": {"thing"}},
		Author:        author,
	}
}

type fixture struct {
	h     http.Handler
	cache cache.Store
}

// newFixture serves days 1..3 with today = day 1. Days 2 and 3 belong to alice.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := repo.NewMemory()
	days := daily.NewResolver(daily.DefaultEpoch, daily.FixedClock(daily.DefaultEpoch.Add(time.Hour)))
	svc := authoring.New(st, days)
	if _, err := svc.Upload(context.Background(), []puzzle.Record{
		record(1, "amp"), record(2, "alice"), record(3, "alice"),
	}, ""); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	c := cache.NewMemory()
	nop := zerolog.Nop()
	s := New(Deps{
		Sessions:  store.NewMemoryStore(),
		Repo:      st,
		Authoring: svc,
		Auth:      auth.New(st, auth.Config{Secret: []byte("test-secret"), TTL: time.Hour}),
		Cache:     c,
		Days:      days,
		MaxChecks: 5,
		Picker:    func(int) int { return 0 },
		Logger:    &nop,
	})
	return &fixture{h: s.Router(), cache: c}
}

// client keeps cookies between requests.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
	bearer  string
}

func (f *fixture) client(t *testing.T) *client {
	return &client{t: t, h: f.h, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	if out != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: decode %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code
}

func TestHealthAndDay(t *testing.T) {
	c := newFixture(t).client(t)
	if code := c.do(http.MethodGet, "/health", nil, nil); code != http.StatusOK {
		t.Fatalf("/health = %d", code)
	}
	var d dayResponse
	if code := c.do(http.MethodGet, "/day", nil, &d); code != http.StatusOK || d.Day != 1 {
		t.Fatalf("/day = %d %+v", code, d)
	}
	if d.Countdown != "23:00:00" {
		t.Errorf("countdown = %q", d.Countdown)
	}
	c.do(http.MethodGet, "/day?day=9", nil, &d)
	if d.Day != 9 {
		t.Errorf("day override = %d", d.Day)
	}
	c.do(http.MethodGet, "/day?tmr", nil, &d)
	if d.Day != 2 {
		t.Errorf("tmr override = %d", d.Day)
	}
}

func TestGame_WinAndResume(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)

	var v game.View
	if code := c.do(http.MethodPost, "/game/new", nil, &v); code != http.StatusCreated {
		t.Fatalf("new = %d", code)
	}
	if v.Day != 1 || v.Status != game.StatusActive || c.cookies[playerCookie] == nil {
		t.Fatalf("new view = %+v", v)
	}
	base := "/game/" + v.ID

	for i, want := range intended {
		if v.Current[i].Text == want {
			continue
		}
		var rr reorderResponse
		c.do(http.MethodPost, base+"/reorder", reorderRequest{From: want, To: v.Current[i].Text}, &rr)
		if !rr.Moved {
			t.Fatalf("reorder %q did not move", want)
		}
		v = rr.View
	}

	var wr wordResponse
	c.do(http.MethodPost, base+"/word", map[string]any{"index": 0, "text": "Thing"}, &wr)
	if wr.Result != game.WordAccepted {
		t.Fatalf("word 0 = %q", wr.Result)
	}
	c.do(http.MethodPost, base+"/word", map[string]any{"index": 1, "text": "sky"}, &wr)
	if wr.Result != game.WordAccepted || wr.View.Status != game.StatusSolvedPrompt {
		t.Fatalf("word 1 = %q status %q", wr.Result, wr.View.Status)
	}

	var cr checkResponse
	if code := c.do(http.MethodPost, base+"/check", nil, &cr); code != http.StatusOK {
		t.Fatalf("check = %d", code)
	}
	if cr.View.Status != game.StatusWin || cr.View.Outcome == nil || !cr.View.Outcome.Won {
		t.Fatalf("after check = %+v", cr.View)
	}
	if code := c.do(http.MethodPost, base+"/check", nil, nil); code != http.StatusConflict {
		t.Errorf("check after win = %d, want 409", code)
	}

	// same player, new session: restored from cache
	var again game.View
	c.do(http.MethodPost, "/game/new", nil, &again)
	if again.ID == v.ID || again.Status != game.StatusWin || len(again.Guesses) != 1 {
		t.Errorf("resumed view = %+v", again)
	}

	c.do(http.MethodPost, "/game/new?reset", nil, &again)
	if again.Status != game.StatusActive || len(again.Guesses) != 0 {
		t.Errorf("reset view = %+v", again)
	}
}

func TestGame_OtherPlayerCannotUseSession(t *testing.T) {
	f := newFixture(t)
	a, b := f.client(t), f.client(t)
	var v game.View
	a.do(http.MethodPost, "/game/new", nil, &v)
	if code := b.do(http.MethodPost, "/game/"+v.ID+"/giveup", nil, nil); code != http.StatusNotFound {
		t.Errorf("foreign giveup = %d, want 404", code)
	}
	if code := a.do(http.MethodPost, "/game/"+v.ID+"/giveup", nil, &v); code != http.StatusOK || v.Status != game.StatusLose {
		t.Errorf("giveup = %d %q", code, v.Status)
	}
	if v.Outcome == nil || v.Outcome.Solution == nil {
		t.Errorf("lose outcome = %+v", v.Outcome)
	}
	if code := a.do(http.MethodGet, "/game/missing", nil, nil); code != http.StatusNotFound {
		t.Errorf("missing game = %d", code)
	}
}

func TestGame_BadWordRequests(t *testing.T) {
	c := newFixture(t).client(t)
	var v game.View
	c.do(http.MethodPost, "/game/new", nil, &v)
	base := "/game/" + v.ID
	if code := c.do(http.MethodPost, base+"/word", map[string]any{"text": "x"}, nil); code != http.StatusBadRequest {
		t.Errorf("missing index = %d", code)
	}
	if code := c.do(http.MethodPost, base+"/word", map[string]any{"index": 7, "text": "x"}, nil); code != http.StatusBadRequest {
		t.Errorf("unknown blank = %d", code)
	}
	var wr wordResponse
	c.do(http.MethodPost, base+"/word", map[string]any{"index": 0, "text": "planet"}, &wr)
	if wr.Result != game.WordRejected {
		t.Errorf("wrong word = %q", wr.Result)
	}
}

func TestGame_UnknownDayIs404(t *testing.T) {
	c := newFixture(t).client(t)
	if code := c.do(http.MethodPost, "/game/new?day=40", nil, nil); code != http.StatusNotFound {
		t.Errorf("day 40 = %d", code)
	}
}

func TestAdmin_RequiresAuth(t *testing.T) {
	c := newFixture(t).client(t)
	if code := c.do(http.MethodGet, "/admin/puzzles", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous listing = %d", code)
	}
}

func signup(c *client, name string) {
	c.t.Helper()
	var tr tokenResponse
	if code := c.do(http.MethodPost, "/auth/signup", credentials{Username: name, Password: "password123"}, &tr); code != http.StatusCreated {
		c.t.Fatalf("signup %s = %d", name, code)
	}
	if tr.Token == "" || c.cookies["orderly_token"] == nil {
		c.t.Fatalf("signup gave no token: %+v", tr)
	}
}

func TestAdmin_Flow(t *testing.T) {
	f := newFixture(t)
	alice := f.client(t)
	signup(alice, "alice")

	var l authoring.Listing
	if code := alice.do(http.MethodGet, "/admin/puzzles", nil, &l); code != http.StatusOK {
		t.Fatalf("listing = %d", code)
	}
	if l.Today != 1 || len(l.Entries) != 3 || !l.Entries[0].Locked || l.Entries[1].Hidden {
		t.Fatalf("listing = %+v", l)
	}

	// stale write
	stale := l.Version - 1
	if code := alice.do(http.MethodPost, "/admin/puzzles", puzzleWrite{ExpectedVersion: &stale, Puzzle: record(0, "")}, nil); code != http.StatusConflict {
		t.Errorf("stale add = %d, want 409", code)
	}
	var pw puzzleWriteResponse
	if code := alice.do(http.MethodPost, "/admin/puzzles", puzzleWrite{ExpectedVersion: &l.Version, Puzzle: record(0, "mallory")}, &pw); code != http.StatusCreated {
		t.Fatalf("add = %d", code)
	}
	if pw.Puzzle.Day != 4 || pw.Puzzle.Author != "alice" || pw.Version != l.Version+1 {
		t.Errorf("added = %+v", pw)
	}

	v := pw.Version
	var vr versionResponse
	if code := alice.do(http.MethodPost, "/admin/puzzles/3/move", moveRequest{ExpectedVersion: &v, Direction: "up"}, &vr); code != http.StatusOK {
		t.Fatalf("move = %d", code)
	}
	v = vr.Version
	if code := alice.do(http.MethodPost, "/admin/puzzles/2/move", moveRequest{ExpectedVersion: &v, Direction: "up"}, nil); code != http.StatusLocked {
		t.Errorf("move into published day = %d, want 423", code)
	}
	if code := alice.do(http.MethodDelete, "/admin/puzzles/1?expectedVersion="+fmt.Sprint(v), nil, nil); code != http.StatusLocked {
		t.Errorf("delete published = %d, want 423", code)
	}
	if code := alice.do(http.MethodDelete, fmt.Sprintf("/admin/puzzles/2?expectedVersion=%d", v), nil, &vr); code != http.StatusOK {
		t.Fatalf("delete = %d", code)
	}
	alice.do(http.MethodGet, "/admin/version", nil, &vr)
	if vr.Version != v+1 {
		t.Errorf("version = %d, want %d", vr.Version, v+1)
	}

	var tl testLinkResponse
	if code := alice.do(http.MethodGet, "/admin/puzzles/2/testlink", nil, &tl); code != http.StatusOK || tl.Test == "" {
		t.Fatalf("testlink = %d %+v", code, tl)
	}
	var preview game.View
	if code := alice.do(http.MethodPost, tl.Path, nil, &preview); code != http.StatusCreated {
		t.Fatalf("preview = %d", code)
	}
	if preview.Day != 2 {
		t.Errorf("preview day = %d", preview.Day)
	}
	if _, ok, _ := f.cache.Load(alice.cookies[playerCookie].Value, 2); ok {
		t.Error("preview game was cached")
	}
}

func TestAdmin_OwnershipAndValidation(t *testing.T) {
	f := newFixture(t)
	bob := f.client(t)
	signup(bob, "bob")
	var vr versionResponse
	bob.do(http.MethodGet, "/admin/version", nil, &vr)

	edit := puzzleWrite{ExpectedVersion: &vr.Version, Puzzle: record(2, "")}
	if code := bob.do(http.MethodPut, "/admin/puzzles/2", edit, nil); code != http.StatusForbidden {
		t.Errorf("edit foreign puzzle = %d, want 403", code)
	}
	if code := bob.do(http.MethodGet, "/admin/puzzles/2/testlink", nil, nil); code != http.StatusForbidden {
		t.Errorf("foreign testlink = %d, want 403", code)
	}
	bad := record(0, "")
	bad.IntendedOrder = []string{"a", "b"}
	if code := bob.do(http.MethodPost, "/admin/puzzles", puzzleWrite{ExpectedVersion: &vr.Version, Puzzle: bad}, nil); code != http.StatusBadRequest {
		t.Errorf("invalid puzzle = %d, want 400", code)
	}
	if code := bob.do(http.MethodPost, "/admin/puzzles", puzzleWrite{Puzzle: record(0, "")}, nil); code != http.StatusBadRequest {
		t.Errorf("missing version = %d, want 400", code)
	}
	if code := bob.do(http.MethodPost, "/admin/puzzles/3/move", moveRequest{ExpectedVersion: &vr.Version, Direction: "sideways"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad direction = %d, want 400", code)
	}

	var up versionResponse
	body := uploadRequest{Puzzles: []puzzle.Record{record(1, ""), record(2, "")}, DefaultAuthor: "bob"}
	if code := bob.do(http.MethodPost, "/admin/puzzles/upload", body, &up); code != http.StatusOK || up.Version != vr.Version+1 {
		t.Fatalf("upload = %d %+v", code, up)
	}
	if code := bob.do(http.MethodPut, "/admin/puzzles/2", puzzleWrite{ExpectedVersion: &up.Version, Puzzle: record(2, "")}, nil); code != http.StatusOK {
		t.Errorf("edit own puzzle = %d", code)
	}
}

func TestAuth_LoginLogoutMe(t *testing.T) {
	f := newFixture(t)
	c := f.client(t)
	signup(c, "carol")

	var me auth.Claims
	if code := c.do(http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.Username != "carol" {
		t.Fatalf("me = %d %+v", code, me)
	}
	c.do(http.MethodPost, "/auth/logout", nil, nil)
	delete(c.cookies, "orderly_token")
	if code := c.do(http.MethodGet, "/auth/me", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", code)
	}

	if code := c.do(http.MethodPost, "/auth/login", credentials{Username: "carol", Password: "nope-nope"}, nil); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", code)
	}
	var tr tokenResponse
	if code := c.do(http.MethodPost, "/auth/login", credentials{Username: "CAROL", Password: "password123"}, &tr); code != http.StatusOK {
		t.Fatalf("login = %d", code)
	}
	cli := f.client(t)
	cli.bearer = tr.Token
	if code := cli.do(http.MethodGet, "/auth/me", nil, nil); code != http.StatusOK {
		t.Errorf("bearer me = %d", code)
	}
	if code := c.do(http.MethodPost, "/auth/signup", credentials{Username: "carol", Password: "password123"}, nil); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d", code)
	}
}
