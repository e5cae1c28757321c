package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brensch/halite3/logging"
	"github.com/brensch/halite3/store"
)

type fakeResults struct {
	standings []store.Standing
	games     []store.GameRecord
	lastLimit int
	err       error
}

func (f *fakeResults) Standings(ctx context.Context) ([]store.Standing, error) {
	return f.standings, f.err
}

func (f *fakeResults) RecentGames(ctx context.Context, limit int) ([]store.GameRecord, error) {
	f.lastLimit = limit
	return f.games, f.err
}

func serveAPI(t *testing.T, res Results, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewAPI(res, logging.Discard()).RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAPI_Games(t *testing.T) {
	finished := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	res := &fakeResults{games: []store.GameRecord{
		{GameID: "seed-7", Seed: 7, Turns: 400, Winner: 1, Collisions: 2, Scores: map[int]int{0: 100, 1: 900}, FinishedAt: finished},
	}}

	rec := serveAPI(t, res, "/api/games?limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if res.lastLimit != 5 {
		t.Errorf("limit = %d, want 5", res.lastLimit)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS header = %q", got)
	}

	var resp GamesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Games) != 1 {
		t.Fatalf("games = %+v", resp.Games)
	}
	g := resp.Games[0]
	if g.GameID != "seed-7" || g.Winner != 1 || g.Scores[1] != 900 || !g.FinishedAt.Equal(finished) {
		t.Errorf("game = %+v", g)
	}
}

func TestAPI_GamesBadLimitUsesDefault(t *testing.T) {
	res := &fakeResults{}
	serveAPI(t, res, "/api/games?limit=abc")
	if res.lastLimit != 50 {
		t.Errorf("limit = %d, want 50", res.lastLimit)
	}
}

func TestAPI_StandingsEmptyIsArray(t *testing.T) {
	rec := serveAPI(t, &fakeResults{}, "/api/standings")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"standings\":[]}\n" {
		t.Errorf("body = %q", got)
	}
}

func TestAPI_QueryError(t *testing.T) {
	rec := serveAPI(t, &fakeResults{err: errors.New("disk gone")}, "/api/standings")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
