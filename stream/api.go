package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brensch/halite3/store"
)

// Results is the read side of the self-play results index.
type Results interface {
	Standings(ctx context.Context) ([]store.Standing, error)
	RecentGames(ctx context.Context, limit int) ([]store.GameRecord, error)
}

type GameSummary struct {
	GameID     string      `json:"game_id"`
	Seed       int64       `json:"seed"`
	Turns      int         `json:"turns"`
	Winner     int         `json:"winner"`
	Collisions int         `json:"collisions"`
	Scores     map[int]int `json:"scores"`
	FinishedAt time.Time   `json:"finished_at"`
}

type GamesResponse struct {
	Games []GameSummary `json:"games"`
}

type StandingsResponse struct {
	Standings []store.Standing `json:"standings"`
}

// API serves results as JSON for the browser viewer.
type API struct {
	results Results
	logger  *slog.Logger
}

func NewAPI(results Results, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{results: results, logger: logger}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games", a.handleGames)
	mux.HandleFunc("/api/standings", a.handleStandings)
}

func (a *API) handleGames(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	limit := parseIntQuery(r, "limit", 50)
	if limit > 1000 {
		limit = 1000
	}
	games, err := a.results.RecentGames(r.Context(), limit)
	if err != nil {
		a.logger.Error("recent games", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	resp := GamesResponse{Games: make([]GameSummary, 0, len(games))}
	for _, g := range games {
		resp.Games = append(resp.Games, GameSummary{
			GameID:     g.GameID,
			Seed:       g.Seed,
			Turns:      g.Turns,
			Winner:     g.Winner,
			Collisions: g.Collisions,
			Scores:     g.Scores,
			FinishedAt: g.FinishedAt,
		})
	}
	writeJSON(w, resp)
}

func (a *API) handleStandings(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	standings, err := a.results.Standings(r.Context())
	if err != nil {
		a.logger.Error("standings", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if standings == nil {
		standings = []store.Standing{}
	}
	writeJSON(w, StandingsResponse{Standings: standings})
}

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
