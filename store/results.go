package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// GameRecord is the outcome of one finished self-play game.
type GameRecord struct {
	GameID     string
	Seed       int64
	Turns      int
	Winner     int // -1 on a tie
	Collisions int
	Scores     map[int]int // player id -> banked halite
	FinishedAt time.Time
}

// Standing aggregates one seat's results over every recorded game.
type Standing struct {
	Player    int     `json:"player"`
	Games     int     `json:"games"`
	Wins      int     `json:"wins"`
	MeanScore float64 `json:"mean_score"`
}

// ResultsDB is a SQLite index of self-play results next to the parquet
// archive. It is queried to compare tunings; the parquet files stay the
// source of truth.
type ResultsDB struct {
	db *sql.DB
}

func OpenResults(path string) (*ResultsDB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			winner INTEGER NOT NULL,
			collisions INTEGER NOT NULL,
			finished_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scores (
			game_id TEXT NOT NULL,
			player INTEGER NOT NULL,
			halite INTEGER NOT NULL,
			PRIMARY KEY (game_id, player)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init results db: %w", err)
		}
	}
	return &ResultsDB{db: db}, nil
}

func (r *ResultsDB) Close() error {
	return r.db.Close()
}

// Record stores one game. Recording the same game id again replaces it.
func (r *ResultsDB) Record(ctx context.Context, g GameRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	finished := g.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO games(game_id, seed, turns, winner, collisions, finished_at) VALUES(?,?,?,?,?,?)`,
		g.GameID, g.Seed, g.Turns, g.Winner, g.Collisions, finished.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scores WHERE game_id=?`, g.GameID); err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	for player, halite := range g.Scores {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scores(game_id, player, halite) VALUES(?,?,?)`, g.GameID, player, halite,
		); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Standings returns per-seat games, wins and mean banked halite, ordered by
// player id.
func (r *ResultsDB) Standings(ctx context.Context) ([]Standing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.player,
		       COUNT(*),
		       SUM(CASE WHEN g.winner = s.player THEN 1 ELSE 0 END),
		       AVG(s.halite)
		FROM scores s JOIN games g ON g.game_id = s.game_id
		GROUP BY s.player
		ORDER BY s.player`)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Player, &st.Games, &st.Wins, &st.MeanScore); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RecentGames returns up to limit games, newest first, with their scores.
func (r *ResultsDB) RecentGames(ctx context.Context, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, seed, turns, winner, collisions, finished_at
		FROM games
		ORDER BY finished_at DESC, game_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}

	var out []GameRecord
	index := make(map[string]int)
	for rows.Next() {
		var g GameRecord
		var finished string
		if err := rows.Scan(&g.GameID, &g.Seed, &g.Turns, &g.Winner, &g.Collisions, &finished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		g.Scores = make(map[int]int)
		index[g.GameID] = len(out)
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 {
		return out, nil
	}

	// One connection: the games cursor must be closed before this query.
	scoreRows, err := r.db.QueryContext(ctx, `SELECT game_id, player, halite FROM scores`)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer scoreRows.Close()
	for scoreRows.Next() {
		var id string
		var player, halite int
		if err := scoreRows.Scan(&id, &player, &halite); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Scores[player] = halite
		}
	}
	return out, scoreRows.Err()
}
