package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestResultsDB_Standings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.db")
	db, err := OpenResults(path)
	if err != nil {
		t.Fatalf("OpenResults: %v", err)
	}

	games := []GameRecord{
		{GameID: "seed-1", Seed: 1, Turns: 400, Winner: 0, Scores: map[int]int{0: 9000, 1: 3000}},
		{GameID: "seed-2", Seed: 2, Turns: 400, Winner: 1, Scores: map[int]int{0: 1000, 1: 5000}},
		{GameID: "seed-3", Seed: 3, Turns: 400, Winner: -1, Scores: map[int]int{0: 2000, 1: 2000}},
	}
	for _, g := range games {
		if err := db.Record(ctx, g); err != nil {
			t.Fatalf("Record %s: %v", g.GameID, err)
		}
	}
	// Re-recording replaces the scores instead of adding a row.
	if err := db.Record(ctx, games[2]); err != nil {
		t.Fatalf("Record again: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err = OpenResults(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := db.Standings(ctx)
	if err != nil {
		t.Fatalf("Standings: %v", err)
	}
	want := []Standing{
		{Player: 0, Games: 3, Wins: 1, MeanScore: 4000},
		{Player: 1, Games: 3, Wins: 1, MeanScore: 10000.0 / 3},
	}
	if len(got) != len(want) {
		t.Fatalf("standings = %+v", got)
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.Player != w.Player || g.Games != w.Games || g.Wins != w.Wins || g.MeanScore-w.MeanScore > 1e-9 || w.MeanScore-g.MeanScore > 1e-9 {
			t.Errorf("standing %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestResultsDB_RecentGames(t *testing.T) {
	ctx := context.Background()
	db, err := OpenResults(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("OpenResults: %v", err)
	}
	defer db.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		g := GameRecord{
			GameID:     fmt.Sprintf("seed-%d", i),
			Seed:       int64(i),
			Turns:      100 + i,
			Winner:     i % 2,
			Collisions: i,
			Scores:     map[int]int{0: i * 10, 1: i * 20},
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Record(ctx, g); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := db.RecentGames(ctx, 2)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].GameID != "seed-3" || got[1].GameID != "seed-2" {
		t.Fatalf("order = %s, %s", got[0].GameID, got[1].GameID)
	}
	if got[0].Scores[1] != 60 || got[0].Turns != 103 || got[0].Collisions != 3 {
		t.Errorf("seed-3 = %+v", got[0])
	}
	if !got[0].FinishedAt.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("FinishedAt = %v", got[0].FinishedAt)
	}
}
