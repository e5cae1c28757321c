package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/brensch/halite3/bot"
	"github.com/brensch/halite3/logging"
	"github.com/brensch/halite3/selfplay"
	"github.com/brensch/halite3/store"
)

func main() {
	seed := flag.Int64("seed", time.Now().UnixNano(), "Game seed")
	outDir := flag.String("out-dir", "debug_games", "Output directory for the game parquet")
	turns := flag.Int("turns", 200, "Turns to play")
	width := flag.Int("width", 32, "Map width")
	height := flag.Int("height", 32, "Map height")
	players := flag.Int("players", 2, "Players (2 or 4)")
	every := flag.Int("print-every", 25, "Print the board every N turns (0 = never)")
	tuningPath := flag.String("tuning", "", "Optional YAML file with planner tuning")
	logLevel := flag.String("log-level", "warn", "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(log.Writer(), logging.Config{Level: *logLevel, Format: logging.FormatText})
	if err != nil {
		log.Fatalf("Bad log config: %v", err)
	}

	cfg := selfplay.DefaultConfig()
	cfg.Map.Width, cfg.Map.Height = int32(*width), int32(*height)
	cfg.Map.Players = *players
	cfg.Map.Constants.MaxTurns = *turns
	if *tuningPath != "" {
		if cfg.Tuning, err = bot.LoadTuning(*tuningPath); err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("Playing debug game seed=%d on %dx%d with %d players", *seed, *width, *height, *players)

	onStep := func(p selfplay.Progress) {
		if *every > 0 && (p.Turn%*every == 0 || p.Turn == p.MaxTurns) {
			fmt.Print(selfplay.RenderBoard(p.State))
		}
	}
	out := selfplay.PlayGame(ctx, cfg, *seed, selfplay.PlayGameOptions{OnStep: onStep, Logger: logger})
	if !out.Completed {
		log.Fatalf("Game did not complete (turn %d)", out.Result.Turns)
	}
	log.Printf("Game complete: %d turns, winner p%d, scores %v, collisions %d",
		out.Result.Turns, out.Result.Winner, out.Result.Scores, out.Result.Collisions)

	parquetPath := filepath.Join(*outDir, fmt.Sprintf("debug_%s.parquet", out.Result.GameID))
	if err := store.WriteTurnsParquet(parquetPath, out.Rows); err != nil {
		log.Fatalf("Failed to write debug game: %v", err)
	}
	log.Printf("Debug game written to: %s (%d rows)", parquetPath, len(out.Rows))
}
