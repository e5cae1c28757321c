package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/brensch/halite3/bot"
	"github.com/brensch/halite3/logging"
	"github.com/brensch/halite3/selfplay"
	"github.com/brensch/halite3/store"
	"github.com/brensch/halite3/stream"
	tea "github.com/charmbracelet/bubbletea"
)

var totalTurns atomic.Int64
var totalGames atomic.Int64

type GameUpdate struct {
	WorkerID int
	Result   selfplay.GameResult
	Rows     int
}

func main() {
	outDir := flag.String("out-dir", getEnvOrDefault("OUT_DIR", "data/selfplay"), "Output directory for turn parquet batches")
	resultsPath := flag.String("results-db", getEnvOrDefault("RESULTS_DB", "data/selfplay/results.db"), "SQLite index of game results (empty = disabled)")
	seedLogPath := flag.String("seed-log", getEnvOrDefault("SEED_LOG", "data/selfplay/played_seeds.log"), "Append-only log of archived seeds")
	workers := flag.Int("workers", getEnvIntOrDefault("WORKERS", 4), "Number of concurrent games")
	maxGames := flag.Int("games", getEnvIntOrDefault("GAMES", 0), "Stop after this many seeds (0 = until interrupted)")
	seedStart := flag.Int64("seed-start", getEnvInt64OrDefault("SEED_START", 1), "First seed; game i uses seed-start+i")
	gamesPerFlush := flag.Int("games-per-flush", getEnvIntOrDefault("GAMES_PER_FLUSH", 20), "Games per parquet batch")
	width := flag.Int("width", getEnvIntOrDefault("MAP_WIDTH", 32), "Map width")
	height := flag.Int("height", getEnvIntOrDefault("MAP_HEIGHT", 32), "Map height")
	players := flag.Int("players", getEnvIntOrDefault("PLAYERS", 2), "Players per game (2 or 4)")
	turns := flag.Int("turns", getEnvIntOrDefault("MAX_TURNS", 400), "Turns per game")
	tuningPath := flag.String("tuning", getEnvOrDefault("TUNING", ""), "Optional YAML file with planner tuning")
	turnBudget := flag.Duration("turn-budget", getEnvDurationOrDefault("TURN_BUDGET", 0), "Planning time per bot turn (0 = unlimited)")
	listen := flag.String("listen", getEnvOrDefault("LISTEN", ""), "Serve live frames of worker 0 on ws://<addr>/ws")
	useTUI := flag.Bool("tui", getEnvBoolOrDefault("TUI", true), "Show the progress TUI")
	logLevel := flag.String("log-level", getEnvOrDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	logFormat := flag.String("log-format", getEnvOrDefault("LOG_FORMAT", "text"), "text, json or pretty")
	logFile := flag.String("log-file", getEnvOrDefault("LOG_FILE", "selfplay.log"), "Game log file when the TUI owns the terminal")
	flag.Parse()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	go func() {
		// Games in flight finish after the first signal; a second one kills
		// the process.
		<-ctx.Done()
		stop()
	}()

	logCfg := logging.Config{Level: *logLevel, Format: logging.Format(*logFormat)}
	var logger *slog.Logger
	if *useTUI {
		l, f, err := logging.OpenFile(*logFile, logCfg)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logger = l
		// Keep the TUI clean.
		log.SetOutput(f)
	} else {
		l, err := logging.New(os.Stderr, logCfg)
		if err != nil {
			log.Fatalf("Bad log config: %v", err)
		}
		logger = l
	}

	cfg := selfplay.DefaultConfig()
	cfg.Map.Width, cfg.Map.Height = int32(*width), int32(*height)
	cfg.Map.Players = *players
	cfg.Map.Constants.MaxTurns = *turns
	cfg.TurnBudget = *turnBudget
	if *tuningPath != "" {
		t, err := bot.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
		cfg.Tuning = t
	}

	played, err := store.OpenSeedLog(*seedLogPath)
	if err != nil {
		log.Fatalf("Failed to open seed log: %v", err)
	}
	defer played.Close()

	batch, err := store.NewGameBatch(*outDir)
	if err != nil {
		log.Fatalf("Failed to prepare output dir: %v", err)
	}

	var results *store.ResultsDB
	if *resultsPath != "" {
		results, err = store.OpenResults(*resultsPath)
		if err != nil {
			log.Fatalf("Failed to open results db: %v", err)
		}
		defer results.Close()
	}

	var hub *stream.Hub
	if *listen != "" {
		hub = stream.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		if results != nil {
			stream.NewAPI(results, logger).RegisterRoutes(mux)
		}
		srv := &http.Server{Addr: *listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("stream server stopped", "error", err)
			}
		}()
		defer func() {
			hub.Close()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	log.Printf("Starting self-play with %d workers", *workers)
	log.Printf("  Out Dir: %s", *outDir)
	log.Printf("  Seed Log: %s (%d already)", *seedLogPath, played.Count())
	log.Printf("  Map: %dx%d, %d players, %d turns", *width, *height, *players, *turns)

	updates := make(chan GameUpdate, *workers)
	finished := make(chan selfplay.PlayGameOutcome, (*workers)*2)

	var recorder resultRecorder
	if results != nil {
		recorder = results
	}
	archiveDone := make(chan struct{})
	go func() {
		archiveLoop(batch, *gamesPerFlush, played, recorder, finished, logger)
		close(archiveDone)
	}()

	seeds := newSeedSource(*seedStart, *maxGames)

	var workerWG sync.WaitGroup
	var running atomic.Int64
	running.Store(int64(*workers))
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(workerID int) {
			defer workerWG.Done()
			defer func() {
				if running.Add(-1) == 0 && *maxGames > 0 {
					cancel()
				}
			}()
			opts := selfplay.PlayGameOptions{
				Logger: logger,
				OnStep: func(p selfplay.Progress) {
					totalTurns.Add(1)
					if hub != nil && workerID == 0 {
						if err := hub.Broadcast(p.Row); err != nil {
							logger.Warn("broadcast failed", "error", err)
						}
					}
				},
			}
			runWorker(ctx, cfg, seeds, played.Played, opts, func(out selfplay.PlayGameOutcome) {
				totalGames.Add(1)
				finished <- out
				// Avoid blocking shutdown if the UI loop stops consuming.
				select {
				case updates <- GameUpdate{WorkerID: workerID, Result: out.Result, Rows: len(out.Rows)}:
				default:
				}
			})
		}(i)
	}

	if *useTUI {
		p := tea.NewProgram(initialModel(updates))
		go func() {
			<-ctx.Done()
			p.Quit()
		}()
		if _, err := p.Run(); err != nil {
			log.Printf("TUI failed: %v", err)
		}
		cancel()
	} else {
		logProgress(ctx, updates)
	}

	log.Printf("Shutdown requested; waiting for workers to finish current games...")
	workerWG.Wait()
	close(finished)
	<-archiveDone
	log.Printf("Shutdown complete: games=%d turns=%d", totalGames.Load(), totalTurns.Load())

	if results != nil {
		standings, err := results.Standings(context.Background())
		if err != nil {
			log.Printf("Failed to read standings: %v", err)
			return
		}
		for _, st := range standings {
			log.Printf("  p%d: games=%d wins=%d mean=%.0f", st.Player, st.Games, st.Wins, st.MeanScore)
		}
	}
}

func logProgress(ctx context.Context, updates <-chan GameUpdate) {
	startTime := time.Now()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-updates:
			log.Printf("Worker %d: %s", u.WorkerID, describe(u))
		case <-ticker.C:
			secs := time.Since(startTime).Seconds()
			log.Printf("Stats: games=%d turns/s=%.1f", totalGames.Load(), float64(totalTurns.Load())/secs)
		}
	}
}

func describe(u GameUpdate) string {
	winner := "tie"
	if u.Result.Winner >= 0 {
		winner = fmt.Sprintf("p%d", u.Result.Winner)
	}
	return fmt.Sprintf("%s winner %s scores %v turns %d collisions %d rows %d",
		u.Result.GameID, winner, u.Result.Scores, u.Result.Turns, u.Result.Collisions, u.Rows)
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64OrDefault(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		var i int64
		if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
