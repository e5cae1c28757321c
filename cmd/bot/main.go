package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/brensch/halite3/bot"
	"github.com/brensch/halite3/hlt"
	"github.com/brensch/halite3/logging"
	"github.com/brensch/halite3/store"
)

const botName = "halite3-sim"

func main() {
	seed := flag.Int64("seed", getEnvInt64OrDefault("BOT_SEED", 0), "RNG seed for path sampling (0 = derive from the game seed)")
	logDir := flag.String("log-dir", getEnvOrDefault("BOT_LOG_DIR", "."), "Directory for bot-<player>.log")
	logLevel := flag.String("log-level", getEnvOrDefault("BOT_LOG_LEVEL", "info"), "debug, info, warn or error")
	logFormat := flag.String("log-format", getEnvOrDefault("BOT_LOG_FORMAT", "text"), "text, json or pretty")
	tuningPath := flag.String("tuning", getEnvOrDefault("BOT_TUNING", ""), "Optional YAML file with planner tuning")
	tracePath := flag.String("trace", getEnvOrDefault("BOT_TRACE", ""), "Optional zstd JSONL file recording every decision")
	budget := flag.Duration("turn-budget", getEnvDurationOrDefault("BOT_TURN_BUDGET", 1500*time.Millisecond), "Planning time per turn")
	flag.Parse()

	// stdout belongs to the engine.
	log.SetOutput(os.Stderr)

	tuning := bot.DefaultTuning()
	if *tuningPath != "" {
		t, err := bot.LoadTuning(*tuningPath)
		if err != nil {
			log.Fatalf("Failed to load tuning: %v", err)
		}
		tuning = t
	}

	g, err := hlt.NewGame(os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("Failed to read game start: %v", err)
	}

	logger, logFile, err := logging.OpenFile(
		filepath.Join(*logDir, fmt.Sprintf("bot-%d.log", g.MyID)),
		logging.Config{Level: *logLevel, Format: logging.Format(*logFormat)},
	)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer logFile.Close()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = g.Seed*31 + int64(g.MyID)
	}

	opts := []bot.Option{bot.WithLogger(logger)}
	var trace *store.TraceWriter
	if *tracePath != "" {
		trace, err = store.NewTraceWriter(*tracePath)
		if err != nil {
			log.Fatalf("Failed to open trace: %v", err)
		}
		defer trace.Close()
		opts = append(opts, bot.WithTracer(trace))
	}
	b := bot.New(tuning, rand.New(rand.NewSource(rngSeed)), opts...)

	if err := g.Ready(botName); err != nil {
		log.Fatalf("Failed to send ready: %v", err)
	}
	logger.Info("bot ready", "player", int(g.MyID), "seed", rngSeed, "game_seed", g.Seed, "candidates", tuning.Candidates)

	for {
		snap, err := g.UpdateFrame()
		if errors.Is(err, io.EOF) {
			logger.Info("engine closed the stream", "turn", g.Turn)
			return
		}
		if err != nil {
			logger.Error("bad frame", "error", err)
			return
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), *budget)
		cmds := b.PlayTurn(ctx, snap)
		cancel()

		if err := g.EndTurn(cmds); err != nil {
			logger.Error("failed to send commands", "turn", snap.Turn, "error", err)
			return
		}
		if trace != nil {
			// The engine kills the bot after the last turn; keep the trace decodable.
			if err := trace.Flush(); err != nil {
				logger.Warn("trace flush failed", "error", err)
			}
		}
		logger.Debug("turn done", "turn", snap.Turn, "ships", len(snap.MyShips()), "commands", len(cmds), "took", time.Since(start))
	}
}

// Environment variable helpers
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
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
