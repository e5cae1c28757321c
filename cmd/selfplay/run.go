package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brensch/halite3/selfplay"
	"github.com/brensch/halite3/store"
)

// seedSource hands consecutive seeds to workers. last < 0 means no limit.
type seedSource struct {
	next atomic.Int64
	last int64
}

func newSeedSource(first int64, games int) *seedSource {
	s := &seedSource{last: -1}
	s.next.Store(first)
	if games > 0 {
		s.last = first + int64(games) - 1
	}
	return s
}

func (s *seedSource) take() (int64, bool) {
	seed := s.next.Add(1) - 1
	if s.last >= 0 && seed > s.last {
		return 0, false
	}
	return seed, true
}

// runWorker plays seeds until ctx is cancelled or the seeds run out. A game
// already running when ctx is cancelled is played to the end, so no work is
// thrown away on shutdown.
func runWorker(ctx context.Context, cfg selfplay.Config, seeds *seedSource, played func(int64) bool, opts selfplay.PlayGameOptions, finished func(selfplay.PlayGameOutcome)) {
	gameCtx := context.WithoutCancel(ctx)
	for ctx.Err() == nil {
		seed, ok := seeds.take()
		if !ok {
			return
		}
		if played != nil && played(seed) {
			continue
		}
		out := selfplay.PlayGame(gameCtx, cfg, seed, opts)
		if out.Completed {
			finished(out)
		}
	}
}

type resultRecorder interface {
	Record(ctx context.Context, g store.GameRecord) error
}

// archiveLoop adds finished games to parquet batches. Once a batch is on
// disk its seeds are marked played and its results recorded; a batch that
// fails to write is dropped whole and its seeds are replayed next run.
func archiveLoop(batch *store.GameBatch, gamesPerFlush int, seeds *store.SeedLog, results resultRecorder, in <-chan selfplay.PlayGameOutcome, logger *slog.Logger) {
	if gamesPerFlush <= 0 {
		gamesPerFlush = 20
	}

	flush := func() {
		b, err := batch.Flush()
		if err != nil {
			logger.Error("batch flush failed", "error", err)
			return
		}
		if len(b.Games) == 0 {
			return
		}
		if err := seeds.MarkPlayed(b.Games); err != nil {
			logger.Error("seed log append failed", "error", err)
		}
		if results != nil {
			for _, g := range b.Games {
				if err := results.Record(context.Background(), g); err != nil {
					logger.Error("record result", "game", g.GameID, "error", err)
				}
			}
		}
		logger.Info("batch flushed", "path", b.Path, "seeds", b.Seeds(), "rows", b.Rows)
	}

	for out := range in {
		rec := toRecord(out.Result)
		if err := batch.Add(rec, out.Rows); err != nil {
			logger.Error("archive game", "game", rec.GameID, "dropped_games", batch.Len(), "error", err)
			batch.Discard()
			continue
		}
		if batch.Len() >= gamesPerFlush {
			flush()
		}
	}
	flush()
}

func toRecord(r selfplay.GameResult) store.GameRecord {
	scores := make(map[int]int, len(r.Scores))
	for pid, h := range r.Scores {
		scores[int(pid)] = h
	}
	return store.GameRecord{
		GameID:     r.GameID,
		Seed:       r.Seed,
		Turns:      r.Turns,
		Winner:     int(r.Winner),
		Collisions: r.Collisions,
		Scores:     scores,
		FinishedAt: time.Now(),
	}
}
