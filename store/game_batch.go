package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Batch is one parquet file of finished self-play games.
type Batch struct {
	Path  string
	Rows  int
	Games []GameRecord
}

// Seeds lists the seeds of the games in the batch, in the order they were
// added.
func (b Batch) Seeds() []int64 {
	out := make([]int64, len(b.Games))
	for i, g := range b.Games {
		out[i] = g.Seed
	}
	return out
}

// GameBatch collects finished games into batch_<nanos>_<seq>.parquet under dir.
// Rows stream into <file>.tmp as games are added; Flush renames it and
// hands back the games it holds, so the caller marks seeds and records
// results only once they are on disk.
type GameBatch struct {
	dir string

	path string
	f    *os.File
	w    *parquet.GenericWriter[TurnRow]

	games []GameRecord
	rows  int
	seq   int
}

func NewGameBatch(dir string) (*GameBatch, error) {
	if dir == "" {
		return nil, fmt.Errorf("batch dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}
	return &GameBatch{dir: dir}, nil
}

// Len is the number of games waiting for Flush.
func (b *GameBatch) Len() int { return len(b.games) }

// Add appends one finished game. The parquet file is created on the first
// game of each batch. A game whose rows belong to another game is rejected
// before anything is written; a failed write leaves a partial game in the
// file and the batch must be discarded.
func (b *GameBatch) Add(g GameRecord, rows []TurnRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("game %s has no rows", g.GameID)
	}
	for _, r := range rows {
		if r.GameID != g.GameID || r.Seed != g.Seed {
			return fmt.Errorf("row of %s (seed %d) in game %s (seed %d)", r.GameID, r.Seed, g.GameID, g.Seed)
		}
	}
	if b.w == nil {
		if err := b.open(); err != nil {
			return err
		}
	}
	if _, err := b.w.Write(rows); err != nil {
		return fmt.Errorf("write game %s: %w", g.GameID, err)
	}
	b.games = append(b.games, g)
	b.rows += len(rows)
	return nil
}

func (b *GameBatch) open() error {
	b.seq++
	b.path = filepath.Join(b.dir, fmt.Sprintf("batch_%d_%03d.parquet", time.Now().UnixNano(), b.seq))
	f, err := os.OpenFile(b.path+".tmp", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open batch: %w", err)
	}
	b.f = f
	b.w = parquet.NewGenericWriter[TurnRow](f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("halite"),
	)
	b.w.SetKeyValueMetadata("schema", "halite_turn_v1")
	return nil
}

// Flush closes the current file, moves it into place and starts a new
// batch. With no games added it returns an empty Batch.
func (b *GameBatch) Flush() (Batch, error) {
	if b.w == nil {
		return Batch{}, nil
	}
	out := Batch{Path: b.path, Rows: b.rows, Games: b.games}
	tmp := b.path + ".tmp"

	err := b.w.Close()
	if syncErr := b.f.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := b.f.Close(); err == nil {
		err = closeErr
	}
	b.reset()
	if err != nil {
		_ = os.Remove(tmp)
		return Batch{}, fmt.Errorf("close batch %s: %w", out.Path, err)
	}
	if err := os.Rename(tmp, out.Path); err != nil {
		_ = os.Remove(tmp)
		return Batch{}, fmt.Errorf("rename batch: %w", err)
	}
	return out, nil
}

// Discard drops the games added since the last Flush.
func (b *GameBatch) Discard() {
	if b.w == nil {
		return
	}
	_ = b.w.Close()
	_ = b.f.Close()
	_ = os.Remove(b.path + ".tmp")
	b.reset()
}

func (b *GameBatch) reset() {
	b.w, b.f, b.path = nil, nil, ""
	b.games, b.rows = nil, 0
}
