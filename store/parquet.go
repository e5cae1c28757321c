package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/halite3/game"
)

// TurnRow is a single (game, turn) snapshot of a self-play match.
//
// Halite is the full map in row-major order (y*width + x). It compresses well
// because most of the map changes little between turns.
type TurnRow struct {
	GameID string `parquet:"game_id,dict"`
	Seed   int64  `parquet:"seed"`
	Turn   int32  `parquet:"turn"`
	Width  int32  `parquet:"width"`
	Height int32  `parquet:"height"`

	Halite []int32 `parquet:"halite"`

	Players []PlayerRow `parquet:"players"`
	Ships   []ShipRow   `parquet:"ships"`

	Source string `parquet:"source,dict"`
}

type PlayerRow struct {
	ID        int32   `parquet:"id"`
	Halite    int32   `parquet:"halite"`
	ShipyardX int32   `parquet:"shipyard_x"`
	ShipyardY int32   `parquet:"shipyard_y"`
	DropoffX  []int32 `parquet:"dropoff_x"`
	DropoffY  []int32 `parquet:"dropoff_y"`
	Spawned   bool    `parquet:"spawned"`
}

// ShipRow is one ship at the start of the turn plus the command its owner
// issued for it ("" when the ship was left without a command).
type ShipRow struct {
	ID      int32  `parquet:"id"`
	Owner   int32  `parquet:"owner"`
	X       int32  `parquet:"x"`
	Y       int32  `parquet:"y"`
	Halite  int32  `parquet:"halite"`
	Command string `parquet:"command,dict"`
}

// NewTurnRow flattens a snapshot into an archive row. commands maps ship ids
// to the command string issued for them; spawned lists players that issued a
// spawn this turn.
func NewTurnRow(gameID string, seed int64, snap *game.Snapshot, commands map[game.ShipID]string, spawned map[game.PlayerID]bool) TurnRow {
	m := snap.Map
	row := TurnRow{
		GameID: gameID,
		Seed:   seed,
		Turn:   int32(snap.Turn),
		Width:  m.Width,
		Height: m.Height,
		Halite: make([]int32, 0, int(m.Width)*int(m.Height)),
		Source: "selfplay",
	}
	for y := int32(0); y < m.Height; y++ {
		for x := int32(0); x < m.Width; x++ {
			row.Halite = append(row.Halite, int32(m.At(game.Position{X: x, Y: y})))
		}
	}

	pids := make([]game.PlayerID, 0, len(snap.Players))
	for id := range snap.Players {
		pids = append(pids, id)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })
	for _, id := range pids {
		p := snap.Players[id]
		pr := PlayerRow{
			ID:        int32(p.ID),
			Halite:    int32(p.Halite),
			ShipyardX: p.Shipyard.X,
			ShipyardY: p.Shipyard.Y,
			Spawned:   spawned[p.ID],
		}
		for _, d := range p.Dropoffs {
			pr.DropoffX = append(pr.DropoffX, d.X)
			pr.DropoffY = append(pr.DropoffY, d.Y)
		}
		row.Players = append(row.Players, pr)
	}

	sids := make([]game.ShipID, 0, len(snap.Ships))
	for id := range snap.Ships {
		sids = append(sids, id)
	}
	sort.Slice(sids, func(i, j int) bool { return sids[i] < sids[j] })
	for _, id := range sids {
		s := snap.Ships[id]
		row.Ships = append(row.Ships, ShipRow{
			ID:      int32(s.ID),
			Owner:   int32(s.Owner),
			X:       s.Position.X,
			Y:       s.Position.Y,
			Halite:  int32(s.Halite),
			Command: commands[id],
		})
	}
	return row
}

// WriteTurnsParquet writes one game's rows to outPath via a temp file and an
// atomic rename.
func WriteTurnsParquet(outPath string, rows []TurnRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("halite"),
		parquet.KeyValueMetadata("schema", "halite_turn_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteTurnsBatchParquet writes rows from several games into a new
// batch_<nanos>.parquet file under outDir and returns its path.
func WriteTurnsBatchParquet(outDir string, rows []TurnRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("batch_%d.parquet", time.Now().UnixNano())
	outPath := filepath.Join(outDir, name)
	if err := WriteTurnsParquet(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// ReadTurnsParquet loads every row of an archive file.
func ReadTurnsParquet(path string) ([]TurnRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[TurnRow](pf)
	defer reader.Close()

	out := make([]TurnRow, 0, reader.NumRows())
	for {
		// Fresh buffer per read: the reader reuses nested slices of the rows it fills.
		buf := make([]TurnRow, 64)
		n, err := reader.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		if n == 0 {
			return out, nil
		}
	}
}
