// Package hlt speaks the Halite III engine protocol over a reader/writer
// pair (stdin/stdout for a real bot). It turns engine frames into
// game.Snapshots and Commands into the end-of-turn line.
//
// Nothing else may write to the output stream: the engine treats every line
// as a command.
package hlt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brensch/halite3/game"
)

// engineConstants is the subset of the constants line the bot uses.
type engineConstants struct {
	MaxEnergy     int   `json:"MAX_ENERGY"`
	NewEntityCost int   `json:"NEW_ENTITY_ENERGY_COST"`
	DropoffCost   int   `json:"DROPOFF_COST"`
	MaxTurns      int   `json:"MAX_TURNS"`
	ExtractRatio  int   `json:"EXTRACT_RATIO"`
	MoveCostRatio int   `json:"MOVE_COST_RATIO"`
	GameSeed      int64 `json:"game_seed"`
}

type Game struct {
	Constants game.Constants
	Seed      int64
	MyID      game.PlayerID
	Turn      int

	in      *bufio.Reader
	out     *bufio.Writer
	players map[game.PlayerID]*game.Player
	order   []game.PlayerID
	halite  *game.Map
}

// NewGame reads the pre-game handshake: constants, players, initial map.
func NewGame(r io.Reader, w io.Writer) (*Game, error) {
	g := &Game{
		in:      bufio.NewReader(r),
		out:     bufio.NewWriter(w),
		players: make(map[game.PlayerID]*game.Player),
	}

	line, err := g.readLine()
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}
	var ec engineConstants
	if err := json.Unmarshal([]byte(line), &ec); err != nil {
		return nil, fmt.Errorf("parse constants: %w", err)
	}
	g.Constants = mergeConstants(ec)
	g.Seed = ec.GameSeed

	ints, err := g.readInts(2)
	if err != nil {
		return nil, fmt.Errorf("read player count: %w", err)
	}
	numPlayers := ints[0]
	g.MyID = game.PlayerID(ints[1])

	for i := 0; i < numPlayers; i++ {
		p, err := g.readInts(3)
		if err != nil {
			return nil, fmt.Errorf("read player %d: %w", i, err)
		}
		id := game.PlayerID(p[0])
		g.players[id] = &game.Player{ID: id, Shipyard: game.Position{X: int32(p[1]), Y: int32(p[2])}}
		g.order = append(g.order, id)
	}

	dims, err := g.readInts(2)
	if err != nil {
		return nil, fmt.Errorf("read map size: %w", err)
	}
	g.halite = game.NewMap(int32(dims[0]), int32(dims[1]))
	for y := 0; y < dims[1]; y++ {
		row, err := g.readInts(dims[0])
		if err != nil {
			return nil, fmt.Errorf("read map row %d: %w", y, err)
		}
		for x, h := range row {
			g.halite.Set(game.Position{X: int32(x), Y: int32(y)}, h)
		}
	}
	return g, nil
}

func mergeConstants(ec engineConstants) game.Constants {
	c := game.DefaultConstants
	if ec.MaxEnergy > 0 {
		c.MaxHalite = ec.MaxEnergy
	}
	if ec.NewEntityCost > 0 {
		c.ShipCost = ec.NewEntityCost
	}
	if ec.DropoffCost > 0 {
		c.DropoffCost = ec.DropoffCost
	}
	if ec.MaxTurns > 0 {
		c.MaxTurns = ec.MaxTurns
	}
	if ec.ExtractRatio > 0 {
		c.ExtractRatio = ec.ExtractRatio
	}
	if ec.MoveCostRatio > 0 {
		c.MoveCostRatio = ec.MoveCostRatio
	}
	return c
}

// Ready tells the engine the bot has finished initialising. The per-turn
// clock starts after this.
func (g *Game) Ready(name string) error {
	return g.writeLine(name)
}

// UpdateFrame reads one turn and returns an independent snapshot of it.
func (g *Game) UpdateFrame() (*game.Snapshot, error) {
	turn, err := g.readInts(1)
	if err != nil {
		return nil, fmt.Errorf("read turn: %w", err)
	}
	g.Turn = turn[0]

	var ships []game.Ship
	for range g.order {
		hdr, err := g.readInts(4)
		if err != nil {
			return nil, fmt.Errorf("turn %d: read player header: %w", g.Turn, err)
		}
		id := game.PlayerID(hdr[0])
		p, ok := g.players[id]
		if !ok {
			return nil, fmt.Errorf("turn %d: unknown player %d", g.Turn, id)
		}
		numShips, numDropoffs := hdr[1], hdr[2]
		p.Halite = hdr[3]
		p.Ships = p.Ships[:0]
		p.Dropoffs = p.Dropoffs[:0]

		for i := 0; i < numShips; i++ {
			s, err := g.readInts(4)
			if err != nil {
				return nil, fmt.Errorf("turn %d: read ship: %w", g.Turn, err)
			}
			ship := game.Ship{
				ID:       game.ShipID(s[0]),
				Owner:    id,
				Position: game.Position{X: int32(s[1]), Y: int32(s[2])},
				Halite:   s[3],
				Capacity: g.Constants.MaxHalite,
			}
			ships = append(ships, ship)
			p.Ships = append(p.Ships, ship.ID)
		}
		for i := 0; i < numDropoffs; i++ {
			d, err := g.readInts(3)
			if err != nil {
				return nil, fmt.Errorf("turn %d: read dropoff: %w", g.Turn, err)
			}
			p.Dropoffs = append(p.Dropoffs, game.Position{X: int32(d[1]), Y: int32(d[2])})
		}
	}

	n, err := g.readInts(1)
	if err != nil {
		return nil, fmt.Errorf("turn %d: read cell update count: %w", g.Turn, err)
	}
	for i := 0; i < n[0]; i++ {
		c, err := g.readInts(3)
		if err != nil {
			return nil, fmt.Errorf("turn %d: read cell update: %w", g.Turn, err)
		}
		g.halite.Set(game.Position{X: int32(c[0]), Y: int32(c[1])}, c[2])
	}

	// The snapshot gets its own copy of everything so later frames cannot
	// change a turn the simulator is still using.
	live := game.NewSnapshot(g.Turn, g.MyID, g.Constants, g.halite, g.players, ships)
	return live.Clone(), nil
}

// EndTurn sends the turn's commands on a single line.
func (g *Game) EndTurn(cmds []Command) error {
	parts := make([]string, 0, len(cmds))
	for _, c := range cmds {
		if s := c.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return g.writeLine(strings.Join(parts, " "))
}

func (g *Game) writeLine(s string) error {
	if _, err := g.out.WriteString(s + "\n"); err != nil {
		return err
	}
	return g.out.Flush()
}

func (g *Game) readLine() (string, error) {
	for {
		line, err := g.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// readInts reads the next non-empty line and parses exactly n integers.
func (g *Game) readInts(n int) ([]int, error) {
	line, err := g.readLine()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d fields, got %d in %q", n, len(fields), line)
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", f, err)
		}
		out[i] = v
	}
	return out, nil
}
