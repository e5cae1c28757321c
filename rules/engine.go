package rules

import (
	"log/slog"
	"math/rand"
	"sort"

	"github.com/brensch/halite3/game"
)

// Orders is everything one player asks for in one turn.
type Orders struct {
	Moves map[game.ShipID]game.Direction
	Spawn bool
}

// StepResult summarizes what happened during one authoritative turn.
type StepResult struct {
	Spawned   []game.ShipID
	Destroyed []game.ShipID
	Deposited map[game.PlayerID]int
}

// Game is the authoritative state of a local match.
type Game struct {
	State *game.Snapshot

	nextShipID game.ShipID
	logger     *slog.Logger
}

// NewGame generates a symmetric map and places the players' shipyards.
func NewGame(cfg MapConfig, rng *rand.Rand, logger *slog.Logger) *Game {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m, yards := GenerateMap(cfg, rng)

	constants := cfg.Constants
	if constants == (game.Constants{}) {
		constants = game.DefaultConstants
	}

	players := make(map[game.PlayerID]*game.Player, len(yards))
	for i, yard := range yards {
		id := game.PlayerID(i)
		players[id] = &game.Player{ID: id, Shipyard: yard, Halite: cfg.StartingHalite}
	}

	return &Game{
		State:  game.NewSnapshot(0, 0, constants, m, players, nil),
		logger: logger,
	}
}

// View returns a copy of the current state from one player's perspective.
func (g *Game) View(player game.PlayerID) *game.Snapshot {
	v := g.State.Clone()
	v.MyID = player
	return v
}

func (g *Game) IsOver() bool {
	return g.State.Turn >= g.State.Constants.MaxTurns
}

// Scores returns banked halite per player.
func (g *Game) Scores() map[game.PlayerID]int {
	out := make(map[game.PlayerID]int, len(g.State.Players))
	for id, p := range g.State.Players {
		out[id] = p.Halite
	}
	return out
}

// Step applies every player's orders and advances the turn counter.
//
// Order of resolution: movement (paying fuel), spawns, collisions (all ships
// sharing a cell are destroyed and their cargo is spilled onto it), mining
// for ships that did not move, then deposits on shipyards and dropoffs.
func (g *Game) Step(orders map[game.PlayerID]Orders) StepResult {
	prev := g.State
	next := prev.Clone()
	next.Turn++
	c := next.Constants
	res := StepResult{Deposited: make(map[game.PlayerID]int)}

	ships := make([]game.Ship, 0, len(prev.Ships)+len(prev.Players))
	stayed := make(map[game.ShipID]bool, len(prev.Ships))

	for _, id := range sortedShipIDs(prev.Ships) {
		ship := prev.Ships[id]
		dir := game.Still
		if o, ok := orders[ship.Owner]; ok {
			if d, ok := o.Moves[id]; ok {
				dir = d
			}
		}
		origin := prev.Map.At(ship.Position)
		if dir.IsCardinal() && ship.Halite >= MoveCostRatio(origin, c.MoveCostRatio) {
			ship.Halite -= MoveCostRatio(origin, c.MoveCostRatio)
			ship.Position = next.Map.Normalize(ship.Position.Offset(dir))
		} else {
			stayed[id] = true
		}
		ships = append(ships, ship)
	}

	for _, pid := range sortedPlayerIDs(next.Players) {
		o, ok := orders[pid]
		if !ok || !o.Spawn {
			continue
		}
		p := next.Players[pid]
		if p.Halite < c.ShipCost {
			g.logger.Debug("spawn rejected", "player", pid, "halite", p.Halite)
			continue
		}
		p.Halite -= c.ShipCost
		g.nextShipID++
		id := g.nextShipID
		ships = append(ships, game.Ship{ID: id, Owner: pid, Position: p.Shipyard, Capacity: c.MaxHalite})
		stayed[id] = true
		res.Spawned = append(res.Spawned, id)
	}

	byCell := make(map[game.Position][]int, len(ships))
	for i, ship := range ships {
		byCell[ship.Position] = append(byCell[ship.Position], i)
	}
	destroyed := make(map[int]bool)
	for pos, idx := range byCell {
		if len(idx) < 2 {
			continue
		}
		spill := 0
		for _, i := range idx {
			destroyed[i] = true
			spill += ships[i].Halite
			res.Destroyed = append(res.Destroyed, ships[i].ID)
		}
		next.Map.Set(pos, next.Map.At(pos)+spill)
	}
	sort.Slice(res.Destroyed, func(i, j int) bool { return res.Destroyed[i] < res.Destroyed[j] })

	survivors := make([]game.Ship, 0, len(ships))
	for i, ship := range ships {
		if destroyed[i] {
			continue
		}
		if stayed[ship.ID] {
			cell := next.Map.At(ship.Position)
			collected := Mine(cell, ship, c)
			ship.Halite += collected
			next.Map.Set(ship.Position, cell-collected)
		}
		if ship.Halite > 0 && next.IsDropoff(ship.Owner, ship.Position) {
			next.Players[ship.Owner].Halite += ship.Halite
			res.Deposited[ship.Owner] += ship.Halite
			ship.Halite = 0
		}
		survivors = append(survivors, ship)
	}

	for _, p := range next.Players {
		p.Ships = p.Ships[:0]
	}
	for _, ship := range survivors {
		p := next.Players[ship.Owner]
		p.Ships = append(p.Ships, ship.ID)
	}

	g.State = game.NewSnapshot(next.Turn, next.MyID, c, next.Map, next.Players, survivors)
	if len(res.Destroyed) > 0 {
		g.logger.Debug("collisions", "turn", next.Turn, "destroyed", len(res.Destroyed))
	}
	return res
}

func sortedShipIDs(ships map[game.ShipID]game.Ship) []game.ShipID {
	ids := make([]game.ShipID, 0, len(ships))
	for id := range ships {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedPlayerIDs(players map[game.PlayerID]*game.Player) []game.PlayerID {
	ids := make([]game.PlayerID, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
