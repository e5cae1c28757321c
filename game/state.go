// Package game defines the core world types for Halite III.
//
// A Snapshot is the authoritative state of one real turn. It is treated as
// immutable once handed to the simulator: every hypothetical future turn
// shares the same Snapshot and records its changes in diffs.
package game

import (
	"sort"
)

type PlayerID int

type ShipID int

// Ship is a player-controlled unit carrying halite.
type Ship struct {
	ID       ShipID
	Owner    PlayerID
	Position Position
	Halite   int
	Capacity int
}

func (s Ship) IsFull() bool {
	return s.Halite >= s.Capacity
}

// Room is the halite the ship can still take on.
func (s Ship) Room() int {
	if s.Halite >= s.Capacity {
		return 0
	}
	return s.Capacity - s.Halite
}

type Player struct {
	ID       PlayerID
	Shipyard Position
	Dropoffs []Position
	Halite   int
	Ships    []ShipID
}

// Constants are the game parameters the engine announces before turn 1.
type Constants struct {
	MaxHalite     int
	ShipCost      int
	DropoffCost   int
	MaxTurns      int
	ExtractRatio  int
	MoveCostRatio int
}

// DefaultConstants matches the standard Halite III ruleset.
var DefaultConstants = Constants{
	MaxHalite:     1000,
	ShipCost:      1000,
	DropoffCost:   4000,
	MaxTurns:      400,
	ExtractRatio:  4,
	MoveCostRatio: 10,
}

// Snapshot is the complete state of one real turn as seen by one player.
type Snapshot struct {
	Turn      int
	MyID      PlayerID
	Constants Constants
	Map       *Map
	Players   map[PlayerID]*Player
	Ships     map[ShipID]Ship

	occupancy map[Position]ShipID
}

// NewSnapshot builds a snapshot and its position index. Ship positions are
// normalized onto the map.
func NewSnapshot(turn int, me PlayerID, constants Constants, m *Map, players map[PlayerID]*Player, ships []Ship) *Snapshot {
	s := &Snapshot{
		Turn:      turn,
		MyID:      me,
		Constants: constants,
		Map:       m,
		Players:   players,
		Ships:     make(map[ShipID]Ship, len(ships)),
	}
	if s.Players == nil {
		s.Players = make(map[PlayerID]*Player)
	}
	for _, ship := range ships {
		ship.Position = m.Normalize(ship.Position)
		s.Ships[ship.ID] = ship
	}
	s.reindex()
	return s
}

func (s *Snapshot) reindex() {
	s.occupancy = make(map[Position]ShipID, len(s.Ships))
	for id, ship := range s.Ships {
		s.occupancy[ship.Position] = id
	}
}

func (s *Snapshot) Ship(id ShipID) (Ship, bool) {
	ship, ok := s.Ships[id]
	return ship, ok
}

// ShipAt returns the ship occupying pos, if any.
func (s *Snapshot) ShipAt(pos Position) (ShipID, bool) {
	if s.occupancy == nil {
		s.reindex()
	}
	id, ok := s.occupancy[s.Map.Normalize(pos)]
	return id, ok
}

func (s *Snapshot) HaliteAt(pos Position) int {
	return s.Map.At(pos)
}

func (s *Snapshot) Me() *Player {
	return s.Players[s.MyID]
}

// MyShips returns the ids of the current player's ships in ascending order.
func (s *Snapshot) MyShips() []ShipID {
	var ids []ShipID
	for id, ship := range s.Ships {
		if ship.Owner == s.MyID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsDropoff reports whether pos is a shipyard or dropoff of the given player.
func (s *Snapshot) IsDropoff(owner PlayerID, pos Position) bool {
	p, ok := s.Players[owner]
	if !ok {
		return false
	}
	pos = s.Map.Normalize(pos)
	if p.Shipyard == pos {
		return true
	}
	for _, d := range p.Dropoffs {
		if d == pos {
			return true
		}
	}
	return false
}

// Clone performs a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := &Snapshot{
		Turn:      s.Turn,
		MyID:      s.MyID,
		Constants: s.Constants,
		Map:       s.Map.Clone(),
		Players:   make(map[PlayerID]*Player, len(s.Players)),
		Ships:     make(map[ShipID]Ship, len(s.Ships)),
	}

	for id, p := range s.Players {
		cp := *p
		if len(p.Dropoffs) > 0 {
			cp.Dropoffs = make([]Position, len(p.Dropoffs))
			copy(cp.Dropoffs, p.Dropoffs)
		}
		if len(p.Ships) > 0 {
			cp.Ships = make([]ShipID, len(p.Ships))
			copy(cp.Ships, p.Ships)
		}
		out.Players[id] = &cp
	}
	for id, ship := range s.Ships {
		out.Ships[id] = ship
	}
	out.reindex()

	return out
}
