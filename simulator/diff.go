package simulator

import (
	"fmt"

	"github.com/brensch/halite3/game"
)

// StateDifference is a sparse overlay on the game state. Only the cells and
// ships that differ from the layer below are stored; copying the whole map
// per hypothetical turn would be far too expensive.
//
// shipPos is an index over ships: every entry points at a ship stored in
// ships whose Position is the key, and every cell holding a ship of this
// layer has an entry. When ships share a cell only one of them is indexed.
type StateDifference struct {
	ships   map[game.ShipID]game.Ship
	shipPos map[game.Position]game.ShipID
	halite  map[game.Position]int
}

func NewStateDifference() *StateDifference {
	return &StateDifference{
		ships:   make(map[game.ShipID]game.Ship),
		shipPos: make(map[game.Position]game.ShipID),
		halite:  make(map[game.Position]int),
	}
}

func (d *StateDifference) Ship(id game.ShipID) (game.Ship, bool) {
	s, ok := d.ships[id]
	return s, ok
}

// SetShip stores a ship. old is the previous version of the same ship in this
// layer, if any; its index entry is dropped before the new one is written.
func (d *StateDifference) SetShip(ship game.Ship, old *game.Ship) {
	if old != nil {
		if old.ID != ship.ID {
			panic(fmt.Sprintf("simulator: SetShip with mismatched ids: old %d, new %d", old.ID, ship.ID))
		}
		if old.Position != ship.Position && d.shipPos[old.Position] == old.ID {
			d.unindex(old.Position, old.ID)
		}
	}
	d.shipPos[ship.Position] = ship.ID
	d.ships[ship.ID] = ship
}

// unindex removes the entry for id at pos and points it at another ship
// still on pos, if any.
func (d *StateDifference) unindex(pos game.Position, id game.ShipID) {
	delete(d.shipPos, pos)
	if other, ok := d.scan(pos, id); ok {
		d.shipPos[pos] = other
	}
}

// scan finds a ship of this layer on pos other than skip.
func (d *StateDifference) scan(pos game.Position, skip game.ShipID) (game.ShipID, bool) {
	for id, s := range d.ships {
		if id != skip && s.Position == pos {
			return id, true
		}
	}
	return 0, false
}

func (d *StateDifference) dropShip(id game.ShipID) {
	s, ok := d.ships[id]
	if !ok {
		return
	}
	delete(d.ships, id)
	if d.shipPos[s.Position] == id {
		d.unindex(s.Position, id)
	}
}

// ShipAt returns the id indexed at pos in this layer.
func (d *StateDifference) ShipAt(pos game.Position) (game.ShipID, bool) {
	id, ok := d.shipPos[pos]
	return id, ok
}

func (d *StateDifference) Halite(pos game.Position) (int, bool) {
	h, ok := d.halite[pos]
	return h, ok
}

func (d *StateDifference) SetHalite(pos game.Position, halite int) {
	d.halite[pos] = halite
}

func (d *StateDifference) Clear() {
	clear(d.ships)
	clear(d.shipPos)
	clear(d.halite)
}

// Extend overwrites entries in d with those of other.
func (d *StateDifference) Extend(other *StateDifference) {
	if other == nil {
		return
	}
	for id, ship := range other.ships {
		if prev, ok := d.ships[id]; ok {
			d.SetShip(ship, &prev)
		} else {
			d.SetShip(ship, nil)
		}
	}
	for pos, h := range other.halite {
		d.halite[pos] = h
	}
}

func (d *StateDifference) Clone() *StateDifference {
	out := &StateDifference{
		ships:   make(map[game.ShipID]game.Ship, len(d.ships)),
		shipPos: make(map[game.Position]game.ShipID, len(d.shipPos)),
		halite:  make(map[game.Position]int, len(d.halite)),
	}
	for id, s := range d.ships {
		out.ships[id] = s
	}
	for pos, id := range d.shipPos {
		out.shipPos[pos] = id
	}
	for pos, h := range d.halite {
		out.halite[pos] = h
	}
	return out
}

// Len is the number of overwritten ships plus overwritten cells.
func (d *StateDifference) Len() int {
	return len(d.ships) + len(d.halite)
}

func (d *StateDifference) IsEmpty() bool {
	return d.Len() == 0
}

// Ships returns a copy of the overwritten ships.
func (d *StateDifference) Ships() map[game.ShipID]game.Ship {
	out := make(map[game.ShipID]game.Ship, len(d.ships))
	for id, s := range d.ships {
		out[id] = s
	}
	return out
}

// Cells returns a copy of the overwritten cells.
func (d *StateDifference) Cells() map[game.Position]int {
	out := make(map[game.Position]int, len(d.halite))
	for pos, h := range d.halite {
		out[pos] = h
	}
	return out
}
