package simulator

import (
	"github.com/brensch/halite3/game"
)

// Memory persists across real turns for the life of one game.
//
// It keeps, per turn number, the committed diffs of earlier planning passes
// so later passes rebuild the same future without recomputing it, and each
// ship's remaining planned path. Memory is never rolled back.
type Memory struct {
	diffs map[int]*StateDifference
	paths map[game.ShipID][]game.Direction
}

func NewMemory() *Memory {
	return &Memory{
		diffs: make(map[int]*StateDifference),
		paths: make(map[game.ShipID][]game.Direction),
	}
}

// Store merges diff into the entry for turn. Later stores win.
func (m *Memory) Store(turn int, diff *StateDifference) {
	if diff == nil || diff.IsEmpty() {
		return
	}
	existing, ok := m.diffs[turn]
	if !ok {
		m.diffs[turn] = diff.Clone()
		return
	}
	existing.Extend(diff)
}

// Load returns a private copy of the diff stored for turn, or nil.
func (m *Memory) Load(turn int) *StateDifference {
	d, ok := m.diffs[turn]
	if !ok {
		return nil
	}
	return d.Clone()
}

func (m *Memory) Has(turn int) bool {
	_, ok := m.diffs[turn]
	return ok
}

// StorePath records the moves a ship still has to make. The first element is
// the next move.
func (m *Memory) StorePath(id game.ShipID, path []game.Direction) {
	if len(path) == 0 {
		delete(m.paths, id)
		return
	}
	m.paths[id] = append([]game.Direction(nil), path...)
}

// TakePath removes and returns a ship's remaining path.
func (m *Memory) TakePath(id game.ShipID) []game.Direction {
	p := m.paths[id]
	delete(m.paths, id)
	return p
}

// ForgetShip drops everything remembered about a ship's plan: its path and
// its predicted state in every stored turn.
func (m *Memory) ForgetShip(id game.ShipID) {
	delete(m.paths, id)
	for _, d := range m.diffs {
		d.dropShip(id)
	}
}

// forgetShipAfter drops a ship from every stored turn later than turn.
func (m *Memory) forgetShipAfter(id game.ShipID, turn int) {
	for t, d := range m.diffs {
		if t > turn {
			d.dropShip(id)
		}
	}
}

// Prune drops diffs for turns before the given turn number. When alive is
// non-nil, ships missing from it are removed from the remaining diffs and
// their paths are forgotten.
func (m *Memory) Prune(before int, alive map[game.ShipID]game.Ship) {
	for turn, d := range m.diffs {
		if turn < before {
			delete(m.diffs, turn)
			continue
		}
		if alive == nil {
			continue
		}
		for id := range d.ships {
			if _, ok := alive[id]; !ok {
				d.dropShip(id)
			}
		}
	}
	if alive == nil {
		return
	}
	for id := range m.paths {
		if _, ok := alive[id]; !ok {
			delete(m.paths, id)
		}
	}
}

// Turns is the number of turn numbers with a stored diff.
func (m *Memory) Turns() int {
	return len(m.diffs)
}
