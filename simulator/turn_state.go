package simulator

import (
	"fmt"

	"github.com/brensch/halite3/game"
	"github.com/brensch/halite3/rules"
)

// TurnState is the world at one (possibly hypothetical) turn: the real
// turn's snapshot plus layered diffs, resolved lazily on every lookup.
//
// Lookup order, most specific first:
//  1. speculative: the planning session in progress
//  2. committed: sessions accepted earlier in this real turn
//  3. remembered: what earlier real turns decided for this turn number,
//     over the settled state carried forward from the previous turn
//  4. the snapshot
type TurnState struct {
	number int
	base   *game.Snapshot

	speculative *StateDifference
	committed   *StateDifference
	remembered  *StateDifference
}

// NewCurrent builds the state of the real turn described by snap.
func NewCurrent(snap *game.Snapshot, mem *Memory) *TurnState {
	remembered := mem.Load(snap.Turn)
	if remembered == nil {
		remembered = NewStateDifference()
	}
	return &TurnState{
		number:      snap.Turn,
		base:        snap,
		speculative: NewStateDifference(),
		committed:   NewStateDifference(),
		remembered:  remembered,
	}
}

// NewNext builds the turn after prev. The snapshot is shared, not copied.
func NewNext(prev *TurnState, mem *Memory) *TurnState {
	remembered := prev.remembered.Clone()
	remembered.Extend(prev.committed)
	remembered.Extend(mem.Load(prev.number + 1))
	return &TurnState{
		number:      prev.number + 1,
		base:        prev.base,
		speculative: NewStateDifference(),
		committed:   NewStateDifference(),
		remembered:  remembered,
	}
}

func (t *TurnState) Number() int {
	return t.number
}

func (t *TurnState) layers() [3]*StateDifference {
	return [3]*StateDifference{t.speculative, t.committed, t.remembered}
}

func (t *TurnState) HaliteAt(pos game.Position) int {
	pos = t.base.Map.Normalize(pos)
	for _, l := range t.layers() {
		if h, ok := l.Halite(pos); ok {
			return h
		}
	}
	return t.base.Map.At(pos)
}

func (t *TurnState) LookupShip(id game.ShipID) (game.Ship, bool) {
	for _, l := range t.layers() {
		if s, ok := l.Ship(id); ok {
			return s, true
		}
	}
	return t.base.Ship(id)
}

// Ship panics if the ship exists in no layer: callers look ids up in the
// snapshot first, so a miss is a logic error.
func (t *TurnState) Ship(id game.ShipID) game.Ship {
	s, ok := t.LookupShip(id)
	if !ok {
		panic(fmt.Sprintf("simulator: ship %d does not exist on turn %d", id, t.number))
	}
	return s
}

// ShipAt returns the ship whose resolved position is pos. Index entries in a
// layer can be stale when a more specific layer moved that ship away, so
// every hit is checked against the ship's resolved position. A stale hit
// falls back to scanning that layer, since a second ship on the same cell
// (a predicted collision) is not indexed.
func (t *TurnState) ShipAt(pos game.Position) (game.ShipID, bool) {
	pos = t.base.Map.Normalize(pos)
	for _, l := range t.layers() {
		id, ok := l.ShipAt(pos)
		if !ok {
			continue
		}
		if t.resolvesTo(id, pos) {
			return id, true
		}
		for other, s := range l.ships {
			if other != id && s.Position == pos && t.resolvesTo(other, pos) {
				return other, true
			}
		}
	}
	if id, ok := t.base.ShipAt(pos); ok && t.resolvesTo(id, pos) {
		return id, true
	}
	return 0, false
}

func (t *TurnState) resolvesTo(id game.ShipID, pos game.Position) bool {
	s, ok := t.LookupShip(id)
	return ok && s.Position == pos
}

// ApplyAction writes the consequences of a into the speculative layer. The
// ship and its origin cell are read from source, the turn on which the
// action is decided; nil means t itself.
func (t *TurnState) ApplyAction(a Action, source *TurnState) {
	if a.Kind != ActionMoveShip {
		return
	}
	if source == nil {
		source = t
	}
	ship := source.Ship(a.Ship)
	origin := source.HaliteAt(ship.Position)

	moved, cell := rules.Move(ship, a.Direction, origin, t.base.Map, t.base.Constants)
	if cell != origin {
		t.speculative.SetHalite(ship.Position, cell)
	}

	var old *game.Ship
	if prev, ok := t.speculative.Ship(ship.ID); ok {
		old = &prev
	}
	t.speculative.SetShip(moved, old)
}

// CloneOverwritesFrom replaces the speculative layer with a copy of prev's,
// so what happened up to prev is visible here before this turn's own
// action is applied.
func (t *TurnState) CloneOverwritesFrom(prev *TurnState) {
	t.speculative = prev.speculative.Clone()
}

func (t *TurnState) Rollback() {
	t.speculative.Clear()
}

// Commit folds the speculative layer into the committed one.
func (t *TurnState) Commit() {
	t.committed.Extend(t.speculative)
	t.speculative.Clear()
}

// Save persists the committed layer under this turn number.
func (t *TurnState) Save(mem *Memory) {
	mem.Store(t.number, t.committed)
}
