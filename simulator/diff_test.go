package simulator

import (
	"testing"

	"github.com/brensch/halite3/game"
)

func sampleShip(id game.ShipID, x, y int32) game.Ship {
	return game.Ship{ID: id, Owner: 0, Position: game.Position{X: x, Y: y}, Capacity: 1000}
}

func TestStateDifference_SetShipMovesIndex(t *testing.T) {
	d := NewStateDifference()
	first := sampleShip(1, 4, 8)
	d.SetShip(first, nil)

	if id, ok := d.ShipAt(first.Position); !ok || id != 1 {
		t.Fatalf("ShipAt(%v) = %d, %v", first.Position, id, ok)
	}

	moved := first
	moved.Position = game.Position{X: 5, Y: 8}
	d.SetShip(moved, &first)

	if _, ok := d.ShipAt(first.Position); ok {
		t.Errorf("stale index entry left at %v", first.Position)
	}
	if id, ok := d.ShipAt(moved.Position); !ok || id != 1 {
		t.Errorf("ShipAt(%v) = %d, %v", moved.Position, id, ok)
	}
	if got, _ := d.Ship(1); got.Position != moved.Position {
		t.Errorf("Ship(1) at %v, want %v", got.Position, moved.Position)
	}
}

func TestStateDifference_SetShipMismatchedIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for mismatched ids")
		}
	}()
	d := NewStateDifference()
	old := sampleShip(1, 0, 0)
	d.SetShip(sampleShip(2, 1, 1), &old)
}

func TestStateDifference_ExtendIsRightBiased(t *testing.T) {
	base := NewStateDifference()
	base.SetShip(sampleShip(1, 1, 1), nil)
	base.SetShip(sampleShip(2, 2, 2), nil)
	base.SetHalite(game.Position{X: 1, Y: 1}, 10)
	base.SetHalite(game.Position{X: 3, Y: 3}, 30)

	over := NewStateDifference()
	over.SetShip(sampleShip(1, 6, 6), nil)
	over.SetHalite(game.Position{X: 1, Y: 1}, 99)

	base.Extend(over)

	if s, _ := base.Ship(1); s.Position != (game.Position{X: 6, Y: 6}) {
		t.Errorf("ship 1 at %v, want (6,6)", s.Position)
	}
	if _, ok := base.ShipAt(game.Position{X: 1, Y: 1}); ok {
		t.Errorf("index still points at ship 1's old cell")
	}
	if id, ok := base.ShipAt(game.Position{X: 2, Y: 2}); !ok || id != 2 {
		t.Errorf("ship 2 lost from index")
	}
	if h, _ := base.Halite(game.Position{X: 1, Y: 1}); h != 99 {
		t.Errorf("cell (1,1) = %d, want 99", h)
	}
	if h, _ := base.Halite(game.Position{X: 3, Y: 3}); h != 30 {
		t.Errorf("cell (3,3) = %d, want 30", h)
	}

	// Every index entry names a stored ship at that position.
	for pos, id := range base.shipPos {
		s, ok := base.ships[id]
		if !ok || s.Position != pos {
			t.Errorf("index %v -> %d disagrees with ships map (%v, %v)", pos, id, s.Position, ok)
		}
	}
}

func TestStateDifference_ClearAndClone(t *testing.T) {
	d := NewStateDifference()
	d.SetShip(sampleShip(1, 1, 1), nil)
	d.SetHalite(game.Position{X: 2, Y: 2}, 5)

	c := d.Clone()
	d.Clear()

	if !d.IsEmpty() {
		t.Errorf("Clear left %d entries", d.Len())
	}
	if _, ok := d.ShipAt(game.Position{X: 1, Y: 1}); ok {
		t.Errorf("Clear left index entries")
	}
	if c.Len() != 2 {
		t.Errorf("clone has %d entries, want 2", c.Len())
	}
}

func TestStateDifference_SharedCellKeepsIndex(t *testing.T) {
	cell := game.Position{X: 3, Y: 3}
	d := NewStateDifference()
	d.SetShip(sampleShip(1, 3, 3), nil)
	d.SetShip(sampleShip(2, 3, 3), nil)

	// Ship 2 holds the index entry; moving it away must expose ship 1.
	old, _ := d.Ship(2)
	d.SetShip(sampleShip(2, 4, 3), &old)
	if id, ok := d.ShipAt(cell); !ok || id != 1 {
		t.Fatalf("after move ShipAt(%v) = %d, %v, want 1", cell, id, ok)
	}

	d.SetShip(sampleShip(3, 3, 3), nil)
	d.dropShip(3)
	if id, ok := d.ShipAt(cell); !ok || id != 1 {
		t.Fatalf("after drop ShipAt(%v) = %d, %v, want 1", cell, id, ok)
	}
	d.dropShip(1)
	if _, ok := d.ShipAt(cell); ok {
		t.Errorf("empty cell still indexed")
	}
}
