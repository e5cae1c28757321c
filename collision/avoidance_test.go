package collision

import (
	"testing"

	"github.com/brensch/halite3/game"
)

func snapshotWithShip(turn int, at game.Position) *game.Snapshot {
	m := game.NewMap(16, 16)
	players := map[game.PlayerID]*game.Player{0: {ID: 0, Ships: []game.ShipID{1}}}
	return game.NewSnapshot(turn, 0, game.DefaultConstants, m, players, []game.Ship{
		{ID: 1, Owner: 0, Position: at, Capacity: 1000},
	})
}

func TestTryReserve_OncePerTurn(t *testing.T) {
	a := New(snapshotWithShip(1, game.Position{X: 0, Y: 0}), nil)
	p := game.Position{X: 4, Y: 4}

	if !a.TryReserve(p) {
		t.Fatalf("first reservation failed")
	}
	if a.TryReserve(p) {
		t.Fatalf("second reservation of %v succeeded", p)
	}
	if a.TryReserve(game.Position{X: 4 + 16, Y: 4 - 16}) {
		t.Fatalf("wrapped alias of %v succeeded", p)
	}

	a.Reset(snapshotWithShip(2, game.Position{X: 0, Y: 0}))
	if a.Len() != 0 {
		t.Fatalf("Reset left %d reservations", a.Len())
	}
	if !a.TryReserve(p) {
		t.Fatalf("reservation after reset failed")
	}
}

func TestTryReserve_OccupiedCell(t *testing.T) {
	ship := game.Position{X: 3, Y: 7}
	a := New(snapshotWithShip(1, ship), nil)

	if a.TryReserve(ship) {
		t.Fatalf("reserved a cell holding a ship")
	}
	if a.IsReserved(ship) {
		t.Fatalf("failed reservation was recorded")
	}
	if !a.Claim(ship) {
		t.Fatalf("ship could not claim its own cell")
	}
	if a.Claim(ship) || a.TryReserve(ship) {
		t.Fatalf("claimed cell handed out twice")
	}
}
