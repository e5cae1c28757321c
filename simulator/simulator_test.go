package simulator

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/brensch/halite3/game"
)

type observation struct {
	ship     game.Ship
	cell     int
	occupied bool
}

func observe(s *Simulator, id game.ShipID, cells []game.Position) []observation {
	out := make([]observation, 0, len(cells))
	for _, p := range cells {
		out = append(out, observation{
			ship:     s.Ship(id),
			cell:     s.HaliteAt(p),
			occupied: s.IsOccupiedNextTurn(p),
		})
	}
	return out
}

func TestSimulator_NewMaterializesNextTurn(t *testing.T) {
	snap := newTestSnapshot(5, nil, sampleShip(1, 3, 3))
	sim := New(snap, NewMemory())

	if sim.Len() != 2 {
		t.Fatalf("Len = %d, want 2", sim.Len())
	}
	if sim.CurrentTurnIndex() != 0 || sim.TurnNumber() != 5 {
		t.Fatalf("index %d turn %d", sim.CurrentTurnIndex(), sim.TurnNumber())
	}
	if !sim.IsOccupiedNextTurn(game.Position{X: 3, Y: 3}) {
		t.Errorf("ship not visible next turn")
	}
}

func TestSimulator_TwoMovesEast(t *testing.T) {
	mid := game.Position{X: 51, Y: 50}
	ship := sampleShip(1, 50, 50)
	ship.Halite = 100
	snap := newTestSnapshot(0, map[game.Position]int{mid: 10}, ship)
	sim := New(snap, NewMemory())

	sim.Advance(MoveShip(1, game.East))
	if got := sim.Ship(1).Position; got != mid {
		t.Fatalf("after first move at %v, want %v", got, mid)
	}
	sim.Advance(MoveShip(1, game.East))
	got := sim.Ship(1)
	if got.Position != (game.Position{X: 52, Y: 50}) || got.Halite != 99 {
		t.Fatalf("after second move: %+v", got)
	}
	if sim.TurnNumber() != 2 || sim.Len() != 4 {
		t.Fatalf("turn %d len %d, want 2 and 4", sim.TurnNumber(), sim.Len())
	}

	sim.Apply()
	if sim.CurrentTurnIndex() != 0 {
		t.Fatalf("Apply did not reset index")
	}
	for i := 0; i < sim.Len(); i++ {
		if h := sim.HaliteOn(i, mid); h != 10 {
			t.Errorf("turn %d: intermediate cell = %d, want 10", i, h)
		}
	}
	if s, _ := sim.ShipOn(2, 1); s.Position != (game.Position{X: 52, Y: 50}) {
		t.Errorf("committed position on turn 2 = %v", s.Position)
	}
	if s, _ := sim.ShipOn(3, 1); s.Position != (game.Position{X: 52, Y: 50}) {
		t.Errorf("committed state not carried to turn 3: %v", s.Position)
	}
}

func TestSimulator_RollbackRestoresEverything(t *testing.T) {
	home := game.Position{X: 20, Y: 20}
	ship := sampleShip(1, 20, 20)
	ship.Halite = 500
	other := sampleShip(2, 25, 20)
	snap := newTestSnapshot(12, map[game.Position]int{home: 400, {X: 21, Y: 20}: 300}, ship, other)
	sim := New(snap, NewMemory())

	cells := []game.Position{home, {X: 21, Y: 20}, {X: 22, Y: 20}, {X: 25, Y: 20}}
	before := observe(sim, 1, cells)

	for _, d := range []game.Direction{game.Still, game.East, game.Still, game.East, game.North} {
		sim.Advance(MoveShip(1, d))
	}
	sim.Rollback()

	if sim.CurrentTurnIndex() != 0 {
		t.Fatalf("Rollback did not reset index")
	}
	after := observe(sim, 1, cells)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("cell %v: before %+v after %+v", cells[i], before[i], after[i])
		}
	}
	for i := 1; i < sim.Len(); i++ {
		if s, _ := sim.ShipOn(i, 1); s.Position != home || s.Halite != 500 {
			t.Errorf("turn index %d still sees speculative ship %+v", i, s)
		}
	}
}

func TestSimulator_ApplyVisibleToLaterSession(t *testing.T) {
	a := sampleShip(1, 10, 10)
	b := sampleShip(2, 12, 10)
	snap := newTestSnapshot(0, nil, a, b)
	sim := New(snap, NewMemory())

	sim.Advance(MoveShip(1, game.East))
	sim.Apply()

	// Ship 2's session now sees ship 1 arriving at (11,10).
	if occ, ok := sim.OccupantNextTurn(game.Position{X: 11, Y: 10}); !ok || occ != 1 {
		t.Fatalf("applied move invisible: %d, %v", occ, ok)
	}
	if sim.IsSafeFor(2, game.Position{X: 11, Y: 10}) {
		t.Errorf("ship 2 may move into ship 1's cell")
	}
	if !sim.IsSafeFor(1, game.Position{X: 11, Y: 10}) {
		t.Errorf("a ship is unsafe on its own cell")
	}

	sim.Advance(MoveShip(2, game.North))
	sim.Rollback()
	if occ, ok := sim.OccupantNextTurn(game.Position{X: 11, Y: 10}); !ok || occ != 1 {
		t.Fatalf("rollback of a later session discarded an applied one")
	}
}

func TestSimulator_SaveAllVisibleToNextRealTurn(t *testing.T) {
	cell := game.Position{X: 30, Y: 30}
	ship := sampleShip(1, 30, 30)
	snap := newTestSnapshot(7, map[game.Position]int{cell: 200}, ship)
	mem := NewMemory()

	sim := New(snap, mem)
	sim.Advance(MoveShip(1, game.Still))
	sim.Advance(MoveShip(1, game.South))
	sim.Apply()
	sim.SaveAll()

	// A fresh simulator on the same turn replays the committed plan.
	again := New(snap, mem)
	if h := again.HaliteOn(1, cell); h != 150 {
		t.Errorf("turn 8 cell = %d, want 150", h)
	}
	if s, _ := again.ShipOn(1, 1); s.Halite != 50 || s.Position != cell {
		t.Errorf("turn 8 ship = %+v", s)
	}
	if s, _ := again.ShipOn(2, 1); s.Position != (game.Position{X: 30, Y: 31}) || s.Halite != 35 {
		t.Errorf("turn 9 ship = %+v", s)
	}

	// The next real turn reads turn 8 from memory.
	next := newTestSnapshot(8, map[game.Position]int{cell: 150}, game.Ship{ID: 1, Position: cell, Halite: 50, Capacity: 1000})
	following := New(next, mem)
	if !following.IsOccupiedNextTurn(game.Position{X: 30, Y: 31}) {
		t.Errorf("turn 9 plan not visible from real turn 8")
	}
}

func TestSimulator_ApplySupersedesOlderPlan(t *testing.T) {
	ship := sampleShip(1, 20, 20)
	ship.Halite = 500
	snap := newTestSnapshot(0, nil, ship)
	mem := NewMemory()

	// An earlier real turn planned five turns of staying put.
	first := New(snap, mem)
	for i := 0; i < 5; i++ {
		first.Advance(MoveShip(1, game.Still))
	}
	first.Apply()
	first.SaveAll()

	// A shorter replan ends two cells east; the chain is shorter than the
	// stored plan.
	second := New(snap, mem)
	second.Advance(MoveShip(1, game.East))
	second.Advance(MoveShip(1, game.East))
	second.Apply()

	want := game.Position{X: 22, Y: 20}
	for i := 2; i <= 6; i++ {
		if s, _ := second.ShipOn(i, 1); s.Position != want {
			t.Errorf("index %d: ship at %v, want %v", i, s.Position, want)
		}
	}

	second.SaveAll()
	third := New(snap, mem)
	for i := 2; i <= 8; i++ {
		if s, _ := third.ShipOn(i, 1); s.Position != want {
			t.Errorf("next planning pass, index %d: ship at %v, want %v", i, s.Position, want)
		}
	}
}

func TestSimulator_UnknownShipPanics(t *testing.T) {
	sim := New(newTestSnapshot(0, nil, sampleShip(1, 0, 0)), NewMemory())
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "ship 9") {
			t.Errorf("panic message %q does not name the ship", msg)
		}
	}()
	sim.Advance(MoveShip(9, game.East))
}

func TestSimulator_LazyChainGrowth(t *testing.T) {
	sim := New(newTestSnapshot(100, nil, sampleShip(1, 0, 0)), NewMemory())
	if _, ok := sim.ShipOn(6, 1); !ok {
		t.Fatalf("ship missing on far turn")
	}
	if sim.Len() != 7 {
		t.Fatalf("Len = %d, want 7", sim.Len())
	}
	for i := 0; i < sim.Len(); i++ {
		if got := sim.turns[i].Number(); got != 100+i {
			t.Errorf("index %d has turn %d", i, got)
		}
	}
}

func TestSimulator_NearestDropoffIsShipyard(t *testing.T) {
	sim := New(newTestSnapshot(0, nil, sampleShip(1, 0, 0)), NewMemory())
	if got := sim.NearestDropoff(1); got != (game.Position{X: 32, Y: 32}) {
		t.Errorf("NearestDropoff = %v", got)
	}
}

func TestSimulator_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sim := New(newTestSnapshot(0, nil, sampleShip(1, 0, 0)), NewMemory(), WithLogger(logger))
	sim.Advance(MoveShip(1, game.Still))
	sim.Apply()
	sim.SaveAll()
	if !strings.Contains(buf.String(), "session applied") {
		t.Errorf("no apply log line in %q", buf.String())
	}
}

func TestMemory_PathsAndPrune(t *testing.T) {
	mem := NewMemory()
	mem.StorePath(1, []game.Direction{game.East, game.Still})
	mem.StorePath(2, []game.Direction{game.North})

	d := NewStateDifference()
	d.SetShip(sampleShip(1, 1, 1), nil)
	d.SetShip(sampleShip(2, 2, 2), nil)
	mem.Store(3, d)
	mem.Store(5, d)

	mem.Prune(4, map[game.ShipID]game.Ship{1: sampleShip(1, 0, 0)})

	if mem.Has(3) || !mem.Has(5) {
		t.Errorf("prune kept the wrong turns")
	}
	if got := mem.Load(5); got.Len() != 1 {
		t.Errorf("dead ship left in diff: %d entries", got.Len())
	}
	if p := mem.TakePath(2); p != nil {
		t.Errorf("dead ship path kept: %v", p)
	}
	if p := mem.TakePath(1); len(p) != 2 || p[0] != game.East {
		t.Errorf("TakePath = %v", p)
	}
	if p := mem.TakePath(1); p != nil {
		t.Errorf("TakePath did not remove the path")
	}
}

func TestMemory_ForgetShip(t *testing.T) {
	mem := NewMemory()
	mem.StorePath(1, []game.Direction{game.East})
	d := NewStateDifference()
	d.SetShip(sampleShip(1, 1, 1), nil)
	d.SetShip(sampleShip(2, 2, 2), nil)
	mem.Store(7, d)

	mem.ForgetShip(1)

	got := mem.Load(7)
	if _, ok := got.Ship(1); ok {
		t.Errorf("forgotten ship still predicted")
	}
	if _, ok := got.ShipAt(game.Position{X: 1, Y: 1}); ok {
		t.Errorf("forgotten ship still indexed")
	}
	if _, ok := got.Ship(2); !ok {
		t.Errorf("other ship dropped")
	}
	if p := mem.TakePath(1); p != nil {
		t.Errorf("path kept: %v", p)
	}
}
