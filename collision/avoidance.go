// Package collision keeps a per-turn reservation table of the cells ships
// will occupy next turn. It is a coarse same-turn mutual exclusion that
// works without the simulator's layered state.
package collision

import (
	"log/slog"

	"github.com/brensch/halite3/game"
)

type Avoidance struct {
	snap     *game.Snapshot
	reserved map[game.Position]struct{}
	logger   *slog.Logger
}

func New(snap *game.Snapshot, logger *slog.Logger) *Avoidance {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Avoidance{
		snap:     snap,
		reserved: make(map[game.Position]struct{}),
		logger:   logger,
	}
}

// Reset starts a new real turn.
func (a *Avoidance) Reset(snap *game.Snapshot) {
	a.snap = snap
	clear(a.reserved)
}

// TryReserve claims pos for next turn. It fails when a ship is on pos in
// the current snapshot or pos was already claimed this turn.
//
//	if avoid.TryReserve(target) {
//		// move there
//	}
func (a *Avoidance) TryReserve(pos game.Position) bool {
	pos = a.snap.Map.Normalize(pos)
	if id, ok := a.snap.ShipAt(pos); ok {
		a.logger.Debug("cell occupied", "pos", pos.String(), "ship", int(id))
		return false
	}
	if _, ok := a.reserved[pos]; ok {
		a.logger.Debug("cell already reserved", "pos", pos.String())
		return false
	}
	a.reserved[pos] = struct{}{}
	return true
}

// Claim records pos without checking the snapshot. A ship staying on its own
// cell uses it so nobody else moves in.
func (a *Avoidance) Claim(pos game.Position) bool {
	pos = a.snap.Map.Normalize(pos)
	if _, ok := a.reserved[pos]; ok {
		return false
	}
	a.reserved[pos] = struct{}{}
	return true
}

func (a *Avoidance) IsReserved(pos game.Position) bool {
	_, ok := a.reserved[a.snap.Map.Normalize(pos)]
	return ok
}

func (a *Avoidance) Len() int {
	return len(a.reserved)
}
