// Package simulator predicts the outcome of ship actions a few turns ahead
// without copying the game state per hypothetical turn.
//
// A planning session advances a private chain of future turns with Advance,
// inspects the result, and then either throws it away with Rollback or keeps
// it with Apply. Applied sessions are visible to every session that follows
// in the same real turn, and SaveAll hands them to Memory for later real
// turns. A Simulator is single-goroutine; sessions run one after another.
package simulator

import (
	"fmt"
	"log/slog"

	"github.com/brensch/halite3/game"
)

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Simulator owns the chain of TurnStates for one real turn. Index 0 is the
// real turn; index n is n turns into the future.
type Simulator struct {
	snap    *game.Snapshot
	memory  *Memory
	turns   []*TurnState
	current int
	logger  *slog.Logger
}

// New builds turn 0 from the snapshot and turn 1 right away, so questions
// about next turn can always be answered.
func New(snap *game.Snapshot, memory *Memory, opts ...Option) *Simulator {
	s := &Simulator{
		snap:   snap,
		memory: memory,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.turns = append(s.turns, NewCurrent(snap, memory))
	s.turn(1)
	return s
}

// turn returns the state at index i, building missing turns one at a time
// from their predecessor.
func (s *Simulator) turn(i int) *TurnState {
	if i < 0 {
		panic(fmt.Sprintf("simulator: negative turn index %d", i))
	}
	for len(s.turns) <= i {
		prev := s.turns[len(s.turns)-1]
		next := NewNext(prev, s.memory)
		if next.Number() != prev.Number()+1 {
			panic(fmt.Sprintf("simulator: chain gap between turn %d and %d", prev.Number(), next.Number()))
		}
		s.turns = append(s.turns, next)
	}
	return s.turns[i]
}

func (s *Simulator) CurrentTurnIndex() int {
	return s.current
}

// TurnNumber is the game turn the caller is standing at.
func (s *Simulator) TurnNumber() int {
	return s.turn(s.current).Number()
}

// Len is the number of materialized turns.
func (s *Simulator) Len() int {
	return len(s.turns)
}

func (s *Simulator) Map() *game.Map {
	return s.snap.Map
}

func (s *Simulator) Snapshot() *game.Snapshot {
	return s.snap
}

func (s *Simulator) Memory() *Memory {
	return s.memory
}

// Advance applies a on the current turn, steps to the next one and makes
// sure the turn after that exists.
func (s *Simulator) Advance(a Action) {
	cur := s.turn(s.current)
	next := s.turn(s.current + 1)
	next.CloneOverwritesFrom(cur)
	next.ApplyAction(a, cur)
	s.current++
	s.turn(s.current + 1)
}

// Rollback discards every speculative change and returns to turn 0.
func (s *Simulator) Rollback() {
	for _, t := range s.turns {
		t.Rollback()
	}
	s.current = 0
}

// Apply commits the session and returns to turn 0. Turns beyond the one the
// session stopped at inherit its final state, so the committed outcome
// holds for the rest of the chain instead of reverting to the snapshot.
//
// Memory's predictions for the session's ships past the end of the chain
// come from an older plan; they are dropped so turns built later carry the
// committed state forward.
func (s *Simulator) Apply() {
	last := s.turns[s.current]
	session := make([]game.ShipID, 0, len(last.speculative.ships))
	for id := range last.speculative.ships {
		session = append(session, id)
	}
	for i := s.current + 1; i < len(s.turns); i++ {
		if !last.speculative.IsEmpty() {
			s.turns[i].CloneOverwritesFrom(last)
		}
	}
	committed := 0
	for _, t := range s.turns {
		committed += t.speculative.Len()
		t.Commit()
	}
	horizon := s.turns[len(s.turns)-1].Number()
	for _, id := range session {
		s.memory.forgetShipAfter(id, horizon)
	}
	s.logger.Debug("session applied", "turn", s.snap.Turn, "depth", s.current, "entries", committed)
	s.current = 0
}

// SaveAll persists every committed layer into Memory. Call it once per real
// turn after the last session.
func (s *Simulator) SaveAll() {
	for _, t := range s.turns {
		t.Save(s.memory)
	}
	s.logger.Debug("saved chain", "turn", s.snap.Turn, "turns", len(s.turns), "memory_turns", s.memory.Turns())
}

// Ship panics when the ship exists in no layer.
func (s *Simulator) Ship(id game.ShipID) game.Ship {
	return s.turn(s.current).Ship(id)
}

func (s *Simulator) LookupShip(id game.ShipID) (game.Ship, bool) {
	return s.turn(s.current).LookupShip(id)
}

func (s *Simulator) HaliteAt(pos game.Position) int {
	return s.turn(s.current).HaliteAt(pos)
}

func (s *Simulator) ShipAt(pos game.Position) (game.ShipID, bool) {
	return s.turn(s.current).ShipAt(pos)
}

// ShipOn reads a ship at chain index i, building the turn if needed.
func (s *Simulator) ShipOn(i int, id game.ShipID) (game.Ship, bool) {
	return s.turn(i).LookupShip(id)
}

func (s *Simulator) HaliteOn(i int, pos game.Position) int {
	return s.turn(i).HaliteAt(pos)
}

// OccupantNextTurn returns the ship that will be at pos one turn after the
// current one, as far as the chain knows.
func (s *Simulator) OccupantNextTurn(pos game.Position) (game.ShipID, bool) {
	return s.turn(s.current + 1).ShipAt(pos)
}

func (s *Simulator) IsOccupiedNextTurn(pos game.Position) bool {
	_, ok := s.OccupantNextTurn(pos)
	return ok
}

// IsSafeFor reports whether ship id can be at pos next turn without meeting
// another ship.
func (s *Simulator) IsSafeFor(id game.ShipID, pos game.Position) bool {
	occupant, ok := s.OccupantNextTurn(pos)
	return !ok || occupant == id
}

// NearestDropoff returns the owner's shipyard. Dropoffs are not considered.
func (s *Simulator) NearestDropoff(id game.ShipID) game.Position {
	ship := s.Ship(id)
	p, ok := s.snap.Players[ship.Owner]
	if !ok {
		panic(fmt.Sprintf("simulator: ship %d has unknown owner %d", id, ship.Owner))
	}
	return p.Shipyard
}
