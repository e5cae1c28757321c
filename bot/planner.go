// Package bot decides one command per ship by sampling candidate paths in
// the simulator and keeping the one that returns the most halite per turn.
//
// A ship follows its accepted path over several real turns. It replans only
// when the queue is empty or reality drifted from what was predicted.
package bot

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/brensch/halite3/collision"
	"github.com/brensch/halite3/game"
	"github.com/brensch/halite3/hlt"
	"github.com/brensch/halite3/rules"
	"github.com/brensch/halite3/simulator"
)

// Tracer receives one Decision per ship per turn.
type Tracer interface {
	Write(v any) error
}

// Decision is what the bot did with one ship on one turn.
type Decision struct {
	Turn       int    `json:"turn"`
	Ship       int    `json:"ship"`
	Cargo      int    `json:"cargo"`
	Replanned  bool   `json:"replanned"`
	Candidates int    `json:"candidates,omitempty"`
	Score      int    `json:"score,omitempty"`
	Path       string `json:"path"`
	Command    string `json:"command"`
	Blocked    bool   `json:"blocked,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
}

type Option func(*Bot)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithTracer(t Tracer) Option {
	return func(b *Bot) { b.tracer = t }
}

// Bot plays one player. It keeps a Memory across real turns and is not safe
// for concurrent use.
type Bot struct {
	tuning Tuning
	memory *simulator.Memory
	rng    *rand.Rand
	logger *slog.Logger
	tracer Tracer
	avoid  *collision.Avoidance
}

func New(tuning Tuning, rng *rand.Rand, opts ...Option) *Bot {
	b := &Bot{
		tuning: tuning,
		memory: simulator.NewMemory(),
		rng:    rng,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bot) Memory() *simulator.Memory {
	return b.memory
}

// PlayTurn returns one command per own ship, plus a spawn when affordable.
//
// When ctx expires, ships not yet planned follow their queued path or stay
// still; the turn still completes and the simulator chain is saved.
func (b *Bot) PlayTurn(ctx context.Context, snap *game.Snapshot) []hlt.Command {
	logger := b.logger.With("turn", snap.Turn)
	b.reconcile(snap, logger)

	sim := simulator.New(snap, b.memory, simulator.WithLogger(logger))
	if b.avoid == nil {
		b.avoid = collision.New(snap, logger)
	} else {
		b.avoid.Reset(snap)
	}

	ships := snap.MyShips()
	cmds := make([]hlt.Command, 0, len(ships)+1)
	expired := false
	for _, id := range ships {
		if !expired && ctx.Err() != nil {
			expired = true
			logger.Warn("turn budget exhausted", "planned", len(cmds), "ships", len(ships))
		}
		cmds = append(cmds, b.commandFor(sim, snap, id, expired))
	}

	if b.shouldSpawn(snap, sim) {
		cmds = append(cmds, hlt.Spawn())
	}

	sim.SaveAll()
	return cmds
}

// reconcile drops plans whose prediction for this turn does not match the
// snapshot, then forgets turns that are over. The current turn is pruned
// too: the snapshot is the truth for it.
func (b *Bot) reconcile(snap *game.Snapshot, logger *slog.Logger) {
	if predicted := b.memory.Load(snap.Turn); predicted != nil {
		for _, id := range snap.MyShips() {
			want, ok := predicted.Ship(id)
			if ok && want != snap.Ships[id] {
				logger.Debug("plan drifted", "ship", int(id),
					"want", want.Position.String(), "got", snap.Ships[id].Position.String(),
					"want_cargo", want.Halite, "got_cargo", snap.Ships[id].Halite)
				b.memory.ForgetShip(id)
			}
		}
	}
	b.memory.Prune(snap.Turn+1, snap.Ships)
}

func (b *Bot) commandFor(sim *simulator.Simulator, snap *game.Snapshot, id game.ShipID, expired bool) hlt.Command {
	ship := snap.Ships[id]
	d := Decision{Turn: snap.Turn, Ship: int(id), Cargo: ship.Halite}

	path := b.memory.TakePath(id)
	if len(path) == 0 {
		if expired {
			d.Skipped = true
			path = []game.Direction{game.Still}
		} else {
			// The old plan ran out; its predictions must not outlive it.
			b.memory.ForgetShip(id)
			var score int
			path, score = b.calcGoodPath(sim, id)
			d.Replanned, d.Candidates, d.Score = true, b.tuning.Candidates, score
		}
	}
	d.Path = pathString(path)

	dir, rest := path[0], path[1:]
	if dir.IsCardinal() && ship.Halite < rules.MoveCostRatio(snap.Map.At(ship.Position), snap.Constants.MoveCostRatio) {
		dir = game.Still
	}
	if dir != game.Still && !b.avoid.TryReserve(ship.Position.Offset(dir)) {
		d.Blocked = true
		dir = game.Still
		rest = nil
		b.memory.ForgetShip(id)
	}
	if dir == game.Still {
		b.avoid.Claim(ship.Position)
	}
	b.memory.StorePath(id, rest)

	cmd := hlt.MoveShip(id, dir)
	d.Command = cmd.String()
	b.trace(d)
	return cmd
}

// calcGoodPath simulates Candidates random paths, keeps the one with the best
// score, replays it and applies it so later ships see it.
func (b *Bot) calcGoodPath(sim *simulator.Simulator, id game.ShipID) ([]game.Direction, int) {
	t := b.tuning
	best := []game.Direction{game.Still}
	bestScore := 0
	sim.Rollback()

	for i := 0; i < t.Candidates; i++ {
		goBack := t.GoBackMin + b.rng.Intn(t.GoBackMax-t.GoBackMin)
		path := b.completePath(sim, id, goBack, t.CellEmpty)
		score := 10 * sim.Ship(id).Halite / len(path)
		if score > bestScore {
			best, bestScore = path, score
		}
		sim.Rollback()
	}

	for _, dir := range best {
		sim.Advance(simulator.MoveShip(id, dir))
	}
	sim.Apply()
	b.logger.Debug("path chosen", "ship", int(id), "score", bestScore, "len", len(best))
	return best, bestScore
}

// completePath wanders until cargo passes goBack, then heads for the
// drop-off. It leaves the simulator standing at the end of the path.
func (b *Bot) completePath(sim *simulator.Simulator, id game.ShipID, goBack, cellEmpty int) []game.Direction {
	finder := NewPathFinder(b.rng)
	maxLen := b.tuning.MaxPathLen
	var path []game.Direction

	step := func(dir game.Direction) {
		path = append(path, dir)
		sim.Advance(simulator.MoveShip(id, dir))
	}

	for sim.Ship(id).Halite <= goBack && len(path) < maxLen/2 {
		dir := game.Still
		if b.moveOrCollect(sim, sim.Ship(id), cellEmpty) {
			dir = finder.SafeRandomMove(sim.Ship(id), sim)
		}
		step(dir)
	}

	dropoff := sim.NearestDropoff(id)
	for sim.Ship(id).Position != dropoff && len(path) < maxLen {
		dir := game.Still
		if b.moveOrCollect(sim, sim.Ship(id), cellEmpty) {
			dir = finder.NavigateTo(dropoff, sim.Ship(id), sim)
		}
		step(dir)
	}

	if len(path) == 0 {
		step(game.Still)
	}
	return path
}

// moveOrCollect reports whether the ship should move (true) or stay and
// collect (false).
func (b *Bot) moveOrCollect(sim *simulator.Simulator, ship game.Ship, cellEmpty int) bool {
	cell := sim.HaliteAt(ship.Position)
	switch {
	case ship.Halite < rules.MoveCostRatio(cell, sim.Snapshot().Constants.MoveCostRatio):
		return false
	case cell <= cellEmpty || ship.IsFull():
		return true
	default:
		return false
	}
}

func (b *Bot) shouldSpawn(snap *game.Snapshot, sim *simulator.Simulator) bool {
	me := snap.Me()
	if me == nil {
		return false
	}
	t := b.tuning
	if snap.Turn >= t.SpawnUntilTurn || me.Halite < snap.Constants.ShipCost {
		return false
	}
	if t.MaxShips > 0 && len(me.Ships) >= t.MaxShips {
		return false
	}
	if sim.IsOccupiedNextTurn(me.Shipyard) {
		return false
	}
	return b.avoid.Claim(me.Shipyard)
}

func (b *Bot) trace(d Decision) {
	if b.tracer == nil {
		return
	}
	if err := b.tracer.Write(d); err != nil {
		b.logger.Warn("trace write failed", "error", err)
	}
}

func pathString(path []game.Direction) string {
	var sb strings.Builder
	sb.Grow(len(path))
	for _, d := range path {
		sb.WriteByte(byte(d))
	}
	return sb.String()
}
