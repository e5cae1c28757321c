package bot

import (
	"math/rand"

	"github.com/brensch/halite3/game"
	"github.com/brensch/halite3/simulator"
)

// PathFinder picks moves for one candidate path. Random moves stay inside
// one quadrant (one vertical and one horizontal direction) so they never
// cancel each other out.
type PathFinder struct {
	vertical   game.Direction
	horizontal game.Direction
	rng        *rand.Rand
}

func NewPathFinder(rng *rand.Rand) *PathFinder {
	p := &PathFinder{vertical: game.South, horizontal: game.West, rng: rng}
	if rng.Intn(2) == 0 {
		p.vertical = game.North
	}
	if rng.Intn(2) == 0 {
		p.horizontal = game.East
	}
	return p
}

func (p *PathFinder) RandomMove() game.Direction {
	if p.rng.Intn(2) == 0 {
		return p.vertical
	}
	return p.horizontal
}

// SafeRandomMove tries the random direction, then the quadrant's other
// direction, then stays.
func (p *PathFinder) SafeRandomMove(ship game.Ship, sim *simulator.Simulator) game.Direction {
	preferred := p.RandomMove()
	if isSafe(sim, ship, preferred) {
		return preferred
	}
	other := p.horizontal
	if preferred == p.horizontal {
		other = p.vertical
	}
	if isSafe(sim, ship, other) {
		return other
	}
	return game.Still
}

// NavigateTo picks a random safe direction that shortens the distance to
// dest. With none available it tries one random cardinal to get unstuck.
func (p *PathFinder) NavigateTo(dest game.Position, ship game.Ship, sim *simulator.Simulator) game.Direction {
	var safe []game.Direction
	for _, d := range sim.Map().UsefulDirections(ship.Position, dest) {
		if isSafe(sim, ship, d) {
			safe = append(safe, d)
		}
	}
	switch len(safe) {
	case 0:
		d := game.Cardinals()[p.rng.Intn(4)]
		if isSafe(sim, ship, d) {
			return d
		}
		return game.Still
	case 1:
		return safe[0]
	default:
		return safe[p.rng.Intn(len(safe))]
	}
}

func isSafe(sim *simulator.Simulator, ship game.Ship, d game.Direction) bool {
	return sim.IsSafeFor(ship.ID, sim.Map().Normalize(ship.Position.Offset(d)))
}
