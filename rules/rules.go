// Package rules implements the Halite III turn mechanics: the halite
// arithmetic shared by the simulator, and the authoritative full-turn
// transition used for local self-play.
package rules

import (
	"github.com/brensch/halite3/game"
)

const (
	DefaultExtractRatio  = 4
	DefaultMoveCostRatio = 10
)

// Collect is the halite a still ship extracts from a cell: 25%, rounded up.
func Collect(cell int) int {
	return CollectRatio(cell, DefaultExtractRatio)
}

func CollectRatio(cell, ratio int) int {
	if cell <= 0 {
		return 0
	}
	if ratio <= 0 {
		ratio = DefaultExtractRatio
	}
	return (cell + ratio - 1) / ratio
}

// MoveCost is the fuel needed to leave a cell: 10%, rounded down.
func MoveCost(cell int) int {
	return MoveCostRatio(cell, DefaultMoveCostRatio)
}

func MoveCostRatio(cell, ratio int) int {
	if cell <= 0 {
		return 0
	}
	if ratio <= 0 {
		ratio = DefaultMoveCostRatio
	}
	return cell / ratio
}

// Mine returns how much a ship standing still on cell actually takes.
// Extraction is capped by the room left in the ship; the remainder stays in
// the cell.
func Mine(cell int, ship game.Ship, c game.Constants) int {
	collected := CollectRatio(cell, c.ExtractRatio)
	if room := ship.Room(); collected > room {
		collected = room
	}
	if collected > cell {
		collected = cell
	}
	return collected
}

// Move resolves a single ship's order against the cell it starts on. It
// returns the ship after the order and the new halite of the origin cell.
// A cardinal move the ship cannot pay for becomes a still order.
func Move(ship game.Ship, dir game.Direction, origin int, m *game.Map, c game.Constants) (game.Ship, int) {
	if dir.IsCardinal() {
		cost := MoveCostRatio(origin, c.MoveCostRatio)
		if ship.Halite >= cost {
			ship.Halite -= cost
			ship.Position = m.Normalize(ship.Position.Offset(dir))
			return ship, origin
		}
	}
	collected := Mine(origin, ship, c)
	ship.Halite += collected
	return ship, origin - collected
}
