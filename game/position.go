package game

import "fmt"

// Position is a board coordinate. (0,0) is the top-left cell and y grows
// downwards, as in the Halite III engine.
type Position struct {
	X int32
	Y int32
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Offset returns the neighbouring position in direction d. The result is not
// wrapped; use Map.Normalize.
func (p Position) Offset(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

type Direction byte

const (
	North Direction = 'n'
	South Direction = 's'
	East  Direction = 'e'
	West  Direction = 'w'
	Still Direction = 'o'
)

var cardinals = [4]Direction{North, South, East, West}

// Cardinals returns the four moving directions.
func Cardinals() []Direction {
	out := cardinals
	return out[:]
}

func (d Direction) Delta() (dx, dy int32) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

func (d Direction) IsCardinal() bool {
	return d == North || d == South || d == East || d == West
}

func (d Direction) Invert() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return Still
	}
}

func (d Direction) String() string {
	switch d {
	case North, South, East, West, Still:
		return string(rune(d))
	default:
		return "?"
	}
}

// ParseDirection reads the single-character protocol form.
func ParseDirection(s string) (Direction, error) {
	if len(s) == 1 {
		switch d := Direction(s[0]); d {
		case North, South, East, West, Still:
			return d, nil
		}
	}
	return Still, fmt.Errorf("unknown direction %q", s)
}
