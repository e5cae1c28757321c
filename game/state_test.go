package game

import (
	"strings"
	"testing"
)

// dumpSnapshot is a test helper to visualize ships on the board.
func dumpSnapshot(s *Snapshot) string {
	var sb strings.Builder
	for y := int32(0); y < s.Map.Height; y++ {
		for x := int32(0); x < s.Map.Width; x++ {
			p := Position{X: x, Y: y}
			switch id, ok := s.ShipAt(p); {
			case ok:
				sb.WriteByte(byte('0' + int(id)%10))
			case s.IsDropoff(s.MyID, p):
				sb.WriteByte('Y')
			case s.Map.At(p) > 0:
				sb.WriteByte('+')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func TestMap_Wraparound(t *testing.T) {
	m := NewMap(8, 6)
	p := Position{X: 3, Y: 2}
	m.Set(p, 42)

	for _, q := range []Position{
		p,
		{X: p.X + m.Width, Y: p.Y},
		{X: p.X, Y: p.Y + m.Height},
		{X: p.X - m.Width, Y: p.Y - m.Height},
	} {
		if got := m.At(q); got != 42 {
			t.Errorf("At(%v) = %d, want 42", q, got)
		}
	}

	if got := m.Normalize(Position{X: -1, Y: -1}); got != (Position{X: 7, Y: 5}) {
		t.Errorf("Normalize(-1,-1) = %v, want (7,5)", got)
	}
}

func TestMap_DistanceAndUsefulDirections(t *testing.T) {
	m := NewMap(10, 10)

	tests := []struct {
		name     string
		from, to Position
		dist     int
		dirs     []Direction
	}{
		{"same", Position{X: 2, Y: 2}, Position{X: 2, Y: 2}, 0, nil},
		{"east", Position{X: 2, Y: 2}, Position{X: 4, Y: 2}, 2, []Direction{East}},
		{"wrap west", Position{X: 1, Y: 5}, Position{X: 8, Y: 5}, 3, []Direction{West}},
		{"wrap north", Position{X: 0, Y: 0}, Position{X: 0, Y: 9}, 1, []Direction{North}},
		{"diagonal", Position{X: 2, Y: 2}, Position{X: 3, Y: 4}, 3, []Direction{East, South}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Distance(tt.from, tt.to); got != tt.dist {
				t.Errorf("Distance = %d, want %d", got, tt.dist)
			}
			got := m.UsefulDirections(tt.from, tt.to)
			if len(got) != len(tt.dirs) {
				t.Fatalf("UsefulDirections = %v, want %v", got, tt.dirs)
			}
			for i := range got {
				if got[i] != tt.dirs[i] {
					t.Errorf("UsefulDirections = %v, want %v", got, tt.dirs)
				}
			}
		})
	}
}

func TestDirection_InvertAndParse(t *testing.T) {
	for _, d := range Cardinals() {
		if d.Invert().Invert() != d {
			t.Errorf("%v inverted twice = %v", d, d.Invert().Invert())
		}
		p := Position{X: 5, Y: 5}
		if back := p.Offset(d).Offset(d.Invert()); back != p {
			t.Errorf("offset %v then back = %v", d, back)
		}
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Errorf("ParseDirection(%q) = %v, %v", d.String(), parsed, err)
		}
	}
	if _, err := ParseDirection("x"); err == nil {
		t.Errorf("expected error for unknown direction")
	}
}

func TestSnapshot_CloneIsIndependent(t *testing.T) {
	m := NewMap(6, 6)
	m.Set(Position{X: 1, Y: 1}, 100)
	players := map[PlayerID]*Player{
		0: {ID: 0, Shipyard: Position{X: 3, Y: 3}, Ships: []ShipID{1}},
	}
	snap := NewSnapshot(7, 0, DefaultConstants, m, players, []Ship{
		{ID: 1, Owner: 0, Position: Position{X: 7, Y: 1}, Capacity: 1000},
	})

	if id, ok := snap.ShipAt(Position{X: 1, Y: 1}); !ok || id != 1 {
		t.Fatalf("ship position was not normalized:\n%s", dumpSnapshot(snap))
	}

	clone := snap.Clone()
	clone.Map.Set(Position{X: 1, Y: 1}, 0)
	clone.Players[0].Shipyard = Position{}
	clone.Ships[1] = Ship{ID: 1, Position: Position{X: 2, Y: 2}}

	if snap.HaliteAt(Position{X: 1, Y: 1}) != 100 {
		t.Errorf("clone shares halite map")
	}
	if snap.Players[0].Shipyard != (Position{X: 3, Y: 3}) {
		t.Errorf("clone shares players")
	}
	if s, _ := snap.Ship(1); s.Position != (Position{X: 1, Y: 1}) {
		t.Errorf("clone shares ships")
	}
	if got := snap.MyShips(); len(got) != 1 || got[0] != 1 {
		t.Errorf("MyShips = %v", got)
	}
}
