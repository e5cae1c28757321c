package game

// Map is the halite grid. The grid is a torus: every lookup wraps.
type Map struct {
	Width  int32
	Height int32
	cells  []int
}

func NewMap(width, height int32) *Map {
	if width <= 0 || height <= 0 {
		panic("game: map dimensions must be positive")
	}
	return &Map{
		Width:  width,
		Height: height,
		cells:  make([]int, int(width)*int(height)),
	}
}

// Normalize wraps p onto the grid.
func (m *Map) Normalize(p Position) Position {
	x := p.X % m.Width
	if x < 0 {
		x += m.Width
	}
	y := p.Y % m.Height
	if y < 0 {
		y += m.Height
	}
	return Position{X: x, Y: y}
}

func (m *Map) index(p Position) int {
	p = m.Normalize(p)
	return int(p.Y)*int(m.Width) + int(p.X)
}

func (m *Map) At(p Position) int {
	return m.cells[m.index(p)]
}

// Set writes a cell. Only the owner of an unshared map may call it.
func (m *Map) Set(p Position, halite int) {
	m.cells[m.index(p)] = halite
}

func (m *Map) Total() int {
	total := 0
	for _, h := range m.cells {
		total += h
	}
	return total
}

func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{Width: m.Width, Height: m.Height, cells: make([]int, len(m.cells))}
	copy(out.cells, m.cells)
	return out
}

// Distance is the Manhattan distance on the torus.
func (m *Map) Distance(a, b Position) int {
	dx, dy := m.delta(a, b)
	return int(abs32(dx) + abs32(dy))
}

// delta is the shortest signed displacement from a to b on each axis.
func (m *Map) delta(a, b Position) (int32, int32) {
	a, b = m.Normalize(a), m.Normalize(b)
	return wrapDelta(b.X-a.X, m.Width), wrapDelta(b.Y-a.Y, m.Height)
}

func wrapDelta(d, size int32) int32 {
	if d > size/2 {
		return d - size
	}
	if d < -size/2 {
		return d + size
	}
	return d
}

// UsefulDirections lists the cardinal directions that bring from closer to
// to along a shortest wrapped path. It is empty when from == to.
func (m *Map) UsefulDirections(from, to Position) []Direction {
	dx, dy := m.delta(from, to)
	var dirs []Direction
	switch {
	case dx > 0:
		dirs = append(dirs, East)
	case dx < 0:
		dirs = append(dirs, West)
	}
	switch {
	case dy > 0:
		dirs = append(dirs, South)
	case dy < 0:
		dirs = append(dirs, North)
	}
	return dirs
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
