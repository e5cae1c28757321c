// mapgen.go generates symmetric halite maps for local matches.

package rules

import (
	"math/rand"

	"github.com/brensch/halite3/game"
)

// MapConfig controls local map generation.
type MapConfig struct {
	Width          int32
	Height         int32
	Players        int // 2 or 4
	StartingHalite int
	Constants      game.Constants
}

// DefaultMapConfig matches a small standard Halite III duel.
var DefaultMapConfig = MapConfig{
	Width:          32,
	Height:         32,
	Players:        2,
	StartingHalite: 5000,
	Constants:      game.DefaultConstants,
}

// GenerateMap fills one quadrant (or half, for duels) with random halite and
// mirrors it so no player is favoured. It returns the map and one shipyard
// per player.
func GenerateMap(cfg MapConfig, rng *rand.Rand) (*game.Map, []game.Position) {
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultMapConfig.Width, DefaultMapConfig.Height
	}
	m := game.NewMap(w, h)

	players := cfg.Players
	if players != 4 {
		players = 2
	}

	tileW, tileH := (w+1)/2, h
	if players == 4 {
		tileH = (h + 1) / 2
	}

	for y := int32(0); y < tileH; y++ {
		for x := int32(0); x < tileW; x++ {
			v := cellHalite(rng)
			m.Set(game.Position{X: x, Y: y}, v)
			m.Set(game.Position{X: w - 1 - x, Y: y}, v)
			if players == 4 {
				m.Set(game.Position{X: x, Y: h - 1 - y}, v)
				m.Set(game.Position{X: w - 1 - x, Y: h - 1 - y}, v)
			}
		}
	}

	yards := []game.Position{
		{X: w / 4, Y: h / 2},
		{X: w - 1 - w/4, Y: h / 2},
	}
	if players == 4 {
		yards = []game.Position{
			{X: w / 4, Y: h / 4},
			{X: w - 1 - w/4, Y: h / 4},
			{X: w / 4, Y: h - 1 - h/4},
			{X: w - 1 - w/4, Y: h - 1 - h/4},
		}
	}
	for _, yard := range yards {
		m.Set(yard, 0)
	}
	return m, yards
}

// cellHalite is mostly sparse with occasional rich cells.
func cellHalite(rng *rand.Rand) int {
	switch r := rng.Intn(20); {
	case r == 0:
		return 500 + rng.Intn(500)
	case r < 8:
		return 100 + rng.Intn(200)
	default:
		return rng.Intn(100)
	}
}
