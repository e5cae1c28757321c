// visualize.go - ASCII rendering of a match for debugging self-play games.

package selfplay

import (
	"fmt"
	"strings"

	"github.com/brensch/halite3/game"
)

// RenderBoard draws the map with one character per cell: a digit for the
// cell's halite in hundreds (capped at 9), a player's shipyard as Y/y, and
// ships as the owner's letter (A, B, ...).
func RenderBoard(s *game.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Turn %d ===\n", s.Turn))

	yards := make(map[game.Position]game.PlayerID, len(s.Players))
	for id, p := range s.Players {
		yards[p.Shipyard] = id
	}

	for y := int32(0); y < s.Map.Height; y++ {
		for x := int32(0); x < s.Map.Width; x++ {
			p := game.Position{X: x, Y: y}
			switch id, ship := s.ShipAt(p); {
			case ship:
				sb.WriteByte(byte('A' + int(s.Ships[id].Owner)%26))
			default:
				if owner, ok := yards[p]; ok {
					if owner == s.MyID {
						sb.WriteByte('Y')
					} else {
						sb.WriteByte('y')
					}
					continue
				}
				sb.WriteByte(byte('0' + min(s.Map.At(p)/100, 9)))
			}
		}
		sb.WriteByte('\n')
	}

	for _, id := range playerIDs(s) {
		p := s.Players[id]
		sb.WriteString(fmt.Sprintf("player %d: halite=%d ships=%d\n", id, p.Halite, len(p.Ships)))
	}
	return sb.String()
}
