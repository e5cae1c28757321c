package simulator

import (
	"fmt"

	"github.com/brensch/halite3/game"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMoveShip
)

// Action is one ship's order for one turn, as seen by the simulator.
type Action struct {
	Kind      ActionKind
	Ship      game.ShipID
	Direction game.Direction
}

func MoveShip(id game.ShipID, dir game.Direction) Action {
	return Action{Kind: ActionMoveShip, Ship: id, Direction: dir}
}

func NoAction() Action {
	return Action{Kind: ActionNone}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMoveShip:
		return fmt.Sprintf("move %d %s", a.Ship, a.Direction)
	default:
		return "none"
	}
}
