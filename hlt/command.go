package hlt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brensch/halite3/game"
)

type CommandKind byte

const (
	CommandMove      CommandKind = 'm'
	CommandSpawn     CommandKind = 'g'
	CommandConstruct CommandKind = 'c'
)

// Command is one instruction sent to the engine at the end of a turn.
type Command struct {
	Kind      CommandKind
	Ship      game.ShipID
	Direction game.Direction
}

func MoveShip(id game.ShipID, dir game.Direction) Command {
	return Command{Kind: CommandMove, Ship: id, Direction: dir}
}

func StayStill(id game.ShipID) Command {
	return MoveShip(id, game.Still)
}

func Spawn() Command {
	return Command{Kind: CommandSpawn}
}

func ConstructDropoff(id game.ShipID) Command {
	return Command{Kind: CommandConstruct, Ship: id}
}

func (c Command) String() string {
	switch c.Kind {
	case CommandMove:
		return fmt.Sprintf("m %d %s", c.Ship, c.Direction)
	case CommandSpawn:
		return "g"
	case CommandConstruct:
		return fmt.Sprintf("c %d", c.Ship)
	default:
		return ""
	}
}

// ParseCommands reads one end-of-turn line.
func ParseCommands(line string) ([]Command, error) {
	fields := strings.Fields(line)
	var out []Command
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "g":
			out = append(out, Spawn())
		case "m":
			if i+2 >= len(fields) {
				return nil, fmt.Errorf("truncated move command at field %d", i)
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("move ship id: %w", err)
			}
			dir, err := game.ParseDirection(fields[i+2])
			if err != nil {
				return nil, fmt.Errorf("move direction: %w", err)
			}
			out = append(out, MoveShip(game.ShipID(id), dir))
			i += 2
		case "c":
			if i+1 >= len(fields) {
				return nil, fmt.Errorf("truncated construct command at field %d", i)
			}
			id, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, fmt.Errorf("construct ship id: %w", err)
			}
			out = append(out, ConstructDropoff(game.ShipID(id)))
			i++
		default:
			return nil, fmt.Errorf("unknown command %q", fields[i])
		}
	}
	return out, nil
}
