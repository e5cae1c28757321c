// Package selfplay runs local matches between bots on the rules engine and
// records every turn for the archive.
package selfplay

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/brensch/halite3/bot"
	"github.com/brensch/halite3/game"
	"github.com/brensch/halite3/hlt"
	"github.com/brensch/halite3/rules"
	"github.com/brensch/halite3/store"
)

type Config struct {
	Map    rules.MapConfig
	Tuning bot.Tuning
	// TurnBudget bounds one bot's PlayTurn. Zero means no limit.
	TurnBudget time.Duration
}

func DefaultConfig() Config {
	return Config{
		Map:    rules.DefaultMapConfig,
		Tuning: bot.DefaultTuning(),
	}
}

type GameResult struct {
	GameID     string
	Seed       int64
	Turns      int
	Scores     map[game.PlayerID]int
	Winner     game.PlayerID // -1 on a tie
	Collisions int
}

// Progress is passed to OnStep after every turn.
type Progress struct {
	GameID   string
	Turn     int
	MaxTurns int
	Ships    int
	Scores   map[game.PlayerID]int
	Row      *store.TurnRow
	// State is the engine state after the turn. Read only.
	State *game.Snapshot
}

type PlayGameOptions struct {
	OnStep        func(Progress)
	StopRequested func() bool
	Logger        *slog.Logger
}

type PlayGameOutcome struct {
	Completed bool
	Rows      []store.TurnRow
	Result    GameResult
}

// GameID names the game played from seed, so reruns can skip it.
func GameID(seed int64) string {
	return fmt.Sprintf("seed-%d", seed)
}

// PlayGame plays one full match of cfg.Map.Players bots. Map generation and
// every bot are seeded from seed, so the same seed replays the same game.
func PlayGame(ctx context.Context, cfg Config, seed int64, opts PlayGameOptions) PlayGameOutcome {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	stopRequested := opts.StopRequested
	if stopRequested == nil {
		stopRequested = func() bool { return false }
	}

	gameID := GameID(seed)
	logger = logger.With("game", gameID)
	g := rules.NewGame(cfg.Map, rand.New(rand.NewSource(seed)), logger)

	pids := playerIDs(g.State)
	bots := make(map[game.PlayerID]*bot.Bot, len(pids))
	for _, pid := range pids {
		rng := rand.New(rand.NewSource(seed*1000003 + int64(pid)))
		bots[pid] = bot.New(cfg.Tuning, rng, bot.WithLogger(logger.With("player", int(pid))))
	}

	rows := make([]store.TurnRow, 0, g.State.Constants.MaxTurns+1)
	collisions := 0

	for !g.IsOver() {
		if ctx.Err() != nil || stopRequested() {
			logger.Info("game interrupted", "turn", g.State.Turn)
			return PlayGameOutcome{Rows: rows, Result: result(g, gameID, seed, collisions)}
		}

		orders := make(map[game.PlayerID]rules.Orders, len(pids))
		commands := make(map[game.ShipID]string)
		spawned := make(map[game.PlayerID]bool)
		for _, pid := range pids {
			view := g.View(pid)
			cmds := playTurn(ctx, bots[pid], view, cfg.TurnBudget)
			o := ToOrders(view, cmds, logger)
			orders[pid] = o
			for id, d := range o.Moves {
				commands[id] = hlt.MoveShip(id, d).String()
			}
			spawned[pid] = o.Spawn
		}

		rows = append(rows, store.NewTurnRow(gameID, seed, g.State, commands, spawned))
		res := g.Step(orders)
		collisions += len(res.Destroyed)

		if opts.OnStep != nil {
			opts.OnStep(Progress{
				GameID:   gameID,
				Turn:     g.State.Turn,
				MaxTurns: g.State.Constants.MaxTurns,
				Ships:    len(g.State.Ships),
				Scores:   g.Scores(),
				Row:      &rows[len(rows)-1],
				State:    g.State,
			})
		}
	}

	rows = append(rows, store.NewTurnRow(gameID, seed, g.State, nil, nil))
	r := result(g, gameID, seed, collisions)
	logger.Info("game finished", "turns", r.Turns, "winner", int(r.Winner), "collisions", collisions)
	return PlayGameOutcome{Completed: true, Rows: rows, Result: r}
}

func playTurn(ctx context.Context, b *bot.Bot, view *game.Snapshot, budget time.Duration) []hlt.Command {
	if budget <= 0 {
		return b.PlayTurn(ctx, view)
	}
	turnCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	return b.PlayTurn(turnCtx, view)
}

// ToOrders turns one player's commands into engine orders. Commands for
// ships the player does not own, repeated commands for one ship and dropoff
// construction are logged and ignored.
func ToOrders(view *game.Snapshot, cmds []hlt.Command, logger *slog.Logger) rules.Orders {
	o := rules.Orders{Moves: make(map[game.ShipID]game.Direction, len(cmds))}
	for _, c := range cmds {
		switch c.Kind {
		case hlt.CommandSpawn:
			o.Spawn = true
		case hlt.CommandMove:
			ship, ok := view.Ship(c.Ship)
			if !ok || ship.Owner != view.MyID {
				logger.Warn("command for foreign ship ignored", "player", int(view.MyID), "command", c.String())
				continue
			}
			if _, dup := o.Moves[c.Ship]; dup {
				logger.Warn("duplicate command ignored", "player", int(view.MyID), "command", c.String())
				continue
			}
			o.Moves[c.Ship] = c.Direction
		default:
			logger.Warn("unsupported command ignored", "player", int(view.MyID), "command", c.String())
		}
	}
	return o
}

func result(g *rules.Game, gameID string, seed int64, collisions int) GameResult {
	scores := g.Scores()
	winner, best, tie := game.PlayerID(-1), -1, false
	for _, pid := range playerIDs(g.State) {
		switch s := scores[pid]; {
		case s > best:
			winner, best, tie = pid, s, false
		case s == best:
			tie = true
		}
	}
	if tie {
		winner = -1
	}
	return GameResult{
		GameID:     gameID,
		Seed:       seed,
		Turns:      g.State.Turn,
		Scores:     scores,
		Winner:     winner,
		Collisions: collisions,
	}
}

func playerIDs(s *game.Snapshot) []game.PlayerID {
	ids := make([]game.PlayerID, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
