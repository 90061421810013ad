package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/scrap-train/pkg/logger"
)

var (
	ErrGameOver           = errors.New("game is over")
	ErrInsufficientScraps = errors.New("not enough scraps")
)

// TrainID is the agent id of the player's train.
const TrainID AgentID = "train"

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsGameOver() bool
	IsVictory() bool
	Tick()

	// Movement operations
	Move(direction string) bool
	BulkMove(ctx context.Context, moves []string, onStep func(BulkStep)) (BulkOutcome, error)
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Encounters
	ResolveBattle(playerWon bool, remainingHealth int) error
	ClaimReward(kind EffectKind) (MergeResult, error)
	CloseReward()
	Equip(kind EffectKind) (MergeResult, error)

	// Configuration
	GetConfig() *GameConfig

	// History and events
	GetMoveHistory() []MoveHistoryEntry
	GetLocalView() []SurroundingCell
	DrainEvents() []GameEvent
}

// GameEngine implements the Engine interface
type GameEngine struct {
	config *GameConfig
	log    logrus.FieldLogger

	grid       *Grid
	stats      *Stats
	loadout    *Loadout
	events     *EventLog
	scheduler  *Scheduler
	dispatcher *Dispatcher
	validator  *PassabilityValidator
	arena      *Arena
	panel      *RewardPanel

	pos         WorldPos
	message     string
	gameOver    bool
	victory     bool
	tick        int
	moveHistory []MoveHistoryEntry
	totalMoves  int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	return NewEngineWithLogger(config, logger.Get())
}

// NewEngineWithLogger is NewEngine with an explicit logger.
func NewEngineWithLogger(config *GameConfig, log logrus.FieldLogger) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	e := &GameEngine{
		config: config,
		log:    log.WithField("config", config.Name),
	}
	e.build()
	return e, nil
}

// build wires every collaborator from the config and places the train.
func (e *GameEngine) build() {
	cfg := e.config

	e.events = &EventLog{}
	e.grid = NewGrid(cfg.Layout, cfg.CellSize)
	e.stats = NewStats(float64(cfg.StartingHealth), float64(cfg.MaxHealth), float64(cfg.StartingScraps))
	e.loadout = &Loadout{}
	for _, kind := range cfg.StartingLoadout {
		effect, err := NewEffect(kind)
		if err != nil {
			e.log.WithError(err).Warn("Skipping starting effect")
			continue
		}
		e.loadout.Equip(effect)
	}

	e.scheduler = &Scheduler{}
	e.arena = NewArena(e.stats, e.loadout, e.events, e.log)
	e.arena.OnBattleEnd(e.handleBattleEnd)
	e.panel = NewRewardPanel(e.grid, e.scheduler, e.loadout, e.events, e.log)
	e.bindBehaviors()

	e.dispatcher = NewDispatcher(e.grid, e.events, e.log)
	e.validator = NewPassabilityValidator(e.grid, e.log)

	e.pos = e.grid.CellCenter(e.grid.Find(TileStart)[0])
	e.message = cfg.Messages.Welcome
	e.gameOver = false
	e.victory = false
	e.tick = 0

	// First observation registers the start cell.
	e.dispatcher.Observe(TrainID, e.pos)
}

// bindBehaviors attaches one shared behavior instance per tile kind.
func (e *GameEngine) bindBehaviors() {
	cfg := e.config
	combat := &CombatCell{Combat: e.arena}
	reward := &RewardCell{Presenter: e.panel, Offer: cfg.RewardPool}
	heal := &HealCell{Stats: e.stats, Pool: StatCurrentHealth, Amount: float64(cfg.HealAmount), Events: e.events}
	damage := &DamageCell{Stats: e.stats, Pool: StatCurrentHealth, Amount: float64(cfg.DamageAmount), Events: e.events}
	rock := ImpassableCell{}

	for r := 0; r < e.grid.Rows(); r++ {
		for c := 0; c < e.grid.Cols(); c++ {
			coord := CellCoordinate{Row: r, Col: c}
			switch e.grid.Tile(coord) {
			case TileCombat:
				e.grid.SetBehavior(coord, combat)
			case TileReward:
				e.grid.SetBehavior(coord, reward)
			case TileHeal:
				e.grid.SetBehavior(coord, heal)
			case TileDamage:
				e.grid.SetBehavior(coord, damage)
			case TileImpassable:
				e.grid.SetBehavior(coord, rock)
			}
		}
	}
}

// Tick runs one simulation step: deferred actions from the previous tick,
// cell dispatch for the train, then end-of-run checks.
func (e *GameEngine) Tick() {
	if e.gameOver {
		return
	}
	e.tick++
	if n := e.scheduler.Flush(); n > 0 {
		e.log.WithField("tick", e.tick).Debugf("Ran %d deferred actions", n)
	}
	e.dispatcher.Observe(TrainID, e.pos)
	e.checkEnd()
}

func (e *GameEngine) checkEnd() {
	if e.gameOver {
		return
	}
	cell := e.currentCell()
	if e.stats.Get(StatCurrentHealth) <= 0 {
		e.gameOver = true
		e.message = e.config.Messages.Defeat
		emit(e.events, "defeat", e.message, &cell)
		return
	}
	if _, fighting := e.arena.Active(); !fighting && e.grid.Tile(cell) == TileTerminus {
		e.gameOver = true
		e.victory = true
		e.message = e.config.Messages.Victory
		emit(e.events, "victory", e.message, &cell)
	}
}

func (e *GameEngine) handleBattleEnd(outcome BattleOutcome) {
	e.stats.Set(StatCurrentHealth, float64(outcome.RemainingHealth))
	if !outcome.PlayerWon {
		e.gameOver = true
		e.message = e.config.Messages.BattleLost
		emit(e.events, "defeat", e.message, &outcome.Cell)
		return
	}
	e.stats.ApplyDelta(StatScraps, float64(e.config.BattleBounty))
	e.message = e.config.Messages.BattleWon
}

func (e *GameEngine) currentCell() CellCoordinate {
	return e.grid.WorldToCell(e.pos)
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		Grid:          e.grid.Layout(),
		TrainCell:     e.currentCell(),
		TrainPos:      e.pos,
		Scraps:        int(e.stats.Get(StatScraps)),
		Health:        int(e.stats.Get(StatCurrentHealth)),
		MaxHealth:     int(e.stats.Get(StatMaxHealth)),
		Loadout:       e.loadout.Views(),
		RewardOffer:   e.panel.Offer(),
		Message:       e.message,
		GameOver:      e.gameOver,
		Victory:       e.victory,
		ConfigName:    e.config.Name,
		Tick:          e.tick,
		MoveHistory:   e.moveHistory,
		TotalMoves:    e.totalMoves,
		LocalView:     e.GenerateLocalView(),
		PossibleMoves: e.GetPossibleMoves(),
	}
	if battle, ok := e.arena.Active(); ok {
		state.Battle = &BattleView{
			Cell:        battle.Cell,
			Shield:      battle.Shield,
			BonusDamage: battle.BonusDamage,
			Applied:     battle.Applied,
		}
	}
	return state
}

// Reset resets the game to initial state
func (e *GameEngine) Reset() *GameState {
	// History survives resets
	prevHistory := e.moveHistory
	prevTotal := e.totalMoves

	e.build()

	e.moveHistory = prevHistory
	e.totalMoves = prevTotal
	emit(e.events, "reset", "Game reset to initial state", nil)
	return e.GetState()
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

// IsVictory returns whether the train reached a terminus
func (e *GameEngine) IsVictory() bool {
	return e.victory
}

// Move attempts to move the train one cell in direction
func (e *GameEngine) Move(direction string) bool {
	from := e.currentCell()
	success := e.move(direction)
	e.addMoveToHistory(direction, from, e.currentCell(), success)
	return success
}

func (e *GameEngine) move(direction string) bool {
	if e.gameOver {
		return false
	}

	from := e.currentCell()
	target, ok := from.Step(direction)
	if !ok {
		e.message = fmt.Sprintf("Unknown direction %q", direction)
		return false
	}
	if !e.canEnter(target) {
		e.message = fmt.Sprintf("%s [%s at %s]", e.config.Messages.Blocked, RequiredLegend[string(e.grid.Tile(target))], target)
		emit(e.events, "blocked", e.message, &target)
		return false
	}

	_, fleeing := e.arena.Active()
	e.pos = e.grid.CellCenter(target)
	e.Tick()
	if e.gameOver {
		return true
	}

	switch {
	case e.panel.IsOpen():
		e.message = fmt.Sprintf("Salvage found! Claim one of %v", e.panel.Offer())
	case e.inBattle():
		e.message = "Raiders attack! Resolve the battle or pull away."
	case fleeing:
		e.message = e.config.Messages.Fled
	case e.config.Messages.HealthStatus != "":
		e.message = fmt.Sprintf(e.config.Messages.HealthStatus, int(e.stats.Get(StatCurrentHealth)), int(e.stats.Get(StatMaxHealth)))
	}
	return true
}

func (e *GameEngine) inBattle() bool {
	_, ok := e.arena.Active()
	return ok
}

// canEnter combines the bounds check with the passability query.
func (e *GameEngine) canEnter(c CellCoordinate) bool {
	return e.grid.InBounds(c) && e.validator.CanEnter(e.grid.CellCenter(c))
}

// CanMove checks if the train can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	if e.gameOver {
		return false
	}
	target, ok := e.currentCell().Step(direction)
	return ok && e.canEnter(target)
}

// GetPossibleMoves returns all valid directions the train can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range []string{"up", "down", "left", "right"} {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// ResolveBattle reports the outcome of the active battle
func (e *GameEngine) ResolveBattle(playerWon bool, remainingHealth int) error {
	if e.gameOver {
		return ErrGameOver
	}
	if err := e.arena.EndBattle(playerWon, remainingHealth); err != nil {
		return err
	}
	e.Tick()
	return nil
}

// ClaimReward takes kind from the open reward
func (e *GameEngine) ClaimReward(kind EffectKind) (MergeResult, error) {
	if e.gameOver {
		return MergeResult{}, ErrGameOver
	}
	result, err := e.panel.Claim(kind)
	if err != nil {
		return result, err
	}
	e.message = fmt.Sprintf("Equipped %s: %s", kind, result)
	return result, nil
}

// CloseReward dismisses the open reward without taking anything
func (e *GameEngine) CloseReward() {
	e.panel.Close()
}

// Equip buys kind for EffectCost scraps. Nothing is charged when the merge
// is rejected.
func (e *GameEngine) Equip(kind EffectKind) (MergeResult, error) {
	if e.gameOver {
		return MergeResult{}, ErrGameOver
	}
	cost := float64(e.config.EffectCost)
	if e.stats.Get(StatScraps) < cost {
		return MergeResult{}, fmt.Errorf("%w: need %d", ErrInsufficientScraps, e.config.EffectCost)
	}
	effect, err := NewEffect(kind)
	if err != nil {
		return MergeResult{}, err
	}
	result := e.loadout.Equip(effect)
	if result.Merged {
		e.stats.ApplyDelta(StatScraps, -cost)
	}
	e.message = fmt.Sprintf("Equipped %s: %s", kind, result)
	emit(e.events, "equip", e.message, nil)
	return result, nil
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.moveHistory
}

// GetLocalView returns the local view around the train
func (e *GameEngine) GetLocalView() []SurroundingCell {
	return e.GenerateLocalView()
}

// DrainEvents returns the events produced since the last call
func (e *GameEngine) DrainEvents() []GameEvent {
	return e.events.Drain()
}

// GenerateLocalView lists the 8 cells around the train, clockwise from north
func (e *GameEngine) GenerateLocalView() []SurroundingCell {
	here := e.currentCell()
	offsets := []struct{ dr, dc int }{
		{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
	}

	view := make([]SurroundingCell, len(offsets))
	for i, o := range offsets {
		c := CellCoordinate{Row: here.Row + o.dr, Col: here.Col + o.dc}
		view[i] = SurroundingCell{
			Row:      c.Row,
			Col:      c.Col,
			Tile:     string(e.grid.Tile(c)),
			Passable: e.canEnter(c),
		}
	}
	return view
}

// Grid exposes the tile map.
func (e *GameEngine) Grid() *Grid {
	return e.grid
}

// Stats exposes the live stats.
func (e *GameEngine) Stats() *Stats {
	return e.stats
}

func (e *GameEngine) addMoveToHistory(action string, from, to CellCoordinate, success bool) {
	e.totalMoves++
	e.moveHistory = append(e.moveHistory, MoveHistoryEntry{
		Action:     action,
		From:       from,
		To:         to,
		Health:     int(e.stats.Get(StatCurrentHealth)),
		Scraps:     int(e.stats.Get(StatScraps)),
		Timestamp:  time.Now().Unix(),
		Success:    success,
		MoveNumber: e.totalMoves,
	})
}

// Reasons a bulk run stops before its last move.
const (
	StopUnknownDirection = "unknown_direction"
	StopBlocked          = "blocked"
	StopBattle           = "battle"
	StopReward           = "reward"
	StopGameOver         = "game_over"
)

// BulkStep is one executed move of a bulk run. Index is 1-based.
type BulkStep struct {
	Index     int
	Direction string
	Before    *GameState
	After     *GameState
}

// BulkOutcome summarizes a bulk run. Stop is empty when every move ran.
type BulkOutcome struct {
	Executed      int
	Stop          string
	StoppedOnMove int
}

// BulkMove executes moves in order, calling onStep after each one that
// succeeds. The run stops at the first failed move, when the game is already
// over, or when a move opens a battle or a reward offer that needs a
// decision. An encounter on the final move, or one the run ends on, is not a
// stop. Cancelling ctx stops the run before the next move.
func (e *GameEngine) BulkMove(ctx context.Context, moves []string, onStep func(BulkStep)) (BulkOutcome, error) {
	var out BulkOutcome
	for i, direction := range moves {
		n := i + 1
		if err := ctx.Err(); err != nil {
			out.StoppedOnMove = n
			return out, err
		}
		if e.gameOver {
			out.Stop, out.StoppedOnMove = StopGameOver, n
			return out, nil
		}

		before := e.GetState()
		if !e.Move(direction) {
			out.Stop, out.StoppedOnMove = StopBlocked, n
			if _, known := before.TrainCell.Step(direction); !known {
				out.Stop = StopUnknownDirection
			}
			return out, nil
		}

		after := e.GetState()
		out.Executed++
		if onStep != nil {
			onStep(BulkStep{Index: n, Direction: direction, Before: before, After: after})
		}

		if after.GameOver || n == len(moves) {
			continue
		}
		switch {
		case after.Battle != nil:
			out.Stop, out.StoppedOnMove = StopBattle, n
			return out, nil
		case after.RewardOffer != nil:
			out.Stop, out.StoppedOnMove = StopReward, n
			return out, nil
		}
	}
	return out, nil
}
