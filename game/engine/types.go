package engine

import (
	"fmt"
	"math"
	"time"
)

const (
	// Layout characters
	TilePlain      = '.'
	TileStart      = 'S'
	TileTerminus   = 'T'
	TileCombat     = 'C'
	TileReward     = 'R'
	TileHeal       = 'H'
	TileDamage     = 'D'
	TileImpassable = 'X'

	// Validation constants
	MinGridSize   = 3
	MaxGridSize   = 50
	MinMaxHealth  = 1
	MaxMaxHealth  = 1000
	MaxBulkMoves  = 50
	DefaultMaxLvl = 3
)

// AgentID identifies a tracked agent (the train, in practice).
type AgentID string

// CellCoordinate is the integer identity of a grid cell.
type CellCoordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c CellCoordinate) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// Step returns the neighbouring coordinate in direction, or false for an
// unknown direction.
func (c CellCoordinate) Step(direction string) (CellCoordinate, bool) {
	switch direction {
	case "up":
		return CellCoordinate{Row: c.Row - 1, Col: c.Col}, true
	case "down":
		return CellCoordinate{Row: c.Row + 1, Col: c.Col}, true
	case "left":
		return CellCoordinate{Row: c.Row, Col: c.Col - 1}, true
	case "right":
		return CellCoordinate{Row: c.Row, Col: c.Col + 1}, true
	}
	return c, false
}

// WorldPos is a continuous world-space position.
type WorldPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Floor maps p onto a grid with square cells of size cellSize.
func (p WorldPos) Floor(cellSize float64) CellCoordinate {
	return CellCoordinate{
		Row: int(math.Floor(p.Y / cellSize)),
		Col: int(math.Floor(p.X / cellSize)),
	}
}

// Visit is the coordinate context handed to a behavior on enter or exit.
type Visit struct {
	Agent AgentID        `json:"agent"`
	Cell  CellCoordinate `json:"cell"`
}

// GameEvent represents something that happened during a tick
type GameEvent struct {
	Type      string          `json:"type"` // "cell_enter", "cell_exit", "battle_start", "heal", ...
	Message   string          `json:"message"`
	Cell      *CellCoordinate `json:"cell,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventSink receives game events. Every producer accepts a nil sink.
type EventSink interface {
	Emit(event GameEvent)
}

// EventLog is an in-memory EventSink drained once per request.
type EventLog struct {
	events []GameEvent
}

// Emit appends event, stamping it if needed.
func (l *EventLog) Emit(event GameEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	l.events = append(l.events, event)
}

// Drain returns and clears the buffered events.
func (l *EventLog) Drain() []GameEvent {
	out := l.events
	l.events = nil
	return out
}

func emit(sink EventSink, typ, msg string, cell *CellCoordinate) {
	if sink == nil {
		return
	}
	sink.Emit(GameEvent{Type: typ, Message: msg, Cell: cell})
}

// SurroundingCell is one of the 8 neighbours of the train
type SurroundingCell struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Tile     string `json:"tile"`
	Passable bool   `json:"passable"`
}

// BattleView is the serialisable form of an active battle
type BattleView struct {
	Cell        CellCoordinate `json:"cell"`
	Shield      float64        `json:"shield"`
	BonusDamage float64        `json:"bonus_damage"`
	Applied     []EffectKind   `json:"applied,omitempty"`
}

// EffectView is the serialisable form of an equipped effect
type EffectView struct {
	Kind      EffectKind `json:"kind"`
	Level     int        `json:"level"`
	MaxLevel  int        `json:"max_level"`
	Magnitude float64    `json:"magnitude"`
}

// GameState is a snapshot of a run
type GameState struct {
	Grid          []string           `json:"grid"`
	TrainCell     CellCoordinate     `json:"train_cell"`
	TrainPos      WorldPos           `json:"train_pos"`
	Scraps        int                `json:"scraps"`
	Health        int                `json:"health"`
	MaxHealth     int                `json:"max_health"`
	Loadout       []EffectView       `json:"loadout"`
	Battle        *BattleView        `json:"battle,omitempty"`
	RewardOffer   []EffectKind       `json:"reward_offer,omitempty"`
	Message       string             `json:"message"`
	GameOver      bool               `json:"game_over"`
	Victory       bool               `json:"victory"`
	ConfigName    string             `json:"config_name"`
	Tick          int                `json:"tick"`
	MoveHistory   []MoveHistoryEntry `json:"move_history"`
	TotalMoves    int                `json:"total_moves"`
	LocalView     []SurroundingCell  `json:"local_view,omitempty"`
	PossibleMoves []string           `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action     string         `json:"action"`
	From       CellCoordinate `json:"from"`
	To         CellCoordinate `json:"to"`
	Health     int            `json:"health"`
	Scraps     int            `json:"scraps"`
	Timestamp  int64          `json:"timestamp"`
	Success    bool           `json:"success"`
	MoveNumber int            `json:"move_number"`
}
