package service

import (
	"time"

	"github.com/wricardo/scrap-train/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool               `json:"success"`
	GameState   *engine.GameState  `json:"game_state"`
	Message     string             `json:"message"`
	Events      []engine.GameEvent `json:"events"`
	Step        *StepInfo          `json:"step,omitempty"`
	AttemptedTo *AttemptInfo       `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int                `json:"moves_executed"`
	RequestedMoves int                `json:"requested_moves"`
	Success        bool               `json:"success"`
	GameState      *engine.GameState  `json:"game_state"`
	Events         []engine.GameEvent `json:"events"`
	StoppedReason  string             `json:"stopped_reason,omitempty"`
	StopReasonCode string             `json:"stop_reason_code,omitempty"` // blocked|unknown_direction|battle|reward|victory|defeat
	StoppedOnMove  int                `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool               `json:"truncated,omitempty"`
	Limit          int                `json:"limit,omitempty"`

	StartCell   engine.CellCoordinate `json:"start_cell"`
	EndCell     engine.CellCoordinate `json:"end_cell"`
	StartHealth int                   `json:"start_health"`
	EndHealth   int                   `json:"end_health"`
	ScrapsDelta int                   `json:"scraps_delta"`

	Steps       []StepInfo   `json:"steps,omitempty"`
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx          int                   `json:"idx"`
	Dir          string                `json:"dir"`
	From         engine.CellCoordinate `json:"from"`
	To           engine.CellCoordinate `json:"to"`
	TileChar     string                `json:"tile_char"`
	TileType     string                `json:"tile_type"`
	HealthBefore int                   `json:"health_before"`
	HealthAfter  int                   `json:"health_after"`
	Success      bool                  `json:"success"`
}

// AttemptInfo details the first failed target cell attempted
type AttemptInfo struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
	Passable bool   `json:"passable"`
}

// ActionResult is returned by battle, reward and equip operations
type ActionResult struct {
	Success   bool                `json:"success"`
	Merge     *engine.MergeResult `json:"merge,omitempty"`
	GameState *engine.GameState   `json:"game_state"`
	Message   string              `json:"message"`
	Events    []engine.GameEvent  `json:"events"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename     string              `json:"filename"`
	ConfigID     string              `json:"config_id"` // The identifier to use for session creation
	Name         string              `json:"name"`      // Display name
	Description  string              `json:"description"`
	Rows         int                 `json:"rows"`
	Cols         int                 `json:"cols"`
	MaxHealth    int                 `json:"max_health"`
	RewardPool   []engine.EffectKind `json:"reward_pool"`
	ShortestPath int                 `json:"shortest_path"`
}
