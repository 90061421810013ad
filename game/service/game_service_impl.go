package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/scrap-train/game/engine"
	"github.com/wricardo/scrap-train/pkg/logger"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	log      logrus.FieldLogger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logger.Get().WithField("component", "game_service"),
	}
}

// getConfigID returns the config_id for a display name, for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) info(sess *Session, configID string) *SessionInfo {
	if configID == "" {
		configID = s.getConfigID(sess.Config.Name)
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config := s.configs.GetDefault()
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if availableConfigs, listErr := s.configs.ListConfigs(); listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, err, configIDs)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.WithFields(logrus.Fields{"session": sess.ID, "config": config.Name}).Info("Session created")
	return s.info(sess, configName), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess, ""), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess, ""))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.log.WithField("session", sessionID).Info("Session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if reset {
		sess.Engine.Reset()
	}

	before := sess.Engine.GetState()
	success := sess.Engine.Move(direction)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    drain(sess),
	}
	if success {
		result.Step = stepInfo(sess, 1, direction, before, state)
	} else {
		result.AttemptedTo = attemptInfo(sess, before.TrainCell, direction)
	}
	return result, nil
}

// BulkMove executes moves in sequence, stopping at the first failure, at an
// encounter that needs a decision, or at the end of the run.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, ErrInvalidMoves
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	if reset {
		sess.Engine.Reset()
	}

	start := sess.Engine.GetState()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Success:        true,
		StartCell:      start.TrainCell,
		StartHealth:    start.Health,
	}

	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	out, err := sess.Engine.BulkMove(ctx, moves, func(step engine.BulkStep) {
		result.Steps = append(result.Steps, *stepInfo(sess, step.Index, step.Direction, step.Before, step.After))
	})
	result.MovesExecuted = out.Executed
	result.StoppedOnMove = out.StoppedOnMove
	end := sess.Engine.GetState()

	switch {
	case err != nil:
		result.Success = false
		result.StoppedReason = err.Error()
	case out.Stop == engine.StopGameOver:
		result.StoppedReason = "game over"
	case out.Stop == engine.StopUnknownDirection:
		result.Success = false
		result.StopReasonCode = out.Stop
		result.StoppedReason = fmt.Sprintf("move %d: unknown direction %q", out.StoppedOnMove, moves[out.StoppedOnMove-1])
	case out.Stop == engine.StopBlocked:
		move := moves[out.StoppedOnMove-1]
		result.Success = false
		result.StopReasonCode = out.Stop
		result.StoppedReason = fmt.Sprintf("move %d blocked: %s", out.StoppedOnMove, move)
		result.AttemptedTo = attemptInfo(sess, end.TrainCell, move)
	case out.Stop == engine.StopBattle:
		result.StopReasonCode = out.Stop
		result.StoppedReason = fmt.Sprintf("battle started at %s", end.TrainCell)
	case out.Stop == engine.StopReward:
		result.StopReasonCode = out.Stop
		result.StoppedReason = fmt.Sprintf("reward offered at %s", end.TrainCell)
	}

	result.GameState = end
	result.Events = drain(sess)
	result.EndCell = end.TrainCell
	result.EndHealth = end.Health
	result.ScrapsDelta = end.Scraps - start.Scraps
	result.GameOver = end.GameOver
	result.Message = end.Message
	result.PossibleMoves = end.PossibleMoves

	if end.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = "defeat"
		if end.Victory {
			result.StopReasonCode = "victory"
		}
	}
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.Reset()
	sess.Engine.DrainEvents()
	return state, nil
}

// ResolveBattle reports the outcome of the session's active battle
func (s *gameServiceImpl) ResolveBattle(ctx context.Context, sessionID string, playerWon bool, remainingHealth int) (*ActionResult, error) {
	return s.act(sessionID, func(e *engine.GameEngine) (*engine.MergeResult, error) {
		return nil, e.ResolveBattle(playerWon, remainingHealth)
	})
}

// ClaimReward takes kind from the open reward offer
func (s *gameServiceImpl) ClaimReward(ctx context.Context, sessionID string, kind engine.EffectKind) (*ActionResult, error) {
	return s.act(sessionID, func(e *engine.GameEngine) (*engine.MergeResult, error) {
		r, err := e.ClaimReward(kind)
		return &r, err
	})
}

// CloseReward dismisses the open reward
func (s *gameServiceImpl) CloseReward(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(sessionID, func(e *engine.GameEngine) (*engine.MergeResult, error) {
		e.CloseReward()
		return nil, nil
	})
}

// Equip buys kind into the session's loadout
func (s *gameServiceImpl) Equip(ctx context.Context, sessionID string, kind engine.EffectKind) (*ActionResult, error) {
	return s.act(sessionID, func(e *engine.GameEngine) (*engine.MergeResult, error) {
		r, err := e.Equip(kind)
		return &r, err
	})
}

// act runs an encounter operation under the write lock and packages the
// result. A rejected merge is reported as an unsuccessful result, not an error.
func (s *gameServiceImpl) act(sessionID string, op func(e *engine.GameEngine) (*engine.MergeResult, error)) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	merge, err := op(sess.Engine)
	if err != nil {
		// Keep the event log clean for the next call.
		sess.Engine.DrainEvents()
		return nil, err
	}

	state := sess.Engine.GetState()
	return &ActionResult{
		Success:   merge == nil || merge.Merged,
		Merge:     merge,
		GameState: state,
		Message:   state.Message,
		Events:    drain(sess),
	}, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if config == nil {
		return errors.New("config is required")
	}
	return s.configs.SaveConfig(configName, config)
}

func drain(sess *Session) []engine.GameEvent {
	events := sess.Engine.DrainEvents()
	if events == nil {
		events = []engine.GameEvent{}
	}
	return events
}

func tileAt(sess *Session, c engine.CellCoordinate) (string, string) {
	ch := string(sess.Engine.Grid().Tile(c))
	return ch, engine.RequiredLegend[ch]
}

func stepInfo(sess *Session, idx int, dir string, before, after *engine.GameState) *StepInfo {
	tileChar, tileType := tileAt(sess, after.TrainCell)
	return &StepInfo{
		Idx:          idx,
		Dir:          dir,
		From:         before.TrainCell,
		To:           after.TrainCell,
		TileChar:     tileChar,
		TileType:     tileType,
		HealthBefore: before.Health,
		HealthAfter:  after.Health,
		Success:      true,
	}
}

// attemptInfo describes the cell a failed move aimed at; nil for an unknown
// direction.
func attemptInfo(sess *Session, from engine.CellCoordinate, dir string) *AttemptInfo {
	target, ok := from.Step(dir)
	if !ok {
		return nil
	}
	tileChar, tileType := tileAt(sess, target)
	return &AttemptInfo{
		Row:      target.Row,
		Col:      target.Col,
		TileChar: tileChar,
		TileType: tileType,
		Passable: false,
	}
}
