package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Messages holds the player-facing texts of a config
type Messages struct {
	Welcome      string `json:"welcome"`
	Blocked      string `json:"blocked"`
	Fled         string `json:"fled"`
	BattleWon    string `json:"battle_won"`
	BattleLost   string `json:"battle_lost"`
	Victory      string `json:"victory"`
	Defeat       string `json:"defeat"`
	HealthStatus string `json:"health_status"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	CellSize        float64           `json:"cell_size"`
	MaxHealth       int               `json:"max_health"`
	StartingHealth  int               `json:"starting_health"`
	StartingScraps  int               `json:"starting_scraps"`
	HealAmount      int               `json:"heal_amount"`
	DamageAmount    int               `json:"damage_amount"`
	BattleBounty    int               `json:"battle_bounty"`
	EffectCost      int               `json:"effect_cost"`
	RewardPool      []EffectKind      `json:"reward_pool"`
	StartingLoadout []EffectKind      `json:"starting_loadout"`
	Layout          []string          `json:"layout"`
	Legend          map[string]string `json:"legend"`
	Messages        Messages          `json:"messages"`
}

// RequiredLegend maps every layout character to its name.
var RequiredLegend = map[string]string{
	".": "track",
	"S": "start",
	"T": "terminus",
	"C": "combat",
	"R": "reward",
	"H": "heal",
	"D": "damage",
	"X": "impassable",
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if config.CellSize <= 0 {
		return fmt.Errorf("config validation: cell_size must be positive, got %g", config.CellSize)
	}

	if config.MaxHealth < MinMaxHealth || config.MaxHealth > MaxMaxHealth {
		return fmt.Errorf("config validation: max_health must be between %d and %d, got %d", MinMaxHealth, MaxMaxHealth, config.MaxHealth)
	}
	if config.StartingHealth < 1 || config.StartingHealth > config.MaxHealth {
		return fmt.Errorf("config validation: starting_health must be between 1 and max_health (%d), got %d",
			config.MaxHealth, config.StartingHealth)
	}
	if config.StartingScraps < 0 {
		return fmt.Errorf("config validation: starting_scraps cannot be negative, got %d", config.StartingScraps)
	}
	if config.HealAmount < 1 || config.DamageAmount < 1 {
		return fmt.Errorf("config validation: heal_amount and damage_amount must be positive")
	}
	if config.BattleBounty < 0 || config.EffectCost < 0 {
		return fmt.Errorf("config validation: battle_bounty and effect_cost cannot be negative")
	}

	for _, kind := range append(append([]EffectKind{}, config.RewardPool...), config.StartingLoadout...) {
		if !KnownEffect(kind) {
			return fmt.Errorf("config validation: unknown effect %q", kind)
		}
	}
	if len(config.RewardPool) == 0 && strings.Contains(strings.Join(config.Layout, ""), string(TileReward)) {
		return fmt.Errorf("config validation: reward_pool is required when the layout has reward cells")
	}

	if err := validateLayout(config.Layout); err != nil {
		return err
	}

	for key, expectedValue := range RequiredLegend {
		if value, ok := config.Legend[key]; !ok || value != expectedValue {
			return fmt.Errorf("config validation: legend['%s'] must be '%s', got '%s'", key, expectedValue, value)
		}
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if config.Messages.Defeat == "" {
		return fmt.Errorf("config validation: messages.defeat is required")
	}
	if config.Messages.HealthStatus != "" && !ValidHealthStatus(config.Messages.HealthStatus) {
		return fmt.Errorf("config validation: messages.health_status must format exactly two integers (health, max health), got %q", config.Messages.HealthStatus)
	}

	return nil
}

// ValidHealthStatus reports whether tmpl formats cleanly with the two health
// integers the engine passes it.
func ValidHealthStatus(tmpl string) bool {
	return !strings.Contains(fmt.Sprintf(tmpl, 1, 1), "%!")
}

func validateLayout(layout []string) error {
	if len(layout) < MinGridSize || len(layout) > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d", MinGridSize, MaxGridSize, len(layout))
	}
	width := len(layout[0])
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d columns, got %d", MinGridSize, MaxGridSize, width)
	}

	starts, termini := 0, 0
	for i, row := range layout {
		if len(row) != width {
			return fmt.Errorf("config validation: row %d must have %d characters, got %d", i+1, width, len(row))
		}
		for j := 0; j < len(row); j++ {
			switch row[j] {
			case TilePlain, TileCombat, TileReward, TileHeal, TileDamage, TileImpassable:
			case TileStart:
				starts++
			case TileTerminus:
				termini++
			default:
				return fmt.Errorf("config validation: invalid character '%c' at row %d, col %d", row[j], i+1, j+1)
			}
		}
	}

	if starts != 1 {
		return fmt.Errorf("config validation: layout must contain exactly one start (S) cell, got %d", starts)
	}
	if termini == 0 {
		return fmt.Errorf("config validation: layout must contain at least one terminus (T) cell")
	}
	if _, ok := ShortestPath(layout); !ok {
		return fmt.Errorf("config validation: no terminus is reachable from the start")
	}
	return nil
}

// ShortestPath returns the number of moves from the start to the nearest
// terminus through passable tiles.
func ShortestPath(layout []string) (int, bool) {
	var start CellCoordinate
	found := false
	for r, row := range layout {
		if c := strings.IndexByte(row, TileStart); c >= 0 {
			start = CellCoordinate{Row: r, Col: c}
			found = true
			break
		}
	}
	if !found {
		return 0, false
	}

	dist := map[CellCoordinate]int{start: 0}
	queue := []CellCoordinate{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if layout[cur.Row][cur.Col] == TileTerminus {
			return dist[cur], true
		}
		for _, dir := range []string{"up", "down", "left", "right"} {
			next, _ := cur.Step(dir)
			if next.Row < 0 || next.Row >= len(layout) || next.Col < 0 || next.Col >= len(layout[next.Row]) {
				continue
			}
			if layout[next.Row][next.Col] == TileImpassable {
				continue
			}
			if _, seen := dist[next]; seen {
				continue
			}
			dist[next] = dist[cur] + 1
			queue = append(queue, next)
		}
	}
	return 0, false
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filepath.Base(filename), err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in config used when none is available.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:            "default",
		Description:     "Built-in short line",
		CellSize:        1,
		MaxHealth:       100,
		StartingHealth:  100,
		StartingScraps:  5,
		HealAmount:      20,
		DamageAmount:    10,
		BattleBounty:    6,
		EffectCost:      8,
		RewardPool:      []EffectKind{FieldMedic, ScrapPlating, Salvager},
		StartingLoadout: []EffectKind{Salvager},
		Layout: []string{
			"XXXXXXX",
			"XS.D.HX",
			"X.X.X.X",
			"X.RC..X",
			"XXXXX.X",
			"XT....X",
			"XXXXXXX",
		},
		Legend: RequiredLegend,
	}
	config.Messages = Messages{
		Welcome:      "All aboard! Reach the terminus in one piece.",
		Blocked:      "The line is blocked!",
		Fled:         "The train pulled away from the fight.",
		BattleWon:    "Raiders repelled!",
		BattleLost:   "The train was overrun!",
		Victory:      "Terminus reached!",
		Defeat:       "The train has broken down. Game over!",
		HealthStatus: "Health: %d/%d",
	}
	return config
}
