// Command validate checks game configuration JSON files. For every file it
// reports all problems it can find, not just the first one:
//   - JSON structure and required fields
//   - Grid shape and allowed characters (. S T C R H D X)
//   - Exactly one start (S) and at least one terminus (T)
//   - Health, scraps and effect economy bounds
//   - Known effect kinds in reward_pool and starting_loadout
//   - Legend and required message keys
//   - Reachability of a terminus from the start
//
// Files are taken from the arguments, or every *.json in --config-dir.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/scrap-train/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if config.Name == "" {
		result.fail("name is required")
	}
	if config.Description == "" {
		result.fail("description is required")
	}
	if config.CellSize <= 0 {
		result.fail("cell_size must be positive, got %g", config.CellSize)
	}

	counts := checkLayout(&result, config.Layout)
	checkEconomy(&result, &config)
	checkEffects(&result, &config, counts[engine.TileReward])

	for key, expected := range engine.RequiredLegend {
		if got := config.Legend[key]; got != expected {
			result.fail("legend['%s'] must be '%s', got '%s'", key, expected, got)
		}
	}

	for _, msg := range []struct{ key, value string }{
		{"welcome", config.Messages.Welcome},
		{"victory", config.Messages.Victory},
		{"defeat", config.Messages.Defeat},
	} {
		if msg.value == "" {
			result.fail("Missing required message: %s", msg.key)
		}
	}
	if status := config.Messages.HealthStatus; status != "" && !engine.ValidHealthStatus(status) {
		result.fail("messages.health_status must format exactly two integers, got %q", status)
	}

	if !result.Valid {
		return result
	}

	// The engine is the final word on what it will accept.
	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%v", err)
		return result
	}

	moves, _ := engine.ShortestPath(config.Layout)
	result.Info = append(result.Info,
		fmt.Sprintf("Name: %s", config.Name),
		fmt.Sprintf("Grid: %dx%d", len(config.Layout), len(config.Layout[0])),
		fmt.Sprintf("Health: %d/%d", config.StartingHealth, config.MaxHealth),
		fmt.Sprintf("Combat: %d, Reward: %d, Heal: %d, Damage: %d",
			counts[engine.TileCombat], counts[engine.TileReward], counts[engine.TileHeal], counts[engine.TileDamage]),
		fmt.Sprintf("Shortest path: %d moves", moves),
	)
	return result
}

// checkLayout validates grid shape and tiles and returns per-tile counts.
func checkLayout(result *ValidationResult, layout []string) map[byte]int {
	counts := make(map[byte]int)
	if len(layout) == 0 {
		result.fail("Layout is empty")
		return counts
	}
	if len(layout) < engine.MinGridSize || len(layout) > engine.MaxGridSize {
		result.fail("Layout must have between %d and %d rows, got %d", engine.MinGridSize, engine.MaxGridSize, len(layout))
	}

	width := len(layout[0])
	for i, row := range layout {
		if len(row) != width {
			result.fail("Inconsistent grid width at row %d: expected %d, got %d", i+1, width, len(row))
		}
		for j := 0; j < len(row); j++ {
			c := row[j]
			if _, ok := engine.RequiredLegend[string(c)]; !ok {
				result.fail("Invalid character '%c' at position [%d,%d]", c, i+1, j+1)
				continue
			}
			counts[c]++
		}
	}

	if counts[engine.TileStart] != 1 {
		result.fail("Must have exactly 1 start (S) cell, got %d", counts[engine.TileStart])
	}
	if counts[engine.TileTerminus] == 0 {
		result.fail("Must have at least 1 terminus (T) cell")
	}

	if counts[engine.TileStart] == 1 && counts[engine.TileTerminus] > 0 {
		if _, ok := engine.ShortestPath(layout); !ok {
			result.fail("Connectivity failure: no terminus reachable from the start")
		}
	}
	return counts
}

func checkEconomy(result *ValidationResult, config *engine.GameConfig) {
	if config.MaxHealth < engine.MinMaxHealth || config.MaxHealth > engine.MaxMaxHealth {
		result.fail("max_health must be between %d and %d, got %d", engine.MinMaxHealth, engine.MaxMaxHealth, config.MaxHealth)
	}
	if config.StartingHealth < 1 || config.StartingHealth > config.MaxHealth {
		result.fail("starting_health (%d) must be between 1 and max_health (%d)", config.StartingHealth, config.MaxHealth)
	}
	if config.StartingScraps < 0 {
		result.fail("starting_scraps cannot be negative, got %d", config.StartingScraps)
	}
	if config.HealAmount < 1 {
		result.fail("heal_amount must be positive, got %d", config.HealAmount)
	}
	if config.DamageAmount < 1 {
		result.fail("damage_amount must be positive, got %d", config.DamageAmount)
	}
	if config.BattleBounty < 0 {
		result.fail("battle_bounty cannot be negative, got %d", config.BattleBounty)
	}
	if config.EffectCost < 0 {
		result.fail("effect_cost cannot be negative, got %d", config.EffectCost)
	}
}

func checkEffects(result *ValidationResult, config *engine.GameConfig, rewardCells int) {
	for _, kind := range config.RewardPool {
		if !engine.KnownEffect(kind) {
			result.fail("Unknown effect in reward_pool: %s", kind)
		}
	}
	for _, kind := range config.StartingLoadout {
		if !engine.KnownEffect(kind) {
			result.fail("Unknown effect in starting_loadout: %s", kind)
		}
	}
	if rewardCells > 0 && len(config.RewardPool) == 0 {
		result.fail("reward_pool is required when the layout has %d reward cell(s)", rewardCells)
	}
}

// report prints one block per result and returns whether all were valid.
func report(w io.Writer, results []ValidationResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  ✓ "+info)
			}
			continue
		}

		allValid = false
		fmt.Fprintln(w, "❌ INVALID")
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate Scrap Train game configurations",
		ArgsUsage: "[file.json ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory scanned for *.json when no files are given",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				var err error
				files, err = filepath.Glob(filepath.Join(cmd.String("config-dir"), "*.json"))
				if err != nil {
					return fmt.Errorf("finding config files: %w", err)
				}
			}
			if len(files) == 0 {
				return errors.New("no configuration files found")
			}

			results := make([]ValidationResult, 0, len(files))
			for _, file := range files {
				results = append(results, validateConfig(file))
			}

			if !report(cmd.Root().Writer, results) {
				return errors.New("some configurations have errors")
			}
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
