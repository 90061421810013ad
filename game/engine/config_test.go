package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateGameConfig_ValidConfig(t *testing.T) {
	if err := ValidateGameConfig(createTestConfig()); err != nil {
		t.Errorf("Expected valid config to pass validation, got: %v", err)
	}
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Expected default config to pass validation, got: %v", err)
	}
}

func TestValidateGameConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *GameConfig)
		expected string
	}{
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"zero cell size", func(c *GameConfig) { c.CellSize = 0 }, "cell_size must be positive"},
		{"max health too high", func(c *GameConfig) { c.MaxHealth = MaxMaxHealth + 1 }, "max_health must be between"},
		{"starting above max", func(c *GameConfig) { c.StartingHealth = 101 }, "starting_health must be between"},
		{"negative scraps", func(c *GameConfig) { c.StartingScraps = -1 }, "starting_scraps cannot be negative"},
		{"zero heal", func(c *GameConfig) { c.HealAmount = 0 }, "heal_amount and damage_amount"},
		{"negative cost", func(c *GameConfig) { c.EffectCost = -2 }, "battle_bounty and effect_cost"},
		{"unknown pool effect", func(c *GameConfig) { c.RewardPool = []EffectKind{"warp_drive"} }, "unknown effect"},
		{"unknown starting effect", func(c *GameConfig) { c.StartingLoadout = []EffectKind{"warp_drive"} }, "unknown effect"},
		{"empty pool with reward cells", func(c *GameConfig) { c.RewardPool = nil }, "reward_pool is required"},
		{"too few rows", func(c *GameConfig) { c.Layout = c.Layout[:2] }, "layout must have between"},
		{"ragged rows", func(c *GameConfig) { c.Layout[2] = "X.X" }, "row 3 must have 6 characters"},
		{"invalid character", func(c *GameConfig) { c.Layout[2] = "X.XQ.X" }, "invalid character 'Q'"},
		{"two starts", func(c *GameConfig) { c.Layout[3] = "XS..TX" }, "exactly one start"},
		{"no terminus", func(c *GameConfig) { c.Layout[3] = "XR...X" }, "at least one terminus"},
		{"unreachable terminus", func(c *GameConfig) {
			c.Layout = []string{"XXXXX", "XS.XX", "XXXTX", "XXXXX"}
		}, "no terminus is reachable"},
		{"wrong legend", func(c *GameConfig) {
			c.Legend = map[string]string{".": "track", "S": "start", "T": "terminus", "C": "combat", "R": "reward", "H": "heal", "D": "damage", "X": "lava"}
		}, "legend['X']"},
		{"missing welcome", func(c *GameConfig) { c.Messages.Welcome = "" }, "messages.welcome"},
		{"missing victory", func(c *GameConfig) { c.Messages.Victory = "" }, "messages.victory"},
		{"bad health status", func(c *GameConfig) { c.Messages.HealthStatus = "Health: %d" }, "messages.health_status"},
		{"health status with extra verb", func(c *GameConfig) { c.Messages.HealthStatus = "%s %d/%d" }, "messages.health_status"},
		{"health status with string verbs", func(c *GameConfig) { c.Messages.HealthStatus = "Health: %s/%s" }, "messages.health_status"},
		{"health status with three ints", func(c *GameConfig) { c.Messages.HealthStatus = "%d/%d/%d" }, "messages.health_status"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := createTestConfig()
			test.mutate(config)
			err := ValidateGameConfig(config)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), test.expected) {
				t.Errorf("Expected error containing %q, got: %v", test.expected, err)
			}
		})
	}

	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestValidateGameConfig_OptionalHealthStatus(t *testing.T) {
	config := createTestConfig()
	config.Messages.HealthStatus = ""
	if err := ValidateGameConfig(config); err != nil {
		t.Errorf("Expected empty health_status to be allowed, got: %v", err)
	}

	for _, tmpl := range []string{"Hull %d of %d", "%3d/%-3d (100%%)", "%v/%v"} {
		config.Messages.HealthStatus = tmpl
		if err := ValidateGameConfig(config); err != nil {
			t.Errorf("Expected %q to be allowed, got: %v", tmpl, err)
		}
	}
}

func TestShortestPath(t *testing.T) {
	tests := []struct {
		name     string
		layout   []string
		expected int
		ok       bool
	}{
		{"test layout", createTestConfig().Layout, 5, true},
		{"default layout", DefaultConfig().Layout, 12, true},
		{"straight line", []string{"XXXXX", "XS.TX", "XXXXX"}, 2, true},
		{"walled off", []string{"XXXXX", "XSXTX", "XXXXX"}, 0, false},
		{"no start", []string{"XXX", "X.T", "XXX"}, 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			steps, ok := ShortestPath(test.layout)
			if ok != test.ok || steps != test.expected {
				t.Errorf("ShortestPath = (%d, %v), expected (%d, %v)", steps, ok, test.expected, test.ok)
			}
		})
	}
}

func TestLoadGameConfig(t *testing.T) {
	tempDir := t.TempDir()

	validPath := filepath.Join(tempDir, "valid.json")
	data, err := json.Marshal(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(validPath, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	config, err := LoadGameConfig(validPath)
	if err != nil {
		t.Fatalf("Failed to load valid config: %v", err)
	}
	if config.Name != "Test Config" || config.BattleBounty != 5 {
		t.Errorf("Unexpected config loaded: %+v", config)
	}
	if len(config.StartingLoadout) != 1 || config.StartingLoadout[0] != ScrapPlating {
		t.Errorf("Expected starting loadout [scrap_plating], got %v", config.StartingLoadout)
	}

	brokenPath := filepath.Join(tempDir, "broken.json")
	os.WriteFile(brokenPath, []byte("{not json"), 0644)
	if _, err := LoadGameConfig(brokenPath); err == nil || !strings.Contains(err.Error(), "broken.json") {
		t.Errorf("Expected parse error naming the file, got: %v", err)
	}

	invalid := createTestConfig()
	invalid.Name = ""
	invalidPath := filepath.Join(tempDir, "invalid.json")
	data, _ = json.Marshal(invalid)
	os.WriteFile(invalidPath, data, 0644)
	if _, err := LoadGameConfig(invalidPath); err == nil {
		t.Error("Expected validation error for invalid config")
	}

	if _, err := LoadGameConfig(filepath.Join(tempDir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}
