// Package config provides configuration management for Scrap Train lines.
//
// A line is a JSON file in the config directory. Each file defines:
//   - The layout, one character per cell (. track, S start, T terminus,
//     C combat, R reward, H heal, D damage, X impassable)
//   - Health, scrap and encounter tuning
//   - The reward pool and the starting loadout
//   - Messages shown to the player
//
// The Manager caches loaded configurations, lists the valid ones and picks a
// default: classic.json when present, otherwise the first valid file, otherwise
// the built-in line from engine.DefaultConfig.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("easy")
//	configs, err := manager.ListConfigs()
package config
