// Command analyze prints quick, human-readable heuristics about game
// configuration files: dimensions, health economy, tile counts, the shortest
// path from start to terminus, and special cells the train can never reach.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/scrap-train/game/engine"
)

// Analysis summarizes one configuration.
type Analysis struct {
	Name         string
	Rows, Cols   int
	Counts       map[byte]int
	Start        engine.CellCoordinate
	ShortestPath int
	Reachable    bool
	// Unreachable lists special (non-track) cells cut off from the start.
	Unreachable []engine.CellCoordinate
}

var reportedTiles = []struct {
	tile byte
	name string
}{
	{engine.TileCombat, "Combat"},
	{engine.TileReward, "Reward"},
	{engine.TileHeal, "Heal"},
	{engine.TileDamage, "Damage"},
	{engine.TileTerminus, "Terminus"},
}

func analyze(config *engine.GameConfig) Analysis {
	a := Analysis{
		Name:   config.Name,
		Rows:   len(config.Layout),
		Counts: make(map[byte]int),
	}
	if a.Rows > 0 {
		a.Cols = len(config.Layout[0])
	}

	for r, row := range config.Layout {
		for c := 0; c < len(row); c++ {
			a.Counts[row[c]]++
			if row[c] == engine.TileStart {
				a.Start = engine.CellCoordinate{Row: r, Col: c}
			}
		}
	}

	a.ShortestPath, a.Reachable = engine.ShortestPath(config.Layout)

	seen := reachable(config.Layout, a.Start)
	for r, row := range config.Layout {
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case engine.TilePlain, engine.TileImpassable, engine.TileStart:
				continue
			}
			cell := engine.CellCoordinate{Row: r, Col: c}
			if !seen[cell] {
				a.Unreachable = append(a.Unreachable, cell)
			}
		}
	}
	return a
}

// reachable flood-fills passable cells from start.
func reachable(layout []string, start engine.CellCoordinate) map[engine.CellCoordinate]bool {
	seen := map[engine.CellCoordinate]bool{start: true}
	queue := []engine.CellCoordinate{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dir := range []string{"up", "down", "left", "right"} {
			next, _ := cur.Step(dir)
			if next.Row < 0 || next.Row >= len(layout) || next.Col < 0 || next.Col >= len(layout[next.Row]) {
				continue
			}
			if layout[next.Row][next.Col] == engine.TileImpassable || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

func printAnalysis(w io.Writer, config *engine.GameConfig, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "Health: %d/%d (heal %d, damage %d)\n", config.StartingHealth, config.MaxHealth, config.HealAmount, config.DamageAmount)
	fmt.Fprintf(w, "Scraps: %d (bounty %d, effect cost %d)\n", config.StartingScraps, config.BattleBounty, config.EffectCost)
	fmt.Fprintf(w, "Start Position: (%s)\n", a.Start)
	for _, t := range reportedTiles {
		fmt.Fprintf(w, "%s cells: %d\n", t.name, a.Counts[t.tile])
	}

	if a.Reachable {
		fmt.Fprintf(w, "✅ Shortest path to terminus: %d moves\n", a.ShortestPath)
	} else {
		fmt.Fprintf(w, "⚠️  CRITICAL: no terminus is reachable from the start\n")
	}

	// Damage cells alone can end the run if every one is crossed.
	if lethal := a.Counts[engine.TileDamage] * config.DamageAmount; lethal >= config.StartingHealth {
		fmt.Fprintf(w, "⚠️  WARNING: crossing every damage cell deals %d, starting health is %d\n", lethal, config.StartingHealth)
	}

	if len(a.Unreachable) == 0 {
		fmt.Fprintf(w, "✅ All special cells are reachable from the start\n")
		return
	}
	fmt.Fprintf(w, "⚠️  WARNING: %d special cells are unreachable from the start!\n", len(a.Unreachable))
	for i, cell := range a.Unreachable {
		if i == 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.Unreachable)-5)
			break
		}
		fmt.Fprintf(w, "   Unreachable: (%s) - '%c'\n", cell, config.Layout[cell.Row][cell.Col])
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Print heuristics about Scrap Train game configurations",
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
			w := cmd.Root().Writer

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

			for _, file := range files {
				fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))
				config, err := engine.LoadGameConfig(file)
				if err != nil {
					fmt.Fprintf(w, "Error loading config: %v\n", err)
					continue
				}
				printAnalysis(w, config, analyze(config))
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
