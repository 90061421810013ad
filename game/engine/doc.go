// Package engine provides the core game logic for Scrap Train.
//
// A train travels a tile grid. Cells may carry a CellBehavior (combat,
// reward, heal, damage, impassable); the Dispatcher watches the train's
// world position every tick and fires OnExit for the cell being left before
// OnEnter for the cell being entered. Movement planning asks the
// PassabilityValidator instead, which only reads the grid.
//
// Equipped effects form a Loadout. Each Effect is gated by Conditions
// evaluated against live Stats and fires at the start of every battle.
// Equipping a kind that is already equipped merges it into a higher level.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Move("right")
//	state := gameEngine.GetState()
//
// Grid mutation during dispatch is never immediate: a reward cell is removed
// through the Scheduler on the tick after its reward closes.
package engine
