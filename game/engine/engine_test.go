package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestNewEngine(t *testing.T) {
	engine := createTestEngine(t)

	state := engine.GetState()
	if state.TrainCell != (CellCoordinate{1, 1}) {
		t.Errorf("Expected train at start 1,1, got %v", state.TrainCell)
	}
	if state.Health != 100 || state.MaxHealth != 100 || state.Scraps != 12 {
		t.Errorf("Unexpected starting stats: health %d/%d scraps %d", state.Health, state.MaxHealth, state.Scraps)
	}
	if state.Message != "Welcome to test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.Loadout) != 1 || state.Loadout[0].Kind != ScrapPlating {
		t.Errorf("Expected starting loadout [scrap_plating], got %+v", state.Loadout)
	}
	if state.GameOver || state.Victory || state.Battle != nil {
		t.Error("Fresh engine must not be over or fighting")
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Layout = []string{"XX"}
	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestEngine_HealAndDamageCells(t *testing.T) {
	engine := createTestEngine(t)

	if !engine.Move("right") {
		t.Fatal("Expected move onto the damage cell")
	}
	if got := engine.GetState().Health; got != 90 {
		t.Errorf("Expected health 90 after damage, got %d", got)
	}

	// Leaving the damage cell onto the heal cell: exit is a no-op, heal clamps.
	engine.Move("right")
	if got := engine.GetState().Health; got != 100 {
		t.Errorf("Expected health clamped to 100, got %d", got)
	}

	// Stepping back re-triggers the damage cell.
	engine.Move("left")
	if got := engine.GetState().Health; got != 90 {
		t.Errorf("Expected health 90 after re-entering damage, got %d", got)
	}
	if msg := engine.GetState().Message; msg != "Health: 90/100" {
		t.Errorf("Expected health status message, got %q", msg)
	}
}

func TestEngine_BlockedMove(t *testing.T) {
	engine := createTestEngine(t)
	engine.DrainEvents()

	if engine.Move("up") {
		t.Error("Expected move into impassable cell to fail")
	}
	state := engine.GetState()
	if state.TrainCell != (CellCoordinate{1, 1}) {
		t.Errorf("Train moved despite the block: %v", state.TrainCell)
	}
	if !strings.HasPrefix(state.Message, "Blocked!") || !strings.Contains(state.Message, "impassable") {
		t.Errorf("Expected blocked message, got %q", state.Message)
	}
	if state.Tick != 0 {
		t.Errorf("Blocked move must not advance the tick, got %d", state.Tick)
	}

	events := engine.DrainEvents()
	if len(events) != 1 || events[0].Type != "blocked" {
		t.Errorf("Expected a single blocked event, got %+v", events)
	}

	if engine.Move("sideways") {
		t.Error("Expected unknown direction to fail")
	}
}

func TestEngine_CanMoveAndPossibleMoves(t *testing.T) {
	engine := createTestEngine(t)

	if !engine.CanMove("right") || !engine.CanMove("down") {
		t.Error("Expected right and down to be open from the start")
	}
	if engine.CanMove("up") || engine.CanMove("left") {
		t.Error("Expected up and left to be blocked from the start")
	}

	expected := []string{"down", "right"}
	if moves := engine.GetPossibleMoves(); !reflect.DeepEqual(moves, expected) {
		t.Errorf("Expected %v, got %v", expected, moves)
	}

	// Probing passability triggers nothing.
	if got := engine.GetState().Health; got != 100 {
		t.Errorf("CanMove changed health: %d", got)
	}
}

func TestEngine_BattleWon(t *testing.T) {
	engine := createTestEngine(t)
	engine.Move("right")
	engine.Move("right")
	engine.Move("right")

	state := engine.GetState()
	if state.Battle == nil {
		t.Fatal("Expected a battle on the combat cell")
	}
	// 12 scraps keeps scrap_plating active.
	if state.Battle.Shield != 3 || len(state.Battle.Applied) != 1 {
		t.Errorf("Expected scrap_plating shield 3, got %+v", state.Battle)
	}
	if !strings.Contains(state.Message, "Raiders attack") {
		t.Errorf("Expected battle message, got %q", state.Message)
	}

	if err := engine.ResolveBattle(true, 80); err != nil {
		t.Fatalf("ResolveBattle: %v", err)
	}
	state = engine.GetState()
	if state.Battle != nil {
		t.Error("Expected battle cleared")
	}
	if state.Health != 80 || state.Scraps != 17 {
		t.Errorf("Expected health 80 and scraps 17, got %d and %d", state.Health, state.Scraps)
	}
	if state.Message != "Won!" {
		t.Errorf("Expected battle won message, got %q", state.Message)
	}

	if err := engine.ResolveBattle(true, 80); !errors.Is(err, ErrNoActiveBattle) {
		t.Errorf("Expected ErrNoActiveBattle, got %v", err)
	}
}

func TestEngine_BattleLost(t *testing.T) {
	engine := createTestEngine(t)
	engine.BulkMove(context.Background(), []string{"right", "right", "right"}, nil)

	if err := engine.ResolveBattle(false, 0); err != nil {
		t.Fatalf("ResolveBattle: %v", err)
	}
	if !engine.IsGameOver() || engine.IsVictory() {
		t.Error("Expected defeat after losing the battle")
	}
	if engine.GetState().Message != "Lost!" {
		t.Errorf("Expected battle lost message, got %q", engine.GetState().Message)
	}
	if engine.Move("down") {
		t.Error("Expected moves to fail after game over")
	}
	if err := engine.ResolveBattle(true, 10); !errors.Is(err, ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}
}

func TestEngine_FleeingEndsBattle(t *testing.T) {
	engine := createTestEngine(t)
	engine.BulkMove(context.Background(), []string{"right", "right", "right"}, nil)
	engine.DrainEvents()

	if !engine.Move("down") {
		t.Fatal("Expected to pull away from the battle")
	}
	state := engine.GetState()
	if state.Battle != nil {
		t.Error("Expected the battle to end when leaving the cell")
	}
	if state.Message != "Fled!" {
		t.Errorf("Expected fled message, got %q", state.Message)
	}

	var types []string
	for _, ev := range engine.DrainEvents() {
		types = append(types, ev.Type)
	}
	expected := []string{"cell_exit", "battle_fled"}
	if !reflect.DeepEqual(types, expected) {
		t.Errorf("Expected events %v, got %v", expected, types)
	}
	if err := engine.ResolveBattle(true, 50); !errors.Is(err, ErrNoActiveBattle) {
		t.Errorf("Expected ErrNoActiveBattle after fleeing, got %v", err)
	}
}

func TestEngine_Victory(t *testing.T) {
	engine := createTestEngine(t)
	ctx := context.Background()

	out, err := engine.BulkMove(ctx, []string{"down", "down", "right"}, nil)
	if err != nil {
		t.Fatalf("BulkMove: %v", err)
	}
	if out.Stop != StopReward || out.Executed != 2 {
		t.Fatalf("Expected to stop at the reward, got %+v", out)
	}
	engine.CloseReward()

	out, err = engine.BulkMove(ctx, []string{"right", "right", "right", "left"}, nil)
	if err != nil {
		t.Fatalf("BulkMove: %v", err)
	}
	// The fourth move is never attempted.
	if out.Executed != 3 || out.Stop != StopGameOver || out.StoppedOnMove != 4 {
		t.Fatalf("Expected BulkMove to stop at victory, got %+v", out)
	}
	if !engine.IsGameOver() || !engine.IsVictory() {
		t.Error("Expected victory at the terminus")
	}
	if engine.GetState().Message != "Victory!" {
		t.Errorf("Expected victory message, got %q", engine.GetState().Message)
	}
}

func TestEngine_BulkMoveStops(t *testing.T) {
	tests := []struct {
		name     string
		moves    []string
		stop     string
		stopped  int
		executed int
	}{
		{"battle before the last move", []string{"right", "right", "right", "down"}, StopBattle, 3, 3},
		{"reward before the last move", []string{"down", "down", "right"}, StopReward, 2, 2},
		{"encounter on the last move", []string{"right", "right", "right"}, "", 0, 3},
		{"blocked", []string{"down", "right"}, StopBlocked, 2, 1},
		{"unknown direction", []string{"sideways"}, StopUnknownDirection, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := createTestEngine(t)

			var steps []BulkStep
			out, err := engine.BulkMove(context.Background(), tt.moves, func(step BulkStep) {
				steps = append(steps, step)
			})
			if err != nil {
				t.Fatalf("BulkMove: %v", err)
			}
			if out.Stop != tt.stop || out.StoppedOnMove != tt.stopped || out.Executed != tt.executed {
				t.Errorf("Expected stop %q on move %d after %d moves, got %+v", tt.stop, tt.stopped, tt.executed, out)
			}
			if len(steps) != tt.executed {
				t.Fatalf("Expected %d steps, got %d", tt.executed, len(steps))
			}
			for i, step := range steps {
				if step.Index != i+1 || step.Direction != tt.moves[i] {
					t.Errorf("Unexpected step %d: %+v", i, step)
				}
				if step.Before.TrainCell == step.After.TrainCell {
					t.Errorf("Step %d did not move the train", step.Index)
				}
			}
		})
	}
}

func TestEngine_BulkMoveCancelled(t *testing.T) {
	engine := createTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := engine.BulkMove(ctx, []string{"right"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if out.Executed != 0 || out.StoppedOnMove != 1 {
		t.Errorf("Expected no moves, got %+v", out)
	}
	if engine.GetState().TrainCell != (CellCoordinate{1, 1}) {
		t.Error("Train must not move after cancel")
	}
}

func TestEngine_DefeatByDamage(t *testing.T) {
	engine := createTestEngine(t)
	engine.Stats().Set(StatCurrentHealth, 5)

	engine.Move("right")
	if !engine.IsGameOver() || engine.IsVictory() {
		t.Error("Expected defeat when health reaches zero")
	}
	if engine.GetState().Message != "Defeat!" {
		t.Errorf("Expected defeat message, got %q", engine.GetState().Message)
	}
}

func TestEngine_RewardIsOneShot(t *testing.T) {
	engine := createTestEngine(t)
	reward := CellCoordinate{3, 1}

	engine.Move("down")
	engine.Move("down")
	state := engine.GetState()
	if !reflect.DeepEqual(state.RewardOffer, []EffectKind{FieldMedic, Salvager}) {
		t.Fatalf("Expected reward offer, got %v", state.RewardOffer)
	}

	if _, err := engine.ClaimReward(LastStand); !errors.Is(err, ErrNotOffered) {
		t.Errorf("Expected ErrNotOffered, got %v", err)
	}
	result, err := engine.ClaimReward(Salvager)
	if err != nil {
		t.Fatalf("ClaimReward: %v", err)
	}
	if !result.Merged || result.Level != 1 {
		t.Errorf("Expected Merged(1), got %v", result)
	}
	if engine.GetState().RewardOffer != nil {
		t.Error("Expected the offer to close after claiming")
	}
	if !engine.Grid().HasBehavior(reward) {
		t.Error("Reward cell must stay until the next tick")
	}

	engine.Move("right")
	if engine.Grid().HasBehavior(reward) || engine.Grid().Tile(reward) != TilePlain {
		t.Error("Expected reward cell removed on the next tick")
	}

	engine.Move("left")
	if engine.GetState().RewardOffer != nil {
		t.Error("Revisiting a cleared reward must not reopen it")
	}
	if _, err := engine.ClaimReward(Salvager); !errors.Is(err, ErrRewardClosed) {
		t.Errorf("Expected ErrRewardClosed, got %v", err)
	}
}

func TestEngine_LeavingRewardUnclaimedRemovesIt(t *testing.T) {
	engine := createTestEngine(t)
	reward := CellCoordinate{3, 1}

	engine.Move("down")
	engine.Move("down")
	engine.Move("right")
	if engine.GetState().RewardOffer != nil {
		t.Error("Expected the offer to close when leaving")
	}
	if !engine.Grid().HasBehavior(reward) {
		t.Error("Removal is deferred to the next tick")
	}

	engine.Tick()
	if engine.Grid().HasBehavior(reward) {
		t.Error("Expected reward cell removed after the next tick")
	}
}

func TestEngine_Equip(t *testing.T) {
	engine := createTestEngine(t)

	result, err := engine.Equip(ScrapPlating)
	if err != nil {
		t.Fatalf("Equip: %v", err)
	}
	if !result.Merged || result.Level != 2 {
		t.Errorf("Expected Merged(2), got %v", result)
	}
	if got := engine.GetState().Scraps; got != 8 {
		t.Errorf("Expected 8 scraps after purchase, got %d", got)
	}

	engine.Equip(ScrapPlating)
	result, err = engine.Equip(ScrapPlating)
	if err != nil {
		t.Fatalf("Equip: %v", err)
	}
	if result.Merged || result.Reason != AtMaxLevel {
		t.Errorf("Expected Rejected(AtMaxLevel), got %v", result)
	}
	if got := engine.GetState().Scraps; got != 4 {
		t.Errorf("Rejected merge must not be charged, scraps %d", got)
	}

	engine.Equip(FieldMedic)
	if _, err := engine.Equip(Salvager); !errors.Is(err, ErrInsufficientScraps) {
		t.Errorf("Expected ErrInsufficientScraps, got %v", err)
	}

	engine.Stats().Set(StatScraps, 100)
	if _, err := engine.Equip("warp_drive"); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("Expected ErrUnknownEffect, got %v", err)
	}
}

func TestEngine_LocalView(t *testing.T) {
	engine := createTestEngine(t)
	view := engine.GetLocalView()

	if len(view) != 8 {
		t.Fatalf("Expected 8 surrounding cells, got %d", len(view))
	}
	// Clockwise from north.
	if view[0].Row != 0 || view[0].Col != 1 || view[0].Tile != "X" || view[0].Passable {
		t.Errorf("Unexpected north cell %+v", view[0])
	}
	if view[2].Tile != "D" || !view[2].Passable {
		t.Errorf("Unexpected east cell %+v", view[2])
	}
	if view[4].Tile != "." || !view[4].Passable {
		t.Errorf("Unexpected south cell %+v", view[4])
	}
}

func TestEngine_ResetKeepsHistory(t *testing.T) {
	engine := createTestEngine(t)
	engine.Move("right")
	engine.Move("up")

	state := engine.Reset()
	if state.TrainCell != (CellCoordinate{1, 1}) || state.Health != 100 || state.Tick != 0 {
		t.Errorf("Expected a fresh run after reset, got %+v", state)
	}
	if len(state.MoveHistory) != 2 || state.TotalMoves != 2 {
		t.Errorf("Expected history to survive reset, got %d entries", len(state.MoveHistory))
	}
	if !state.MoveHistory[0].Success || state.MoveHistory[1].Success {
		t.Errorf("Unexpected history %+v", state.MoveHistory)
	}
	if state.MoveHistory[0].Health != 90 || state.MoveHistory[0].To != (CellCoordinate{1, 2}) {
		t.Errorf("Unexpected first entry %+v", state.MoveHistory[0])
	}

	events := engine.DrainEvents()
	if len(events) == 0 || events[len(events)-1].Type != "reset" {
		t.Errorf("Expected a reset event, got %+v", events)
	}
}
