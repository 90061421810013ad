package engine

import (
	"errors"
	"fmt"
	"testing"
)

// fakeLookup is a map-backed CellLookup with unit-sized cells.
type fakeLookup struct {
	behaviors map[CellCoordinate]CellBehavior
	resolved  int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{behaviors: make(map[CellCoordinate]CellBehavior)}
}

func (f *fakeLookup) WorldToCell(pos WorldPos) CellCoordinate {
	return pos.Floor(1)
}

func (f *fakeLookup) BehaviorAt(c CellCoordinate) (CellBehavior, bool) {
	f.resolved++
	b, ok := f.behaviors[c]
	return b, ok
}

func (f *fakeLookup) SetBehavior(c CellCoordinate, b CellBehavior) {
	if b == nil {
		delete(f.behaviors, c)
		return
	}
	f.behaviors[c] = b
}

// recordingBehavior appends "enter:<name>@<cell>" / "exit:<name>@<cell>" to
// a shared call log.
type recordingBehavior struct {
	name     string
	calls    *[]string
	passable bool
	failWith error
}

func (r *recordingBehavior) Kind() BehaviorKind { return BehaviorKind(r.name) }

func (r *recordingBehavior) OnEnter(v Visit) error {
	*r.calls = append(*r.calls, fmt.Sprintf("enter:%s@%s", r.name, v.Cell))
	return r.failWith
}

func (r *recordingBehavior) OnExit(v Visit) error {
	*r.calls = append(*r.calls, fmt.Sprintf("exit:%s@%s", r.name, v.Cell))
	return r.failWith
}

func (r *recordingBehavior) Passable() bool { return r.passable }

// at returns the world position at the centre of (row, col) for unit cells.
func at(row, col int) WorldPos {
	return WorldPos{X: float64(col) + 0.5, Y: float64(row) + 0.5}
}

// fakeCombat records battle requests.
type fakeCombat struct {
	started []Visit
	ended   int
}

func (f *fakeCombat) StartBattle(v Visit) { f.started = append(f.started, v) }
func (f *fakeCombat) ForceEndBattle()     { f.ended++ }

// fakePresenter records presentation requests.
type fakePresenter struct {
	opened []RewardContext
	closed int
}

func (f *fakePresenter) Open(ctx RewardContext) { f.opened = append(f.opened, ctx) }
func (f *fakePresenter) Close()                 { f.closed++ }

// strictStats fails the test if a forbidden stat is read.
type strictStats struct {
	t         *testing.T
	values    map[StatType]float64
	forbidden StatType
	reads     []StatType
}

func (s *strictStats) Get(stat StatType) float64 {
	s.reads = append(s.reads, stat)
	if stat == s.forbidden {
		s.t.Fatalf("stat %q must not be read", stat)
	}
	return s.values[stat]
}

func (s *strictStats) ApplyDelta(pool StatType, amount float64) {
	s.values[pool] += amount
}

var errBoom = errors.New("boom")

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:            "Test Config",
		Description:     "Test configuration for engine tests",
		CellSize:        1,
		MaxHealth:       100,
		StartingHealth:  100,
		StartingScraps:  12,
		HealAmount:      20,
		DamageAmount:    10,
		BattleBounty:    5,
		EffectCost:      4,
		RewardPool:      []EffectKind{FieldMedic, Salvager},
		StartingLoadout: []EffectKind{ScrapPlating},
		Layout: []string{
			"XXXXXX",
			"XSDHCX",
			"X.XX.X",
			"XR..TX",
			"XXXXXX",
		},
		Legend: RequiredLegend,
		Messages: Messages{
			Welcome:      "Welcome to test!",
			Blocked:      "Blocked!",
			Fled:         "Fled!",
			BattleWon:    "Won!",
			BattleLost:   "Lost!",
			Victory:      "Victory!",
			Defeat:       "Defeat!",
			HealthStatus: "Health: %d/%d",
		},
	}
}

func createTestEngine(t *testing.T) *GameEngine {
	t.Helper()
	e, err := NewEngine(createTestConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}
