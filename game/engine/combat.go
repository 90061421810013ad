package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var ErrNoActiveBattle = errors.New("no active battle")

// Battle is the state the arena keeps while a fight is on.
type Battle struct {
	Agent       AgentID
	Cell        CellCoordinate
	Shield      float64
	BonusDamage float64
	Applied     []EffectKind
}

// BattleOutcome is reported once a battle is resolved.
type BattleOutcome struct {
	PlayerWon       bool
	RemainingHealth int
	Cell            CellCoordinate
}

// BattleListener consumes battle outcomes.
type BattleListener func(outcome BattleOutcome)

// Arena implements Combat. Resolution of the fight happens elsewhere; the
// arena applies the loadout at the start and relays the outcome.
type Arena struct {
	stats     StatsProvider
	loadout   *Loadout
	events    EventSink
	log       logrus.FieldLogger
	active    *Battle
	listeners []BattleListener
}

func NewArena(stats StatsProvider, loadout *Loadout, events EventSink, log logrus.FieldLogger) *Arena {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Arena{
		stats:   stats,
		loadout: loadout,
		events:  events,
		log:     log.WithField("component", "arena"),
	}
}

// OnBattleEnd registers l for every resolved battle.
func (a *Arena) OnBattleEnd(l BattleListener) {
	a.listeners = append(a.listeners, l)
}

func (a *Arena) StartBattle(v Visit) {
	if a.active != nil {
		return
	}
	a.active = &Battle{Agent: v.Agent, Cell: v.Cell}
	emit(a.events, "battle_start", "Raiders block the line!", &v.Cell)

	if a.loadout == nil || a.stats == nil {
		a.log.WithField("cell", v.Cell.String()).Warn("Battle started without loadout or stats")
		return
	}
	ctx := &CombatContext{Agent: v.Agent, Stats: a.stats, Battle: a.active}
	a.active.Applied = a.loadout.ApplyAll(ctx)
	for _, kind := range a.active.Applied {
		emit(a.events, "effect_applied", string(kind), &v.Cell)
	}
	a.log.WithFields(logrus.Fields{
		"agent":        v.Agent,
		"cell":         v.Cell.String(),
		"applied":      a.active.Applied,
		"shield":       a.active.Shield,
		"bonus_damage": a.active.BonusDamage,
	}).Info("Battle started")
}

func (a *Arena) ForceEndBattle() {
	if a.active == nil {
		return
	}
	cell := a.active.Cell
	a.active = nil
	emit(a.events, "battle_fled", "The train pulled away from the fight", &cell)
}

// EndBattle clears the active battle and notifies listeners.
func (a *Arena) EndBattle(playerWon bool, remainingHealth int) error {
	if a.active == nil {
		return ErrNoActiveBattle
	}
	outcome := BattleOutcome{PlayerWon: playerWon, RemainingHealth: remainingHealth, Cell: a.active.Cell}
	a.active = nil

	result := "lost"
	if playerWon {
		result = "won"
	}
	emit(a.events, "battle_end", fmt.Sprintf("Battle %s with %d health left", result, remainingHealth), &outcome.Cell)
	for _, l := range a.listeners {
		l(outcome)
	}
	return nil
}

// Active returns the running battle, if any.
func (a *Arena) Active() (*Battle, bool) {
	return a.active, a.active != nil
}
