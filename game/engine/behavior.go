package engine

import (
	"errors"
	"fmt"
)

var ErrMissingCollaborator = errors.New("missing collaborator")

// BehaviorKind tags a cell behavior variant.
type BehaviorKind string

const (
	CombatBehavior     BehaviorKind = "combat"
	RewardBehavior     BehaviorKind = "reward"
	HealBehavior       BehaviorKind = "heal"
	DamageBehavior     BehaviorKind = "damage"
	ImpassableBehavior BehaviorKind = "impassable"
)

// CellBehavior is the reactive logic bound to a cell. Instances are
// immutable configuration shared by every visit.
type CellBehavior interface {
	Kind() BehaviorKind
	OnEnter(v Visit) error
	OnExit(v Visit) error
	Passable() bool
}

// Combat is the battle collaborator.
type Combat interface {
	StartBattle(v Visit)
	// ForceEndBattle must be safe to call with no battle active.
	ForceEndBattle()
}

// RewardContext is handed to the presenter when a reward opens.
type RewardContext struct {
	Visit Visit
	Offer []EffectKind
}

// Presenter is the reward presentation collaborator.
type Presenter interface {
	Open(ctx RewardContext)
	Close()
}

func missing(kind BehaviorKind, what string) error {
	return fmt.Errorf("%s cell: %w: %s", kind, ErrMissingCollaborator, what)
}

// baseBehavior supplies the defaults: no reaction, passable.
type baseBehavior struct{}

func (baseBehavior) OnEnter(Visit) error { return nil }
func (baseBehavior) OnExit(Visit) error  { return nil }
func (baseBehavior) Passable() bool      { return true }

// CombatCell starts a battle on enter and abandons it on exit.
type CombatCell struct {
	baseBehavior
	Combat Combat
}

func (c *CombatCell) Kind() BehaviorKind { return CombatBehavior }

func (c *CombatCell) OnEnter(v Visit) error {
	if c.Combat == nil {
		return missing(CombatBehavior, "combat")
	}
	c.Combat.StartBattle(v)
	return nil
}

func (c *CombatCell) OnExit(Visit) error {
	if c.Combat == nil {
		return missing(CombatBehavior, "combat")
	}
	c.Combat.ForceEndBattle()
	return nil
}

// RewardCell opens the reward presenter on enter and closes it on exit.
// The presenter removes the cell once the reward closes.
type RewardCell struct {
	baseBehavior
	Presenter Presenter
	Offer     []EffectKind
}

func (r *RewardCell) Kind() BehaviorKind { return RewardBehavior }

func (r *RewardCell) OnEnter(v Visit) error {
	if r.Presenter == nil {
		return missing(RewardBehavior, "presenter")
	}
	r.Presenter.Open(RewardContext{Visit: v, Offer: r.Offer})
	return nil
}

func (r *RewardCell) OnExit(Visit) error {
	if r.Presenter == nil {
		return missing(RewardBehavior, "presenter")
	}
	r.Presenter.Close()
	return nil
}

// HealCell restores Amount to Pool on enter.
type HealCell struct {
	baseBehavior
	Stats  StatsProvider
	Pool   StatType
	Amount float64
	Events EventSink
}

func (h *HealCell) Kind() BehaviorKind { return HealBehavior }

func (h *HealCell) OnEnter(v Visit) error {
	if h.Stats == nil {
		return missing(HealBehavior, "stats")
	}
	h.Stats.ApplyDelta(h.Pool, h.Amount)
	emit(h.Events, "heal", fmt.Sprintf("Repaired %g %s (now %g)", h.Amount, h.Pool, h.Stats.Get(h.Pool)), &v.Cell)
	return nil
}

// DamageCell subtracts Amount from Pool on enter.
type DamageCell struct {
	baseBehavior
	Stats  StatsProvider
	Pool   StatType
	Amount float64
	Events EventSink
}

func (d *DamageCell) Kind() BehaviorKind { return DamageBehavior }

func (d *DamageCell) OnEnter(v Visit) error {
	if d.Stats == nil {
		return missing(DamageBehavior, "stats")
	}
	d.Stats.ApplyDelta(d.Pool, -d.Amount)
	emit(d.Events, "damage", fmt.Sprintf("Took %g %s damage (now %g)", d.Amount, d.Pool, d.Stats.Get(d.Pool)), &v.Cell)
	return nil
}

// ImpassableCell blocks movement and has no reaction.
type ImpassableCell struct {
	baseBehavior
}

func (ImpassableCell) Kind() BehaviorKind { return ImpassableBehavior }
func (ImpassableCell) Passable() bool     { return false }
