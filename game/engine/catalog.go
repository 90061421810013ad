package engine

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownEffect = errors.New("unknown effect kind")

const (
	FieldMedic   EffectKind = "field_medic"
	ScrapPlating EffectKind = "scrap_plating"
	LastStand    EffectKind = "last_stand"
	Salvager     EffectKind = "salvager"
	FullSteam    EffectKind = "full_steam"
)

// catalog maps each kind to a constructor of a fresh level-1 instance.
var catalog = map[EffectKind]func() *Effect{
	FieldMedic: func() *Effect {
		e := &Effect{
			Kind:       FieldMedic,
			Conditions: []Condition{Below(StatCurrentHealth, 0.5, StatMaxHealth)},
			Base:       4,
		}
		e.Action = func(ctx *CombatContext) {
			ctx.Stats.ApplyDelta(StatCurrentHealth, e.Magnitude())
		}
		return e
	},
	ScrapPlating: func() *Effect {
		e := &Effect{
			Kind:       ScrapPlating,
			Conditions: []Condition{Above(StatScraps, 10, "")},
			Base:       3,
		}
		e.Action = func(ctx *CombatContext) {
			if ctx.Battle != nil {
				ctx.Battle.Shield += e.Magnitude()
			}
		}
		return e
	},
	LastStand: func() *Effect {
		e := &Effect{
			Kind:       LastStand,
			Conditions: []Condition{Below(StatCurrentHealth, 0.25, StatMaxHealth)},
			Base:       5,
		}
		e.Action = func(ctx *CombatContext) {
			if ctx.Battle != nil {
				ctx.Battle.BonusDamage += e.Magnitude()
			}
		}
		return e
	},
	Salvager: func() *Effect {
		e := &Effect{Kind: Salvager, Base: 2}
		e.Action = func(ctx *CombatContext) {
			ctx.Stats.ApplyDelta(StatScraps, e.Magnitude())
		}
		return e
	},
	FullSteam: func() *Effect {
		e := &Effect{
			Kind: FullSteam,
			// threshold 1 reads as 100% of max health
			Conditions: []Condition{Equals(StatCurrentHealth, 1, StatMaxHealth)},
			Base:       2,
		}
		e.Action = func(ctx *CombatContext) {
			if ctx.Battle != nil {
				ctx.Battle.BonusDamage += e.Magnitude()
			}
		}
		return e
	},
}

// NewEffect returns a level-1 instance of kind.
func NewEffect(kind EffectKind) (*Effect, error) {
	ctor, ok := catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, kind)
	}
	e := ctor()
	e.Level = 1
	e.MaxLevel = DefaultMaxLvl
	return e, nil
}

// KnownEffect reports whether kind is in the catalog.
func KnownEffect(kind EffectKind) bool {
	_, ok := catalog[kind]
	return ok
}

// EffectKinds lists the catalog in stable order.
func EffectKinds() []EffectKind {
	kinds := make([]EffectKind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
