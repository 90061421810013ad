package engine

import (
	"fmt"

	"github.com/wricardo/scrap-train/pkg/logger"
)

// EffectKind identifies an effect family; merges compare kinds directly.
type EffectKind string

// CombatContext is what an effect action acts on at battle start.
type CombatContext struct {
	Agent  AgentID
	Stats  StatsProvider
	Battle *Battle
}

// Effect is an action gated by an ordered list of conditions. Leveled
// effects scale with Magnitude.
type Effect struct {
	Kind       EffectKind
	Conditions []Condition
	Action     func(ctx *CombatContext)
	Level      int
	MaxLevel   int
	Base       float64
}

// Magnitude is Base × Level, read fresh on every call.
func (e *Effect) Magnitude() float64 {
	return e.Base * float64(e.Level)
}

// ApplyResult is the outcome of TryApply.
type ApplyResult int

const (
	ConditionsNotMet ApplyResult = iota
	Applied
)

func (r ApplyResult) String() string {
	if r == Applied {
		return "applied"
	}
	return "conditions_not_met"
}

// TryApply runs e's action once if every condition holds, checking them in
// order and stopping at the first one that fails. Without a stats provider
// nothing can be evaluated, so the effect does not fire.
func TryApply(e *Effect, ctx *CombatContext) ApplyResult {
	if e == nil {
		return ConditionsNotMet
	}
	if ctx == nil || missingStats(ctx.Stats) {
		logger.Get().WithField("component", "effects").
			WithField("effect", e.Kind).
			Warn("No stats provider, effect skipped")
		return ConditionsNotMet
	}
	for _, c := range e.Conditions {
		if !Evaluate(c, ctx.Stats) {
			return ConditionsNotMet
		}
	}
	if e.Action != nil {
		e.Action(ctx)
	}
	return Applied
}

// RejectReason explains a refused merge.
type RejectReason string

const (
	AtMaxLevel   RejectReason = "at_max_level"
	TypeMismatch RejectReason = "type_mismatch"
)

// MergeResult is the outcome of TryMerge. Reason is empty when Merged.
type MergeResult struct {
	Merged bool         `json:"merged"`
	Level  int          `json:"level"`
	Reason RejectReason `json:"reason,omitempty"`
}

func (r MergeResult) String() string {
	if r.Merged {
		return fmt.Sprintf("merged(level %d)", r.Level)
	}
	return fmt.Sprintf("rejected(%s)", r.Reason)
}

// TryMerge folds b into a, raising a's level by one.
func TryMerge(a, b *Effect) MergeResult {
	if a.Kind != b.Kind {
		return MergeResult{Level: a.Level, Reason: TypeMismatch}
	}
	if a.Level >= a.MaxLevel {
		return MergeResult{Level: a.Level, Reason: AtMaxLevel}
	}
	a.Level++
	return MergeResult{Merged: true, Level: a.Level}
}

// Loadout is the ordered set of effects equipped on one train.
type Loadout struct {
	effects []*Effect
}

// Equip merges e into an equipped effect of the same kind, or appends it.
func (l *Loadout) Equip(e *Effect) MergeResult {
	if existing := l.Get(e.Kind); existing != nil {
		return TryMerge(existing, e)
	}
	l.effects = append(l.effects, e)
	return MergeResult{Merged: true, Level: e.Level}
}

// Get returns the equipped effect of kind, or nil.
func (l *Loadout) Get(kind EffectKind) *Effect {
	for _, e := range l.effects {
		if e.Kind == kind {
			return e
		}
	}
	return nil
}

// ApplyAll tries every equipped effect in equip order and returns the kinds
// that fired.
func (l *Loadout) ApplyAll(ctx *CombatContext) []EffectKind {
	var fired []EffectKind
	for _, e := range l.effects {
		if TryApply(e, ctx) == Applied {
			fired = append(fired, e.Kind)
		}
	}
	return fired
}

// Views returns a serialisable copy of the loadout.
func (l *Loadout) Views() []EffectView {
	views := make([]EffectView, 0, len(l.effects))
	for _, e := range l.effects {
		views = append(views, EffectView{
			Kind:      e.Kind,
			Level:     e.Level,
			MaxLevel:  e.MaxLevel,
			Magnitude: e.Magnitude(),
		})
	}
	return views
}

// Len returns the number of equipped effects.
func (l *Loadout) Len() int {
	return len(l.effects)
}

func missingStats(stats StatsProvider) bool {
	if stats == nil {
		return true
	}
	s, ok := stats.(*Stats)
	return ok && s == nil
}
