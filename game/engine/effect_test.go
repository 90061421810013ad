package engine

import (
	"errors"
	"testing"
)

func TestTryApply_StopsAtFirstFailingCondition(t *testing.T) {
	stats := &strictStats{
		t:         t,
		values:    map[StatType]float64{StatScraps: 0},
		forbidden: StatCurrentHealth,
	}
	ran := false
	effect := &Effect{
		Kind: "probe",
		Conditions: []Condition{
			Above(StatScraps, 10, ""),
			// never reached: reading current health fails the test
			Below(StatCurrentHealth, 0.5, StatMaxHealth),
		},
		Action: func(*CombatContext) { ran = true },
	}

	result := TryApply(effect, &CombatContext{Stats: stats})
	if result != ConditionsNotMet {
		t.Errorf("expected ConditionsNotMet, got %v", result)
	}
	if ran {
		t.Error("action must not run when a condition fails")
	}
	for _, read := range stats.reads {
		if read == StatCurrentHealth {
			t.Error("second condition was evaluated")
		}
	}
}

func TestTryApply_RunsActionOnceWhenAllHold(t *testing.T) {
	stats := NewStats(20, 100, 15)
	calls := 0
	effect := &Effect{
		Kind: "probe",
		Conditions: []Condition{
			Above(StatScraps, 10, ""),
			Below(StatCurrentHealth, 0.5, StatMaxHealth),
		},
		Action: func(*CombatContext) { calls++ },
	}

	if result := TryApply(effect, &CombatContext{Stats: stats}); result != Applied {
		t.Fatalf("expected Applied, got %v", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 action call, got %d", calls)
	}
}

func TestTryApply_NoConditionsAndNilAction(t *testing.T) {
	effect := &Effect{Kind: "empty"}
	if result := TryApply(effect, &CombatContext{Stats: NewStats(1, 1, 0)}); result != Applied {
		t.Errorf("expected Applied for unconditional effect, got %v", result)
	}
}

func TestTryApply_MissingStatsNeverFires(t *testing.T) {
	calls := 0
	effect, err := NewEffect(FieldMedic)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	unconditional := &Effect{Kind: "always", Action: func(*CombatContext) { calls++ }}

	tests := []struct {
		name   string
		effect *Effect
		ctx    *CombatContext
	}{
		{"nil context", effect, nil},
		{"context without stats", effect, &CombatContext{}},
		{"nil stats store", effect, &CombatContext{Stats: (*Stats)(nil)}},
		{"unconditional effect without stats", unconditional, &CombatContext{}},
		{"unconditional effect with nil stats store", unconditional, &CombatContext{Stats: (*Stats)(nil)}},
		{"nil effect", nil, &CombatContext{Stats: NewStats(1, 1, 0)}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := TryApply(test.effect, test.ctx); result != ConditionsNotMet {
				t.Errorf("expected ConditionsNotMet, got %v", result)
			}
		})
	}
	if calls != 0 {
		t.Errorf("action must not run without stats, ran %d times", calls)
	}
}

func TestTryMerge(t *testing.T) {
	t.Run("same kind levels up to max", func(t *testing.T) {
		a := &Effect{Kind: FieldMedic, Level: 1, MaxLevel: 3}
		b := &Effect{Kind: FieldMedic, Level: 1, MaxLevel: 3}

		if r := TryMerge(a, b); !r.Merged || r.Level != 2 {
			t.Errorf("expected Merged(2), got %v", r)
		}
		if r := TryMerge(a, b); !r.Merged || r.Level != 3 {
			t.Errorf("expected Merged(3), got %v", r)
		}
		if r := TryMerge(a, b); r.Merged || r.Reason != AtMaxLevel {
			t.Errorf("expected Rejected(AtMaxLevel), got %v", r)
		}
		if a.Level != 3 {
			t.Errorf("expected level to stay 3, got %d", a.Level)
		}
	})

	t.Run("different kinds never merge", func(t *testing.T) {
		a := &Effect{Kind: FieldMedic, Level: 1, MaxLevel: 3}
		b := &Effect{Kind: Salvager, Level: 1, MaxLevel: 3}
		if r := TryMerge(a, b); r.Merged || r.Reason != TypeMismatch {
			t.Errorf("expected Rejected(TypeMismatch), got %v", r)
		}
		if a.Level != 1 {
			t.Errorf("level changed on rejected merge: %d", a.Level)
		}
	})

	t.Run("type mismatch wins over max level", func(t *testing.T) {
		a := &Effect{Kind: FieldMedic, Level: 3, MaxLevel: 3}
		b := &Effect{Kind: Salvager, Level: 1, MaxLevel: 3}
		if r := TryMerge(a, b); r.Reason != TypeMismatch {
			t.Errorf("expected TypeMismatch, got %v", r)
		}
	})
}

func TestEffect_MagnitudeFollowsLevel(t *testing.T) {
	e, err := NewEffect(FieldMedic)
	if err != nil {
		t.Fatalf("NewEffect: %v", err)
	}
	if e.Magnitude() != 4 {
		t.Errorf("expected magnitude 4 at level 1, got %v", e.Magnitude())
	}

	other, _ := NewEffect(FieldMedic)
	TryMerge(e, other)
	if e.Magnitude() != 8 {
		t.Errorf("expected magnitude 8 at level 2, got %v", e.Magnitude())
	}

	// The action reads the magnitude when it fires.
	stats := NewStats(10, 100, 0)
	TryApply(e, &CombatContext{Stats: stats})
	if got := stats.Get(StatCurrentHealth); got != 18 {
		t.Errorf("expected health 18 after level-2 heal, got %v", got)
	}
}

func TestLoadout_EquipMergesSameKind(t *testing.T) {
	var l Loadout
	first, _ := NewEffect(Salvager)
	second, _ := NewEffect(Salvager)
	third, _ := NewEffect(FieldMedic)

	if r := l.Equip(first); !r.Merged || r.Level != 1 {
		t.Errorf("expected first equip Merged(1), got %v", r)
	}
	if r := l.Equip(second); !r.Merged || r.Level != 2 {
		t.Errorf("expected merge to level 2, got %v", r)
	}
	if r := l.Equip(third); !r.Merged || r.Level != 1 {
		t.Errorf("expected new kind appended at level 1, got %v", r)
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 equipped effects, got %d", l.Len())
	}
	if l.Get(Salvager) != first {
		t.Error("expected merge to keep the first instance")
	}
}

func TestLoadout_ApplyAllInEquipOrder(t *testing.T) {
	var l Loadout
	for _, kind := range []EffectKind{Salvager, ScrapPlating, FieldMedic} {
		e, _ := NewEffect(kind)
		l.Equip(e)
	}

	// 10 scraps: salvager takes it to 12, so scrap_plating (> 10) then holds.
	stats := NewStats(100, 100, 10)
	battle := &Battle{}
	fired := l.ApplyAll(&CombatContext{Stats: stats, Battle: battle})

	if len(fired) != 2 || fired[0] != Salvager || fired[1] != ScrapPlating {
		t.Errorf("expected [salvager scrap_plating], got %v", fired)
	}
	if battle.Shield != 3 {
		t.Errorf("expected shield 3, got %v", battle.Shield)
	}
}

func TestCatalog(t *testing.T) {
	for _, kind := range EffectKinds() {
		e, err := NewEffect(kind)
		if err != nil {
			t.Fatalf("NewEffect(%s): %v", kind, err)
		}
		if e.Level != 1 || e.MaxLevel != DefaultMaxLvl {
			t.Errorf("%s: expected level 1/%d, got %d/%d", kind, DefaultMaxLvl, e.Level, e.MaxLevel)
		}
		if e.Action == nil {
			t.Errorf("%s: missing action", kind)
		}
	}

	if _, err := NewEffect("warp_drive"); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("expected ErrUnknownEffect, got %v", err)
	}
}

func TestCatalog_FullSteamOnlyAtFullHealth(t *testing.T) {
	e, _ := NewEffect(FullSteam)

	battle := &Battle{}
	if TryApply(e, &CombatContext{Stats: NewStats(100, 100, 0), Battle: battle}) != Applied {
		t.Error("expected full_steam to fire at full health")
	}
	if battle.BonusDamage != 2 {
		t.Errorf("expected bonus damage 2, got %v", battle.BonusDamage)
	}
	if TryApply(e, &CombatContext{Stats: NewStats(99, 100, 0), Battle: &Battle{}}) != ConditionsNotMet {
		t.Error("expected full_steam to hold back below full health")
	}
}
