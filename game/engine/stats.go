package engine

import "math"

// StatType is a key into live stats.
type StatType string

const (
	StatScraps        StatType = "scraps"
	StatCurrentHealth StatType = "current_health"
	StatMaxHealth     StatType = "max_health"
)

// StatsProvider is the live source of numeric game state.
type StatsProvider interface {
	Get(stat StatType) float64
	ApplyDelta(pool StatType, amount float64)
}

// Stats is the authoritative stat store for one train. Current health is
// kept within [0, max health]; every other pool is floored at 0.
type Stats struct {
	values map[StatType]float64
}

// NewStats creates a stat store with the given starting values.
func NewStats(health, maxHealth, scraps float64) *Stats {
	s := &Stats{values: make(map[StatType]float64)}
	s.Set(StatMaxHealth, maxHealth)
	s.Set(StatCurrentHealth, health)
	s.Set(StatScraps, scraps)
	return s
}

// Get returns the current value of stat, 0 when unset or when s is nil.
func (s *Stats) Get(stat StatType) float64 {
	if s == nil {
		return 0
	}
	return s.values[stat]
}

// ApplyDelta adds amount to pool and clamps the result.
func (s *Stats) ApplyDelta(pool StatType, amount float64) {
	s.Set(pool, s.values[pool]+amount)
}

// Set assigns value to stat with the same clamping as ApplyDelta.
func (s *Stats) Set(stat StatType, value float64) {
	upper := math.Inf(1)
	if stat == StatCurrentHealth {
		upper = s.values[StatMaxHealth]
	}
	s.values[stat] = clamp(value, 0, upper)

	// Shrinking the cap pulls current health down with it.
	if stat == StatMaxHealth && s.values[StatCurrentHealth] > s.values[StatMaxHealth] {
		s.values[StatCurrentHealth] = s.values[StatMaxHealth]
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
