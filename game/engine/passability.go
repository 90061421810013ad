package engine

import "github.com/sirupsen/logrus"

// PassabilityValidator answers whether a position may be entered. It only
// reads the lookup, so callers may probe any number of candidate moves.
type PassabilityValidator struct {
	lookup CellLookup
	log    logrus.FieldLogger
}

func NewPassabilityValidator(lookup CellLookup, log logrus.FieldLogger) *PassabilityValidator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PassabilityValidator{lookup: knownLookup(lookup), log: log.WithField("component", "passability")}
}

// CanEnter reports the passability of the behavior at pos. Cells without a
// behavior, and every cell when there is no lookup, are passable.
func (v *PassabilityValidator) CanEnter(pos WorldPos) bool {
	if v.lookup == nil {
		v.log.Debug("No cell lookup, allowing move")
		return true
	}
	behavior, ok := v.lookup.BehaviorAt(v.lookup.WorldToCell(pos))
	if !ok || behavior == nil {
		return true
	}
	return behavior.Passable()
}
