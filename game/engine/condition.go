package engine

import "math"

// CompareOp selects a condition's comparator.
type CompareOp string

const (
	LessThan CompareOp = "less_than"
	MoreThan CompareOp = "more_than"
	Equal    CompareOp = "equal"
)

// Condition is a declarative predicate over live stats.
//
// A Threshold <= 1 is a fraction of the Reference stat, floored; anything
// larger is a literal bound and Reference is ignored. A literal threshold of
// exactly 1 therefore cannot be expressed: 1 always means 100% of Reference.
type Condition struct {
	Op        CompareOp `json:"op"`
	Subject   StatType  `json:"subject"`
	Threshold float64   `json:"threshold"`
	Reference StatType  `json:"reference,omitempty"`
}

// Below, Above and Equals build conditions.
func Below(subject StatType, threshold float64, reference StatType) Condition {
	return Condition{Op: LessThan, Subject: subject, Threshold: threshold, Reference: reference}
}

func Above(subject StatType, threshold float64, reference StatType) Condition {
	return Condition{Op: MoreThan, Subject: subject, Threshold: threshold, Reference: reference}
}

func Equals(subject StatType, threshold float64, reference StatType) Condition {
	return Condition{Op: Equal, Subject: subject, Threshold: threshold, Reference: reference}
}

// Bound returns the effective bound of c against stats.
func (c Condition) Bound(stats StatsProvider) float64 {
	if c.Threshold <= 1 {
		return math.Floor(c.Threshold * stats.Get(c.Reference))
	}
	return c.Threshold
}

// Evaluate reports whether c holds for stats. It never mutates stats.
// The reference stat is only read when the threshold is fractional. A nil
// provider never satisfies a condition.
func Evaluate(c Condition, stats StatsProvider) bool {
	if stats == nil {
		return false
	}
	subject := stats.Get(c.Subject)
	bound := c.Bound(stats)

	switch c.Op {
	case LessThan:
		return subject < bound
	case MoreThan:
		return subject > bound
	case Equal:
		return subject == bound
	default:
		return false
	}
}
