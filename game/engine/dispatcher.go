package engine

import (
	"github.com/sirupsen/logrus"
)

// CellLookup maps world positions onto cells and cells onto behaviors.
type CellLookup interface {
	WorldToCell(pos WorldPos) CellCoordinate
	BehaviorAt(c CellCoordinate) (CellBehavior, bool)
	SetBehavior(c CellCoordinate, b CellBehavior)
}

// knownLookup turns a nil *Grid held in the interface into a plain nil so the
// nil checks below see it.
func knownLookup(lookup CellLookup) CellLookup {
	if g, ok := lookup.(*Grid); ok && g == nil {
		return nil
	}
	return lookup
}

type agentCellState struct {
	lastCell     CellCoordinate
	seen         bool
	lastBehavior CellBehavior
}

// Dispatcher tracks which cell each agent occupies and fires exit/enter
// behavior on every cell change. It reads the lookup and writes nothing but
// its own tracking records.
type Dispatcher struct {
	lookup CellLookup
	agents map[AgentID]*agentCellState
	events EventSink
	log    logrus.FieldLogger
}

// NewDispatcher creates a dispatcher over lookup. events may be nil.
func NewDispatcher(lookup CellLookup, events EventSink, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		lookup: knownLookup(lookup),
		agents: make(map[AgentID]*agentCellState),
		events: events,
		log:    log.WithField("component", "cell_dispatcher"),
	}
}

// Observe is called once per tick with the agent's world position.
func (d *Dispatcher) Observe(agent AgentID, pos WorldPos) {
	if d.lookup == nil {
		d.log.WithField("agent", agent).Warn("No cell lookup, skipping dispatch")
		return
	}

	cell := d.lookup.WorldToCell(pos)
	state, ok := d.agents[agent]
	if !ok {
		state = &agentCellState{}
		d.agents[agent] = state
	}
	if state.seen && state.lastCell == cell {
		return
	}

	if state.lastBehavior != nil {
		prev := Visit{Agent: agent, Cell: state.lastCell}
		emit(d.events, "cell_exit", string(state.lastBehavior.Kind()), &prev.Cell)
		d.report(state.lastBehavior.OnExit(prev), "exit", prev, state.lastBehavior)
	}

	next := Visit{Agent: agent, Cell: cell}
	behavior, _ := d.lookup.BehaviorAt(cell)
	if behavior != nil {
		emit(d.events, "cell_enter", string(behavior.Kind()), &next.Cell)
		d.report(behavior.OnEnter(next), "enter", next, behavior)
	}

	state.lastCell = cell
	state.seen = true
	state.lastBehavior = behavior
}

func (d *Dispatcher) report(err error, phase string, v Visit, b CellBehavior) {
	if err == nil {
		return
	}
	d.log.WithFields(logrus.Fields{
		"agent":    v.Agent,
		"cell":     v.Cell.String(),
		"behavior": b.Kind(),
		"phase":    phase,
	}).WithError(err).Warn("Cell behavior failed")
}

// LastCell returns the last observed cell of agent.
func (d *Dispatcher) LastCell(agent AgentID) (CellCoordinate, bool) {
	state, ok := d.agents[agent]
	if !ok || !state.seen {
		return CellCoordinate{}, false
	}
	return state.lastCell, true
}

// Forget drops agent's tracking record without firing exit.
func (d *Dispatcher) Forget(agent AgentID) {
	delete(d.agents, agent)
}

// Reset drops every tracking record.
func (d *Dispatcher) Reset() {
	d.agents = make(map[AgentID]*agentCellState)
}
