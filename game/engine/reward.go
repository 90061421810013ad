package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

var (
	ErrRewardClosed = errors.New("no reward is open")
	ErrNotOffered   = errors.New("effect not offered")
)

// RewardPanel implements Presenter. Closing an opened reward removes its
// cell from the grid on the next tick.
type RewardPanel struct {
	lookup    CellLookup
	scheduler *Scheduler
	loadout   *Loadout
	events    EventSink
	log       logrus.FieldLogger
	open      *RewardContext
}

func NewRewardPanel(lookup CellLookup, scheduler *Scheduler, loadout *Loadout, events EventSink, log logrus.FieldLogger) *RewardPanel {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RewardPanel{
		lookup:    lookup,
		scheduler: scheduler,
		loadout:   loadout,
		events:    events,
		log:       log.WithField("component", "reward_panel"),
	}
}

func (p *RewardPanel) Open(ctx RewardContext) {
	p.open = &ctx
	emit(p.events, "reward_open", fmt.Sprintf("Salvage found: %v", ctx.Offer), &ctx.Visit.Cell)
}

// Close is a no-op when nothing is open.
func (p *RewardPanel) Close() {
	if p.open == nil {
		return
	}
	cell := p.open.Visit.Cell
	p.open = nil
	emit(p.events, "reward_close", "Salvage closed", &cell)

	if p.scheduler == nil || p.lookup == nil {
		p.log.WithField("cell", cell.String()).Warn("Cannot schedule reward removal")
		return
	}
	p.scheduler.Defer(func() {
		p.lookup.SetBehavior(cell, nil)
		emit(p.events, "cell_removed", "Reward cell cleared", &cell)
	})
}

// Claim equips kind from the open offer, then closes the panel.
func (p *RewardPanel) Claim(kind EffectKind) (MergeResult, error) {
	if p.open == nil {
		return MergeResult{}, ErrRewardClosed
	}
	offered := false
	for _, k := range p.open.Offer {
		if k == kind {
			offered = true
			break
		}
	}
	if !offered {
		return MergeResult{}, fmt.Errorf("%w: %s", ErrNotOffered, kind)
	}

	effect, err := NewEffect(kind)
	if err != nil {
		return MergeResult{}, err
	}
	result := p.loadout.Equip(effect)
	emit(p.events, "reward_claimed", fmt.Sprintf("%s %s", kind, result), &p.open.Visit.Cell)
	p.Close()
	return result, nil
}

// Offer returns the open offer, nil when closed.
func (p *RewardPanel) Offer() []EffectKind {
	if p.open == nil {
		return nil
	}
	return p.open.Offer
}

func (p *RewardPanel) IsOpen() bool {
	return p.open != nil
}
