package mqtt

import (
	"context"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/setpoint"
)

// Pump decouples model change notifications from broker I/O. Notify is
// called from the device and reconciliation loops and must never block;
// a bursty producer collapses into at most one pending publish per zone.
type Pump struct {
	model *setpoint.Model
	pub   Publisher
	log   *logger.Logger
	wake  chan struct{}

	dirty [models.ZoneCount]chan struct{}
}

func NewPump(model *setpoint.Model, pub Publisher, log *logger.Logger) *Pump {
	p := &Pump{
		model: model,
		pub:   pub,
		log:   log,
		wake:  make(chan struct{}, 1),
	}
	for i := range p.dirty {
		p.dirty[i] = make(chan struct{}, 1)
	}
	return p
}

// Notify marks a zone's state as stale. Safe for concurrent use; never
// blocks.
func (p *Pump) Notify(id models.ZoneID) {
	if !id.Valid() {
		return
	}
	select {
	case p.dirty[id] <- struct{}{}:
	default:
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run publishes the full snapshot once at startup (populating the
// retained topics), then republishes each zone as it changes, until ctx
// is canceled.
func (p *Pump) Run(ctx context.Context) {
	for _, st := range p.model.Snapshot() {
		p.publish(st)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			p.flush()
		}
	}
}

func (p *Pump) flush() {
	snap := p.model.Snapshot()
	for i := range p.dirty {
		select {
		case <-p.dirty[i]:
			p.publish(snap[i])
		default:
		}
	}
}

func (p *Pump) publish(st models.ZoneStatus) {
	if err := p.pub.PublishZone(st); err != nil {
		p.log.Warnw("publish zone state failed", "zone", st.Zone, "err", err)
	}
}
