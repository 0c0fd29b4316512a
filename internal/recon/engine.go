package recon

import (
	"context"
	"time"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/setpoint"
)

// Timing and merge policy defaults.
const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultCooldown     = 1000 * time.Millisecond
	DefaultBaseInterval = 2 * time.Second
	DefaultMaxInterval  = 60 * time.Second
	DefaultTick         = 100 * time.Millisecond

	// NoiseThresholdC is the smallest remote/local temperature
	// disagreement worth applying.
	NoiseThresholdC = 0.1
)

// RemoteClient is the slice of Client the engine needs; tests substitute a
// fake.
type RemoteClient interface {
	Status(ctx context.Context, ep models.Endpoint) (Status, error)
	PushTemperature(ctx context.Context, ep models.Endpoint, tempF int) error
	PushPower(ctx context.Context, ep models.Endpoint, on bool) error
}

// Recorder appends to the device event log.
type Recorder interface {
	Append(ctx context.Context, e models.DeviceEvent) error
}

// Config tunes the engine; zero fields take the defaults above.
type Config struct {
	Debounce     time.Duration
	Cooldown     time.Duration
	BaseInterval time.Duration
	MaxInterval  time.Duration
	Tick         time.Duration
	Noise        float64
}

func (c *Config) applyDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.Cooldown <= 0 {
		c.Cooldown = DefaultCooldown
	}
	if c.BaseInterval <= 0 {
		c.BaseInterval = DefaultBaseInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = DefaultMaxInterval
	}
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.Noise <= 0 {
		c.Noise = NoiseThresholdC
	}
}

// Engine runs the reconciliation loop. One goroutine owns it; all zone
// state it touches goes through the model's atomic operations.
type Engine struct {
	model  *setpoint.Model
	client RemoteClient
	events Recorder
	log    *logger.Logger
	cfg    Config

	now      func() time.Time
	interval time.Duration
	failures int
	nextPoll time.Time
	down     [models.ZoneCount]bool
}

func New(model *setpoint.Model, client RemoteClient, events Recorder, log *logger.Logger, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{
		model:    model,
		client:   client,
		events:   events,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		interval: cfg.BaseInterval,
	}
}

// Interval returns the current poll interval (backoff state).
func (e *Engine) Interval() time.Duration { return e.interval }

// Failures returns the consecutive fully-failed poll cycle count.
func (e *Engine) Failures() int { return e.failures }

// Run ticks until ctx is canceled. Each tick flushes any debounced pushes;
// polls happen when the backoff interval has elapsed. The first poll runs
// immediately so persisted setpoints are overwritten by live remote state
// as soon as it is available.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(e.cfg.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	e.flush(ctx)
	if now := e.now(); !now.Before(e.nextPoll) {
		e.pollAll(ctx)
		e.nextPoll = now.Add(e.interval)
	}
}

// flush pushes every zone whose edit burst has settled. Push failures are
// logged, not retried; the next edit or poll cycle re-converges.
func (e *Engine) flush(ctx context.Context) {
	for id := models.ZoneID(0); id < models.ZoneCount; id++ {
		ep := e.model.Endpoint(id)
		if ep.IsZero() {
			continue
		}
		p, ok := e.model.TakePending(id, e.cfg.Debounce)
		if !ok {
			continue
		}
		if p.TempC != nil {
			f := models.RemoteF(*p.TempC)
			if err := e.client.PushTemperature(ctx, ep, f); err != nil {
				e.log.Warnw("push temperature failed", "zone", id, "err", err)
			} else {
				e.log.Debugw("pushed temperature", "zone", id, "temp_f", f)
			}
		}
		if p.PowerOn != nil {
			if err := e.client.PushPower(ctx, ep, *p.PowerOn); err != nil {
				e.log.Warnw("push power failed", "zone", id, "err", err)
			}
		}
	}
}

// pollAll fetches every configured zone and merges. A cycle in which every
// attempted zone fails doubles the interval up to the ceiling; any success
// resets it. A cycle with nothing configured changes nothing.
func (e *Engine) pollAll(ctx context.Context) {
	attempted, succeeded := 0, 0

	for id := models.ZoneID(0); id < models.ZoneCount; id++ {
		ep := e.model.Endpoint(id)
		if ep.IsZero() {
			continue
		}
		attempted++

		st, err := e.client.Status(ctx, ep)
		if err != nil {
			e.log.Debugw("poll failed", "zone", id, "err", err)
			e.markReachable(ctx, id, false)
			continue
		}
		succeeded++
		e.markReachable(ctx, id, true)
		e.model.MergeRemote(id, models.FToC(st.TempF), st.On, e.cfg.Cooldown, e.cfg.Noise)
	}

	if attempted == 0 {
		return
	}
	if succeeded > 0 {
		e.interval = e.cfg.BaseInterval
		e.failures = 0
		return
	}
	e.failures++
	e.interval *= 2
	if e.interval > e.cfg.MaxInterval {
		e.interval = e.cfg.MaxInterval
	}
}

// markReachable records reachability transitions in the event log.
func (e *Engine) markReachable(ctx context.Context, id models.ZoneID, up bool) {
	if e.down[id] != up {
		return
	}
	e.down[id] = !up

	if e.events == nil {
		return
	}
	typ, desc := models.EventRemoteUp, id.String()+" remote reachable"
	if !up {
		typ, desc = models.EventRemoteDown, id.String()+" remote unreachable"
	}
	if err := e.events.Append(ctx, models.DeviceEvent{
		Type:        typ,
		Description: desc,
		Metadata:    map[string]any{"zone": id.String()},
	}); err != nil {
		e.log.Warnw("event append failed", "type", typ, "err", err)
	}
}
