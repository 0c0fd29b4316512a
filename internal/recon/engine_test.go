package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/setpoint"
)

type push struct {
	ep    models.Endpoint
	tempF int
	power *bool
}

type fakeClient struct {
	status    map[models.Endpoint]Status
	statusErr error
	pushErr   error
	pushes    []push
	polls     int
}

func (f *fakeClient) Status(_ context.Context, ep models.Endpoint) (Status, error) {
	f.polls++
	if f.statusErr != nil {
		return Status{}, f.statusErr
	}
	st, ok := f.status[ep]
	if !ok {
		return Status{}, errors.New("no such endpoint")
	}
	return st, nil
}

func (f *fakeClient) PushTemperature(_ context.Context, ep models.Endpoint, tempF int) error {
	f.pushes = append(f.pushes, push{ep: ep, tempF: tempF})
	return f.pushErr
}

func (f *fakeClient) PushPower(_ context.Context, ep models.Endpoint, on bool) error {
	f.pushes = append(f.pushes, push{ep: ep, power: &on})
	return f.pushErr
}

var (
	bedEP    = models.Endpoint{10, 0, 0, 1}
	pillowEP = models.Endpoint{10, 0, 0, 2}
)

type engineFixture struct {
	e      *Engine
	model  *setpoint.Model
	client *fakeClient
	clock  *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newEngineFixture(cfg Config) *engineFixture {
	f := &engineFixture{
		model:  setpoint.New(),
		client: &fakeClient{status: map[models.Endpoint]Status{}},
		clock:  &fakeClock{t: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)},
	}
	f.model.SetClock(f.clock.now)
	f.model.SetEndpoint(models.ZoneBed, bedEP)
	f.model.SetEndpoint(models.ZonePillow, pillowEP)
	f.e = New(f.model, f.client, nil, logger.Get(logger.ErrorLevel), cfg)
	f.e.now = f.clock.now
	return f
}

func TestBackoff_DoublesOnFullFailureAndCaps(t *testing.T) {
	f := newEngineFixture(Config{})
	f.client.statusErr = errors.New("unreachable")

	want := []time.Duration{
		4 * time.Second, 8 * time.Second, 16 * time.Second,
		32 * time.Second, 60 * time.Second, 60 * time.Second,
	}
	if f.e.Interval() != 2*time.Second {
		t.Fatalf("initial interval = %v", f.e.Interval())
	}
	for i, w := range want {
		f.e.pollAll(context.Background())
		if f.e.Interval() != w {
			t.Fatalf("after failure %d: interval = %v, want %v", i+1, f.e.Interval(), w)
		}
		if f.e.Failures() != i+1 {
			t.Fatalf("after failure %d: failures = %d", i+1, f.e.Failures())
		}
	}
}

func TestBackoff_AnySuccessResets(t *testing.T) {
	f := newEngineFixture(Config{})
	f.client.statusErr = errors.New("unreachable")
	for i := 0; i < 3; i++ {
		f.e.pollAll(context.Background())
	}
	if f.e.Interval() != 16*time.Second {
		t.Fatalf("interval = %v", f.e.Interval())
	}

	// One zone answering is enough.
	f.client.statusErr = nil
	f.client.status[bedEP] = Status{TempF: 70, On: true}
	delete(f.client.status, pillowEP)
	f.e.pollAll(context.Background())

	if f.e.Interval() != 2*time.Second || f.e.Failures() != 0 {
		t.Fatalf("not reset: interval=%v failures=%d", f.e.Interval(), f.e.Failures())
	}
}

func TestPoll_MergesUnderCooldown(t *testing.T) {
	f := newEngineFixture(Config{})

	// User sets bed to 25.0°C at t=0.
	f.model.SetTemperature(models.ZoneBed, 25.0)
	f.client.status[bedEP] = Status{TempF: 68, On: true} // 20.0°C
	f.client.status[pillowEP] = Status{TempF: 68, On: true}

	// Poll at t=500ms: cooldown active, local wins.
	f.clock.advance(500 * time.Millisecond)
	f.e.pollAll(context.Background())
	if got := f.model.Zone(models.ZoneBed).Setpoint; got != 25.0 {
		t.Fatalf("setpoint = %v, want 25.0 (cooldown)", got)
	}

	// Poll at t=1500ms: cooldown lapsed, remote wins.
	f.clock.advance(time.Second)
	f.e.pollAll(context.Background())
	if got := f.model.Zone(models.ZoneBed).Setpoint; got != 20.0 {
		t.Fatalf("setpoint = %v, want 20.0 (merged)", got)
	}
	if !f.model.Zone(models.ZoneBed).PowerOn {
		t.Fatalf("remote power not applied")
	}
}

func TestFlush_CoalescesBurstIntoOnePush(t *testing.T) {
	f := newEngineFixture(Config{})

	// Burst of edits, 100ms apart.
	for i := 0; i < 5; i++ {
		f.model.AdjustActive(1)
		f.clock.advance(100 * time.Millisecond)
		f.e.flush(context.Background())
	}
	if len(f.client.pushes) != 0 {
		t.Fatalf("pushed mid-burst: %+v", f.client.pushes)
	}

	// 500ms after the last edit: exactly one push.
	f.clock.advance(400 * time.Millisecond)
	f.e.flush(context.Background())
	if len(f.client.pushes) != 1 {
		t.Fatalf("pushes = %d, want 1", len(f.client.pushes))
	}
	// 21 + 5×0.5 = 23.5°C → 74.3°F → 74.
	if got := f.client.pushes[0]; got.ep != bedEP || got.tempF != 74 {
		t.Fatalf("push = %+v", got)
	}

	// Nothing further without a new edit.
	f.clock.advance(time.Second)
	f.e.flush(context.Background())
	if len(f.client.pushes) != 1 {
		t.Fatalf("push repeated without edit")
	}
}

func TestFlush_PushFailureNotRetried(t *testing.T) {
	f := newEngineFixture(Config{})
	f.client.pushErr = errors.New("unreachable")

	f.model.SetTemperature(models.ZoneBed, 30.0)
	f.clock.advance(time.Second)
	f.e.flush(context.Background())
	if len(f.client.pushes) != 1 {
		t.Fatalf("pushes = %d", len(f.client.pushes))
	}

	f.clock.advance(time.Second)
	f.e.flush(context.Background())
	if len(f.client.pushes) != 1 {
		t.Fatalf("failed push was retried")
	}
}

func TestFlush_PowerPushedSeparately(t *testing.T) {
	f := newEngineFixture(Config{})

	f.model.SetPower(models.ZonePillow, true)
	f.clock.advance(time.Second)
	f.e.flush(context.Background())

	if len(f.client.pushes) != 1 {
		t.Fatalf("pushes = %+v", f.client.pushes)
	}
	p := f.client.pushes[0]
	if p.ep != pillowEP || p.power == nil || !*p.power {
		t.Fatalf("push = %+v", p)
	}
}

func TestFlush_OutgoingTempClampedToRemoteRange(t *testing.T) {
	f := newEngineFixture(Config{})

	f.model.SetTemperature(models.ZoneBed, models.TempMin) // 10°C = 50°F < floor
	f.clock.advance(time.Second)
	f.e.flush(context.Background())

	if len(f.client.pushes) != 1 || f.client.pushes[0].tempF != models.RemoteMinF {
		t.Fatalf("pushes = %+v, want clamped %d", f.client.pushes, models.RemoteMinF)
	}
}

func TestTick_PollsImmediatelyThenSpacedByInterval(t *testing.T) {
	f := newEngineFixture(Config{})
	f.client.status[bedEP] = Status{TempF: 70, On: false}
	f.client.status[pillowEP] = Status{TempF: 70, On: false}

	f.e.tick(context.Background())
	if f.client.polls != 2 {
		t.Fatalf("first tick polled %d times, want 2", f.client.polls)
	}

	// Within the interval: no polling.
	f.clock.advance(time.Second)
	f.e.tick(context.Background())
	if f.client.polls != 2 {
		t.Fatalf("polled inside interval")
	}

	f.clock.advance(1500 * time.Millisecond)
	f.e.tick(context.Background())
	if f.client.polls != 4 {
		t.Fatalf("polls = %d, want 4", f.client.polls)
	}
}

func TestPollAll_NoEndpointsConfiguredIsNoOp(t *testing.T) {
	f := newEngineFixture(Config{})
	f.model.SetEndpoint(models.ZoneBed, models.Endpoint{})
	f.model.SetEndpoint(models.ZonePillow, models.Endpoint{})

	f.e.pollAll(context.Background())
	if f.e.Failures() != 0 || f.e.Interval() != 2*time.Second {
		t.Fatalf("unconfigured cycle changed backoff: %v/%d", f.e.Interval(), f.e.Failures())
	}
}
