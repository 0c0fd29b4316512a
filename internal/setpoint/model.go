// Package setpoint owns the shared per-zone state: setpoints, power, the
// active-zone selector and the per-zone sync bookkeeping the reconciliation
// engine works from. All mutation flows through here so clamping and push
// arming happen in exactly one place.
package setpoint

import (
	"math"
	"sync"
	"time"

	"dialbed/internal/models"
)

// SyncState tracks what the reconciliation engine owes the remote for one
// zone.
type SyncState struct {
	PendingPush bool // temperature edit awaiting a debounced push
	PowerDirty  bool // power edit awaiting a push
	LastEdit    time.Time
}

// Pending is a claimed push: the values to transmit, nil when the field has
// no outstanding edit.
type Pending struct {
	TempC   *float64
	PowerOn *bool
}

// Model is the single owner of zone state. The device loop, the
// reconciliation engine and the HTTP handlers all mutate it concurrently,
// so every entry point takes the mutex; TakePending and MergeRemote are
// atomic under it.
type Model struct {
	mu      sync.Mutex
	zones   [models.ZoneCount]models.Zone
	syncs   [models.ZoneCount]SyncState
	changed [models.ZoneCount]time.Time
	active  models.ZoneID

	fahrenheit   bool
	bedSideRight bool

	now      func() time.Time
	onChange func(models.ZoneID)
}

// New returns a model with both zones at the default setpoint, powered off.
func New() *Model {
	m := &Model{now: time.Now}
	for i := range m.zones {
		m.zones[i].Setpoint = models.TempDefault
	}
	return m
}

// OnChange registers a callback invoked (outside the model lock) after any
// zone's state changes. Set once during wiring, before the loops start.
func (m *Model) OnChange(fn func(models.ZoneID)) { m.onChange = fn }

// SetClock overrides the model's time source. Set during wiring, before
// the loops start.
func (m *Model) SetClock(now func() time.Time) { m.now = now }

func (m *Model) notify(id models.ZoneID) {
	if m.onChange != nil {
		m.onChange(id)
	}
}

// Restore seeds the model from persisted configuration. The first
// successful remote poll overwrites the setpoints.
func (m *Model) Restore(s models.DeviceSettings) {
	m.mu.Lock()
	for i := range m.zones {
		m.zones[i].Endpoint = s.Endpoints[i]
	}
	m.fahrenheit = s.Fahrenheit
	m.bedSideRight = s.BedSideRight
	m.mu.Unlock()
}

// Active returns the zone currently receiving direct adjustments.
func (m *Model) Active() models.ZoneID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SelectZone makes id the active zone. Only user input calls this.
func (m *Model) SelectZone(id models.ZoneID) {
	if !id.Valid() {
		return
	}
	m.mu.Lock()
	m.active = id
	m.mu.Unlock()
}

// ToggleActive flips the active-zone selector.
func (m *Model) ToggleActive() {
	m.mu.Lock()
	m.active = (m.active + 1) % models.ZoneCount
	m.mu.Unlock()
}

// Zone returns a copy of one zone's state.
func (m *Model) Zone(id models.ZoneID) models.Zone {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zones[id]
}

// Endpoint returns one zone's remote address.
func (m *Model) Endpoint(id models.ZoneID) models.Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.zones[id].Endpoint
}

// SetEndpoint updates one zone's remote address. Endpoint changes are not
// pushed; they change where the engine talks to.
func (m *Model) SetEndpoint(id models.ZoneID, ep models.Endpoint) {
	if !id.Valid() {
		return
	}
	m.mu.Lock()
	m.zones[id].Endpoint = ep
	m.changed[id] = m.now()
	m.mu.Unlock()
	m.notify(id)
}

// Fahrenheit reports whether the secondary display unit is enabled.
func (m *Model) Fahrenheit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fahrenheit
}

// SetFahrenheit switches the presentation unit. Celsius stays canonical.
func (m *Model) SetFahrenheit(on bool) {
	m.mu.Lock()
	m.fahrenheit = on
	m.mu.Unlock()
}

// BedSideRight reports the configured bed side.
func (m *Model) BedSideRight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bedSideRight
}

// SetBedSideRight flips which remote protocol side the device addresses.
func (m *Model) SetBedSideRight(right bool) {
	m.mu.Lock()
	m.bedSideRight = right
	m.mu.Unlock()
}

// Side returns the remote protocol side label for the current bed side.
func (m *Model) Side() string {
	if m.BedSideRight() {
		return "right"
	}
	return "left"
}

// setTempLocked applies a user temperature write: clamp, snap to a whole
// secondary-unit degree when that unit is active, arm the push. Caller
// holds the lock.
func (m *Model) setTempLocked(id models.ZoneID, c float64) float64 {
	c = models.ClampC(c)
	if m.fahrenheit {
		c = models.ClampC(models.RoundToWholeF(c))
	}
	m.zones[id].Setpoint = c
	m.syncs[id].PendingPush = true
	m.syncs[id].LastEdit = m.now()
	m.changed[id] = m.syncs[id].LastEdit
	return c
}

// SetTemperature writes a user-sourced setpoint and returns the value
// actually applied after clamping and unit rounding.
func (m *Model) SetTemperature(id models.ZoneID, c float64) float64 {
	if !id.Valid() {
		return 0
	}
	m.mu.Lock()
	v := m.setTempLocked(id, c)
	m.mu.Unlock()
	m.notify(id)
	return v
}

// AdjustActive applies rotary steps to the active zone: half-degree
// Celsius per detent, or one whole Fahrenheit degree per detent when the
// secondary unit is enabled.
func (m *Model) AdjustActive(steps int) float64 {
	m.mu.Lock()
	id := m.active
	cur := m.zones[id].Setpoint
	var next float64
	if m.fahrenheit {
		next = models.FToC(math.Round(models.CToF(cur)) + float64(steps))
	} else {
		next = cur + float64(steps)*models.TempStep
	}
	v := m.setTempLocked(id, next)
	m.mu.Unlock()
	m.notify(id)
	return v
}

// SetActiveByRatio maps an arc position 0..1 onto the setpoint range and
// writes it to the active zone.
func (m *Model) SetActiveByRatio(ratio float64) float64 {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c := models.TempMin + ratio*(models.TempMax-models.TempMin)
	m.mu.Lock()
	id := m.active
	v := m.setTempLocked(id, c)
	m.mu.Unlock()
	m.notify(id)
	return v
}

// ResetActive returns the active zone to the default setpoint.
func (m *Model) ResetActive() float64 {
	m.mu.Lock()
	id := m.active
	v := m.setTempLocked(id, models.TempDefault)
	m.mu.Unlock()
	m.notify(id)
	return v
}

// SetPower writes a user-sourced power state and arms a power push.
func (m *Model) SetPower(id models.ZoneID, on bool) {
	if !id.Valid() {
		return
	}
	m.mu.Lock()
	m.zones[id].PowerOn = on
	m.syncs[id].PowerDirty = true
	m.syncs[id].LastEdit = m.now()
	m.changed[id] = m.syncs[id].LastEdit
	m.mu.Unlock()
	m.notify(id)
}

// TogglePowerActive flips the active zone's power and returns the new state.
func (m *Model) TogglePowerActive() bool {
	m.mu.Lock()
	id := m.active
	on := !m.zones[id].PowerOn
	m.zones[id].PowerOn = on
	m.syncs[id].PowerDirty = true
	m.syncs[id].LastEdit = m.now()
	m.changed[id] = m.syncs[id].LastEdit
	m.mu.Unlock()
	m.notify(id)
	return on
}

// Sync returns a copy of one zone's sync bookkeeping.
func (m *Model) Sync(id models.ZoneID) SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs[id]
}

// TakePending atomically claims a zone's outstanding push once the edit
// burst has been quiet for the debounce window. The flags clear on claim;
// a failed push is not retried, the next edit or poll re-converges.
func (m *Model) TakePending(id models.ZoneID, debounce time.Duration) (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := &m.syncs[id]
	if !st.PendingPush && !st.PowerDirty {
		return Pending{}, false
	}
	if m.now().Sub(st.LastEdit) < debounce {
		return Pending{}, false
	}

	var p Pending
	if st.PendingPush {
		c := m.zones[id].Setpoint
		p.TempC = &c
	}
	if st.PowerDirty {
		on := m.zones[id].PowerOn
		p.PowerOn = &on
	}
	st.PendingPush = false
	st.PowerDirty = false
	return p, true
}

// MergeRemote folds a successfully polled remote state into the zone.
// Power is remote-authoritative and applies unconditionally. Temperature
// applies only once the user-edit cooldown has lapsed and the disagreement
// exceeds the noise threshold; remote-sourced writes never arm a push.
// Returns whether the temperature was applied.
func (m *Model) MergeRemote(id models.ZoneID, tempC float64, powerOn bool, cooldown time.Duration, noise float64) bool {
	if !id.Valid() {
		return false
	}
	m.mu.Lock()

	z := &m.zones[id]
	powerChanged := z.PowerOn != powerOn
	z.PowerOn = powerOn

	applied := false
	if m.now().Sub(m.syncs[id].LastEdit) > cooldown &&
		math.Abs(z.Setpoint-tempC) > noise {
		z.Setpoint = models.ClampC(tempC)
		applied = true
	}
	if applied || powerChanged {
		m.changed[id] = m.now()
	}
	m.mu.Unlock()

	if applied || powerChanged {
		m.notify(id)
	}
	return applied
}

// Snapshot returns the control-surface view of both zones.
func (m *Model) Snapshot() []models.ZoneStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ZoneStatus, 0, models.ZoneCount)
	for i := range m.zones {
		id := models.ZoneID(i)
		st := models.ZoneStatus{
			ID:          id,
			Zone:        id.String(),
			SetpointC:   m.zones[i].Setpoint,
			PowerOn:     m.zones[i].PowerOn,
			Active:      id == m.active,
			PendingPush: m.syncs[i].PendingPush || m.syncs[i].PowerDirty,
			UpdatedAt:   m.changed[i],
		}
		if !m.zones[i].Endpoint.IsZero() {
			st.Endpoint = m.zones[i].Endpoint.String()
		}
		out = append(out, st)
	}
	return out
}
