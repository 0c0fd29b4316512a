// Package nav is the hierarchical navigation machine behind the on-device
// settings UI. It consumes classified input events, decides which screen
// receives them, and issues setpoint-model and persistence side effects.
// Rendering is someone else's job; the machine only holds state.
package nav

import (
	"context"
	"time"

	"dialbed/internal/input"
	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/setpoint"
	"dialbed/internal/wifi"
)

// Screen identifies the active UI level. Nesting is at most two deep:
// Main → Settings → one submenu, where only WiFiScan chains further into
// PasswordEntry.
type Screen int

const (
	ScreenMain Screen = iota
	ScreenSettings
	ScreenIPEditor
	ScreenWiFiScan
	ScreenPassword
)

func (s Screen) String() string {
	switch s {
	case ScreenMain:
		return "main"
	case ScreenSettings:
		return "settings"
	case ScreenIPEditor:
		return "ip_editor"
	case ScreenWiFiScan:
		return "wifi_scan"
	case ScreenPassword:
		return "password"
	default:
		return "unknown"
	}
}

// Item is one entry in the settings ring, cycled by the encoder.
type Item int

const (
	ItemWiFi Item = iota
	ItemBedIP
	ItemPillowIP
	ItemBedSide
	ItemUnit
	ItemNightOverride
	ItemActiveZone

	itemCount
)

func (i Item) String() string {
	switch i {
	case ItemWiFi:
		return "wifi"
	case ItemBedIP:
		return "bed_ip"
	case ItemPillowIP:
		return "pillow_ip"
	case ItemBedSide:
		return "bed_side"
	case ItemUnit:
		return "unit"
	case ItemNightOverride:
		return "night_override"
	case ItemActiveZone:
		return "active_zone"
	default:
		return "unknown"
	}
}

// passwordAlphabet is the character ring the encoder cycles through when
// entering a network password.
const passwordAlphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	" !\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// MaxPasswordLen caps the entered passphrase at the WPA2-PSK maximum.
const MaxPasswordLen = 63

// Default bounds on the blocking network calls issued from the machine.
const (
	DefaultScanTimeout = 10 * time.Second
	DefaultJoinTimeout = 20 * time.Second
)

// SettingsStore persists the configuration fields the settings UI edits.
type SettingsStore interface {
	SaveEndpoint(ctx context.Context, zone models.ZoneID, ep models.Endpoint) error
	SaveCredentials(ctx context.Context, ssid, password string) error
	SaveBedSide(ctx context.Context, right bool) error
	SaveUnit(ctx context.Context, fahrenheit bool) error
}

// Display is the slice of display policy the machine can poke.
type Display interface {
	ToggleDim()
	ToggleNightOverride()
}

// Recorder appends to the device event log. repository.EventRepo satisfies
// it.
type Recorder interface {
	Append(ctx context.Context, e models.DeviceEvent) error
}

type ipEditor struct {
	zone   models.ZoneID
	index  int
	octets [4]uint8
}

type scanState struct {
	results  []wifi.Network
	selected int
}

type passwordState struct {
	network wifi.Network
	buffer  []byte
	cursor  int
}

// Machine is the navigation state machine. The device loop owns it; it is
// not safe for concurrent use.
type Machine struct {
	screen Screen
	item   Item
	ip     ipEditor
	scan   scanState
	pw     passwordState

	model   *setpoint.Model
	store   SettingsStore
	wifi    wifi.Manager
	display Display
	events  Recorder
	log     *logger.Logger

	scanTimeout time.Duration
	joinTimeout time.Duration
}

func New(model *setpoint.Model, store SettingsStore, mgr wifi.Manager, display Display, events Recorder, log *logger.Logger) *Machine {
	return &Machine{
		model:       model,
		store:       store,
		wifi:        mgr,
		display:     display,
		events:      events,
		log:         log,
		scanTimeout: DefaultScanTimeout,
		joinTimeout: DefaultJoinTimeout,
	}
}

// Screen returns the active screen.
func (n *Machine) Screen() Screen { return n.screen }

// Item returns the highlighted settings entry.
func (n *Machine) Item() Item { return n.item }

// IPOctets returns the in-progress IP edit buffer and cursor.
func (n *Machine) IPOctets() ([4]uint8, int) { return n.ip.octets, n.ip.index }

// ScanResults returns the captured scan list and selection.
func (n *Machine) ScanResults() ([]wifi.Network, int) { return n.scan.results, n.scan.selected }

// PasswordBuffer returns the entered password so far and the alphabet
// cursor.
func (n *Machine) PasswordBuffer() (string, byte) {
	return string(n.pw.buffer), passwordAlphabet[n.pw.cursor]
}

// isTap reports whether ev is a touch tap for menu purposes: any
// single-shot touch event other than the arc. Inside a submenu a tap pops
// exactly one level.
func isTap(ev input.Event) bool {
	switch ev.Kind {
	case input.KindToggleDim, input.KindTogglePower, input.KindToggleNightOverride,
		input.KindOpenSettings, input.KindSelectZone:
		return true
	}
	return false
}

// Handle consumes one classified event. Unrecognized combinations are
// deliberate no-ops.
func (n *Machine) Handle(ctx context.Context, ev input.Event) {
	switch n.screen {
	case ScreenMain:
		n.handleMain(ctx, ev)
	case ScreenSettings:
		n.handleSettings(ctx, ev)
	case ScreenIPEditor:
		n.handleIPEditor(ctx, ev)
	case ScreenWiFiScan:
		n.handleScan(ev)
	case ScreenPassword:
		n.handlePassword(ctx, ev)
	}
}

func (n *Machine) handleMain(ctx context.Context, ev input.Event) {
	switch ev.Kind {
	case input.KindStepAdjust:
		n.model.AdjustActive(ev.Steps)
	case input.KindArcSet:
		n.model.SetActiveByRatio(ev.Ratio)
	case input.KindSelectZone:
		n.model.SelectZone(ev.Zone)
	case input.KindTogglePower:
		zone := n.model.Active()
		on := n.model.TogglePowerActive()
		n.record(ctx, models.DeviceEvent{
			Type:        models.EventPower,
			Description: zone.String() + " power toggled",
			Metadata:    map[string]any{"zone": zone.String(), "on": on},
		})
	case input.KindToggleDim:
		n.display.ToggleDim()
	case input.KindToggleNightOverride:
		n.display.ToggleNightOverride()
	case input.KindOpenSettings:
		n.screen = ScreenSettings
		n.item = ItemWiFi
	case input.KindButtonPress:
		n.model.ResetActive()
	}
}

func (n *Machine) handleSettings(ctx context.Context, ev input.Event) {
	switch {
	case ev.Kind == input.KindStepAdjust:
		n.item = Item(mod(int(n.item)+ev.Steps, int(itemCount)))
	case ev.Kind == input.KindButtonPress:
		n.activateItem(ctx)
	case isTap(ev):
		n.screen = ScreenMain
	}
}

func (n *Machine) activateItem(ctx context.Context) {
	switch n.item {
	case ItemWiFi:
		n.enterScan(ctx)
	case ItemBedIP:
		n.enterIPEditor(models.ZoneBed)
	case ItemPillowIP:
		n.enterIPEditor(models.ZonePillow)
	case ItemBedSide:
		right := !n.model.BedSideRight()
		n.model.SetBedSideRight(right)
		n.persist(ctx, "bed side", n.store.SaveBedSide, right)
	case ItemUnit:
		f := !n.model.Fahrenheit()
		n.model.SetFahrenheit(f)
		n.persist(ctx, "unit", n.store.SaveUnit, f)
	case ItemNightOverride:
		n.display.ToggleNightOverride()
	case ItemActiveZone:
		n.model.ToggleActive()
	}
}

// persist saves one boolean preference, logging rather than failing the
// navigation on error.
func (n *Machine) persist(ctx context.Context, what string, save func(context.Context, bool) error, v bool) {
	if err := save(ctx, v); err != nil {
		n.log.Warnw("persist failed", "setting", what, "err", err)
	}
}

func (n *Machine) enterIPEditor(zone models.ZoneID) {
	n.ip = ipEditor{zone: zone, octets: n.model.Endpoint(zone)}
	n.screen = ScreenIPEditor
}

// enterScan runs one bounded scan before the screen becomes interactive.
// A failed scan enters the screen with an empty list; every input there is
// then a no-op except backing out.
func (n *Machine) enterScan(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, n.scanTimeout)
	defer cancel()

	results, err := n.wifi.Scan(scanCtx)
	if err != nil {
		n.log.Warnw("wifi scan failed", "err", err)
		results = nil
	}
	if len(results) > wifi.MaxScanResults {
		results = results[:wifi.MaxScanResults]
	}
	n.scan = scanState{results: results}
	n.screen = ScreenWiFiScan
}

func (n *Machine) handleIPEditor(ctx context.Context, ev input.Event) {
	switch {
	case ev.Kind == input.KindStepAdjust:
		o := &n.ip.octets[n.ip.index]
		*o = uint8(mod(int(*o)+ev.Steps, 256))
	case ev.Kind == input.KindButtonPress:
		n.ip.index++
		if n.ip.index < 4 {
			return
		}
		ep := models.Endpoint(n.ip.octets)
		n.model.SetEndpoint(n.ip.zone, ep)
		if err := n.store.SaveEndpoint(ctx, n.ip.zone, ep); err != nil {
			n.log.Warnw("persist failed", "setting", "endpoint", "err", err)
		}
		n.record(ctx, models.DeviceEvent{
			Type:        models.EventEndpoint,
			Description: n.ip.zone.String() + " endpoint set to " + ep.String(),
			Metadata:    map[string]any{"zone": n.ip.zone.String(), "endpoint": ep.String()},
		})
		n.screen = ScreenSettings
	case isTap(ev):
		// Abort without committing.
		n.screen = ScreenSettings
	}
}

func (n *Machine) handleScan(ev input.Event) {
	switch {
	case ev.Kind == input.KindStepAdjust:
		if len(n.scan.results) == 0 {
			return
		}
		n.scan.selected = clamp(n.scan.selected+ev.Steps, 0, len(n.scan.results)-1)
	case ev.Kind == input.KindButtonPress:
		if len(n.scan.results) == 0 {
			return
		}
		n.pw = passwordState{network: n.scan.results[n.scan.selected]}
		n.screen = ScreenPassword
	case isTap(ev):
		n.screen = ScreenSettings
	}
}

func (n *Machine) handlePassword(ctx context.Context, ev input.Event) {
	switch {
	case ev.Kind == input.KindStepAdjust:
		n.pw.cursor = mod(n.pw.cursor+ev.Steps, len(passwordAlphabet))
	case ev.Kind == input.KindButtonPress:
		if len(n.pw.buffer) >= MaxPasswordLen {
			return
		}
		n.pw.buffer = append(n.pw.buffer, passwordAlphabet[n.pw.cursor])
	case ev.Kind == input.KindButtonHold:
		n.submitPassword(ctx)
	case isTap(ev):
		// Discard the buffer without submitting.
		n.screen = ScreenSettings
	}
}

func (n *Machine) submitPassword(ctx context.Context) {
	ssid := n.pw.network.SSID
	password := string(n.pw.buffer)

	joinCtx, cancel := context.WithTimeout(ctx, n.joinTimeout)
	defer cancel()

	err := n.wifi.Join(joinCtx, ssid, password)
	if err != nil {
		n.log.Warnw("wifi join failed", "ssid", ssid, "err", err)
		n.record(ctx, models.DeviceEvent{
			Type:        models.EventWiFiJoin,
			Description: "failed to join " + ssid,
			Metadata:    map[string]any{"ssid": ssid, "ok": false},
		})
		n.screen = ScreenSettings
		return
	}

	if serr := n.store.SaveCredentials(ctx, ssid, password); serr != nil {
		n.log.Warnw("persist failed", "setting", "credentials", "err", serr)
	}
	n.record(ctx, models.DeviceEvent{
		Type:        models.EventWiFiJoin,
		Description: "joined " + ssid,
		Metadata:    map[string]any{"ssid": ssid, "ok": true},
	})
	n.screen = ScreenSettings
}

func (n *Machine) record(ctx context.Context, e models.DeviceEvent) {
	if n.events == nil {
		return
	}
	if err := n.events.Append(ctx, e); err != nil {
		n.log.Warnw("event append failed", "type", e.Type, "err", err)
	}
}

// mod is the positive remainder.
func mod(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
