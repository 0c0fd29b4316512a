// Package wifi abstracts network scanning and association. The actual
// radio bring-up lives outside this core; the navigation machine only
// needs these two bounded, cancellable calls.
package wifi

import (
	"context"
	"errors"
)

// MaxScanResults bounds one scan; anything past it is dropped.
const MaxScanResults = 20

// Network is one scan result.
type Network struct {
	SSID    string
	RSSI    int // dBm, more negative is weaker
	Secured bool
}

// Manager scans for networks and joins one.
type Manager interface {
	// Scan returns up to MaxScanResults visible networks, strongest
	// first. It blocks until done or ctx expires.
	Scan(ctx context.Context) ([]Network, error)

	// Join attempts association with the given credentials, blocking
	// until the attempt resolves or ctx expires.
	Join(ctx context.Context, ssid, password string) error
}

// ErrUnsupported is returned when the platform manages the radio outside
// this process.
var ErrUnsupported = errors.New("wifi: not managed by this process")

// Unsupported is the Manager for such platforms. Scans come back empty
// and joins fail; the settings UI stays navigable either way.
type Unsupported struct{}

func (Unsupported) Scan(context.Context) ([]Network, error)    { return nil, ErrUnsupported }
func (Unsupported) Join(context.Context, string, string) error { return ErrUnsupported }
