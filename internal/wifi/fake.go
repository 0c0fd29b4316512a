package wifi

import "context"

// FakeManager is a scripted Manager for tests and for running without a
// radio.
type FakeManager struct {
	// Networks is returned by Scan (truncated to MaxScanResults).
	Networks []Network

	// ScanErr, if set, is returned by Scan.
	ScanErr error

	// JoinErr, if set, is returned by Join.
	JoinErr error

	// JoinedSSID and JoinedPassword record the last Join call.
	JoinedSSID     string
	JoinedPassword string

	// ScanCalls counts Scan invocations.
	ScanCalls int
}

func (f *FakeManager) Scan(ctx context.Context) ([]Network, error) {
	f.ScanCalls++
	if f.ScanErr != nil {
		return nil, f.ScanErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nets := f.Networks
	if len(nets) > MaxScanResults {
		nets = nets[:MaxScanResults]
	}
	return nets, nil
}

func (f *FakeManager) Join(ctx context.Context, ssid, password string) error {
	f.JoinedSSID = ssid
	f.JoinedPassword = password
	if f.JoinErr != nil {
		return f.JoinErr
	}
	return ctx.Err()
}
