package mqtt

import "dialbed/internal/models"

// FakePublisher records published zone states for test assertions.
type FakePublisher struct {
	// States contains all zone states that were published.
	States []models.ZoneStatus

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// PublishError, if set, is returned by PublishZone.
	PublishError error

	// Closed tracks whether Close was called.
	Closed bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishZone records the zone state.
func (f *FakePublisher) PublishZone(st models.ZoneStatus) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.States = append(f.States, st)

	payload, err := FormatZonePayload(st)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
