// Package recon keeps each zone converged with its remote actuator:
// debounced pushes of local edits, periodic polls merged under a user-edit
// cooldown, and exponential backoff while the remote is unreachable.
package recon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dialbed/internal/models"
)

// DefaultRequestTimeout bounds one poll or push call. The remote sits on
// the local network; anything slower than this is effectively down.
const DefaultRequestTimeout = time.Second

// Status is one zone's remote state. The remote speaks whole Fahrenheit
// degrees; conversion happens at this boundary only.
type Status struct {
	TempF float64
	On    bool
}

// sideStatus mirrors the remote JSON for one side.
type sideStatus struct {
	TargetTemperatureF *float64 `json:"targetTemperatureF"`
	IsOn               *bool    `json:"isOn"`
}

// Client talks the remote zone endpoint protocol. The side label ("left"
// or "right") comes from the user's bed-side preference, not from zone
// identity, so it is resolved per call.
type Client struct {
	httpClient *http.Client
	side       func() string
}

// NewClient builds a remote client with the given per-call timeout.
func NewClient(timeout time.Duration, side func() string) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		side:       side,
	}
}

func statusURL(ep models.Endpoint) string {
	return fmt.Sprintf("http://%s/api/deviceStatus", ep)
}

// Status fetches one zone's remote state. A response missing the expected
// side or fields counts as an error; callers treat it like unreachable.
func (c *Client) Status(ctx context.Context, ep models.Endpoint) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL(ep), nil)
	if err != nil {
		return Status{}, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{}, fmt.Errorf("fetch status from %s: %w", ep, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("status from %s: http %d", ep, resp.StatusCode)
	}

	var body map[string]sideStatus
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Status{}, fmt.Errorf("decode status from %s: %w", ep, err)
	}

	side := c.side()
	st, ok := body[side]
	if !ok || st.TargetTemperatureF == nil || st.IsOn == nil {
		return Status{}, fmt.Errorf("status from %s: missing %q fields", ep, side)
	}
	return Status{TempF: *st.TargetTemperatureF, On: *st.IsOn}, nil
}

// PushTemperature sets the remote target temperature, whole degrees
// Fahrenheit, already clamped to the remote's accepted range.
func (c *Client) PushTemperature(ctx context.Context, ep models.Endpoint, tempF int) error {
	return c.post(ctx, ep, map[string]any{"targetTemperatureF": tempF})
}

// PushPower sets the remote power state.
func (c *Client) PushPower(ctx context.Context, ep models.Endpoint, on bool) error {
	return c.post(ctx, ep, map[string]any{"isOn": on})
}

func (c *Client) post(ctx context.Context, ep models.Endpoint, fields map[string]any) error {
	payload, err := json.Marshal(map[string]any{c.side(): fields})
	if err != nil {
		return fmt.Errorf("encode push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, statusURL(ep), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push to %s: %w", ep, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push to %s: http %d", ep, resp.StatusCode)
	}
	return nil
}
