package recon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// rewriteHost sends every request to the test server regardless of the
// endpoint address baked into the URL.
type rewriteHost struct{ host string }

func (t rewriteHost) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Host = t.host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, side string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(time.Second, func() string { return side })
	c.httpClient.Transport = rewriteHost{host: srv.Listener.Addr().String()}
	return c
}

const statusBody = `{
	"left":  {"targetTemperatureF": 72, "isOn": true},
	"right": {"targetTemperatureF": 85, "isOn": false}
}`

func TestClientStatus_ReadsConfiguredSide(t *testing.T) {
	var gotMethod, gotPath string
	h := func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Write([]byte(statusBody))
	}

	c := newTestClient(t, "left", h)
	st, err := c.Status(context.Background(), bedEP)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TempF != 72 || !st.On {
		t.Fatalf("status = %+v", st)
	}
	if gotMethod != http.MethodGet || gotPath != "/api/deviceStatus" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}

	c = newTestClient(t, "right", h)
	st, err = c.Status(context.Background(), bedEP)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TempF != 85 || st.On {
		t.Fatalf("right status = %+v", st)
	}
}

func TestClientStatus_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, ""},
		{"malformed json", http.StatusOK, `{"left":`},
		{"side absent", http.StatusOK, `{"right":{"targetTemperatureF":72,"isOn":true}}`},
		{"fields absent", http.StatusOK, `{"left":{}}`},
		{"temperature absent", http.StatusOK, `{"left":{"isOn":true}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "left", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			if _, err := c.Status(context.Background(), bedEP); err == nil {
				t.Fatalf("Status accepted %s", tt.name)
			}
		})
	}
}

func TestClientPush_Bodies(t *testing.T) {
	var got map[string]map[string]any
	h := func(w http.ResponseWriter, r *http.Request) {
		got = nil
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode push body: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	}

	c := newTestClient(t, "right", h)
	if err := c.PushTemperature(context.Background(), bedEP, 74); err != nil {
		t.Fatalf("PushTemperature: %v", err)
	}
	if v, ok := got["right"]["targetTemperatureF"]; !ok || v != float64(74) {
		t.Fatalf("temperature body = %v", got)
	}
	if _, ok := got["right"]["isOn"]; ok {
		t.Fatalf("temperature push carried power field: %v", got)
	}

	if err := c.PushPower(context.Background(), bedEP, true); err != nil {
		t.Fatalf("PushPower: %v", err)
	}
	if v, ok := got["right"]["isOn"]; !ok || v != true {
		t.Fatalf("power body = %v", got)
	}
}

func TestClientPush_Non2xxIsError(t *testing.T) {
	c := newTestClient(t, "left", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if err := c.PushPower(context.Background(), bedEP, false); err == nil {
		t.Fatalf("push accepted http 502")
	}
}
