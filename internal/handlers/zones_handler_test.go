package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dialbed/internal/models"
	"dialbed/internal/service"
)

func doRequest(r http.Handler, method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestZonesHandlers_ListAndGet(t *testing.T) {
	zones := &mockZones{zones: defaultZones()}
	s := &service.Service{Zones: zones, Pairing: &mockPairing{}}
	r := newTestRouter(s)

	// Requires auth.
	w := doRequest(r, http.MethodGet, "/api/v1/zones", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/zones", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Zones []models.ZoneStatus `json:"zones"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(listResp.Zones) != 2 || listResp.Zones[0].Zone != "bed" {
		t.Fatalf("unexpected zones: %+v", listResp.Zones)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/zones/pillow", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	var st models.ZoneStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal zone: %v", err)
	}
	if st.Zone != "pillow" {
		t.Fatalf("unexpected zone: %+v", st)
	}

	w = doRequest(r, http.MethodGet, "/api/v1/zones/sofa", nil, authHeader("valid"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown zone status=%d", w.Code)
	}
}

func TestZonesHandlers_SetSetpoint(t *testing.T) {
	zones := &mockZones{zones: defaultZones()}
	s := &service.Service{Zones: zones, Pairing: &mockPairing{}}
	r := newTestRouter(s)

	body := []byte(`{"setpoint_c": 23.5}`)
	w := doRequest(r, http.MethodPut, "/api/v1/zones/bed/setpoint", body, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if zones.setpointCalls != 1 || zones.lastSetpoint != 23.5 {
		t.Fatalf("service saw %v (%d calls)", zones.lastSetpoint, zones.setpointCalls)
	}

	// Missing field → 400, no service call.
	w = doRequest(r, http.MethodPut, "/api/v1/zones/bed/setpoint", []byte(`{}`), authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body status=%d", w.Code)
	}
	if zones.setpointCalls != 1 {
		t.Fatalf("service called on bad body")
	}
}

func TestZonesHandlers_SetPowerFalseBinds(t *testing.T) {
	zones := &mockZones{zones: defaultZones()}
	zones.zones[models.ZoneBed].PowerOn = true
	s := &service.Service{Zones: zones, Pairing: &mockPairing{}}
	r := newTestRouter(s)

	// `false` must bind; a *bool field distinguishes absent from false.
	w := doRequest(r, http.MethodPut, "/api/v1/zones/bed/power", []byte(`{"on": false}`), authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if zones.powerCalls != 1 || zones.lastPower != false {
		t.Fatalf("service saw on=%v (%d calls)", zones.lastPower, zones.powerCalls)
	}
}

func TestZonesHandlers_SetEndpoint(t *testing.T) {
	zones := &mockZones{zones: defaultZones()}
	s := &service.Service{Zones: zones, Pairing: &mockPairing{}}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodPut, "/api/v1/zones/pillow/endpoint",
		[]byte(`{"endpoint":"192.168.1.40"}`), authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if zones.lastEndpoint != (models.Endpoint{192, 168, 1, 40}) {
		t.Fatalf("endpoint = %v", zones.lastEndpoint)
	}

	w = doRequest(r, http.MethodPut, "/api/v1/zones/pillow/endpoint",
		[]byte(`{"endpoint":"999.1.1.1"}`), authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad ip status=%d", w.Code)
	}

	zones.endpointErr = errors.New("disk full")
	w = doRequest(r, http.MethodPut, "/api/v1/zones/pillow/endpoint",
		[]byte(`{"endpoint":"10.0.0.1"}`), authHeader("valid"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("save failure status=%d", w.Code)
	}
}

func TestZonesHandlers_Activate(t *testing.T) {
	zones := &mockZones{zones: defaultZones()}
	s := &service.Service{Zones: zones, Pairing: &mockPairing{}}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodPost, "/api/v1/zones/pillow/activate", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if zones.activeCalls != 1 {
		t.Fatalf("activeCalls = %d", zones.activeCalls)
	}
}
