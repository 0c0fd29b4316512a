package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"dialbed/internal/logger"
	"dialbed/internal/models"
	"dialbed/internal/service"
)

// ---- Service Mocks ----

type mockPairing struct {
	token    string
	pairErr  error
	parseErr error

	lastPIN        string
	lastParseToken string
}

func (m *mockPairing) Pair(_ context.Context, pin string) (string, error) {
	m.lastPIN = pin
	return m.token, m.pairErr
}

func (m *mockPairing) ParseToken(token string) error {
	m.lastParseToken = token
	return m.parseErr
}

type mockZones struct {
	zones [models.ZoneCount]models.ZoneStatus

	setpointErr error
	powerErr    error
	endpointErr error
	activeErr   error

	lastSetpoint float64
	lastPower    bool
	lastEndpoint models.Endpoint

	setpointCalls int
	powerCalls    int
	endpointCalls int
	activeCalls   int
}

func (m *mockZones) Snapshot() []models.ZoneStatus {
	return m.zones[:]
}

func (m *mockZones) Zone(id models.ZoneID) (models.ZoneStatus, error) {
	if !id.Valid() {
		return models.ZoneStatus{}, service.ErrUnknownZone
	}
	return m.zones[id], nil
}

func (m *mockZones) SetActive(_ context.Context, id models.ZoneID) error {
	m.activeCalls++
	return m.activeErr
}

func (m *mockZones) SetSetpoint(_ context.Context, id models.ZoneID, tempC float64) (float64, error) {
	m.setpointCalls++
	m.lastSetpoint = tempC
	if m.setpointErr != nil {
		return 0, m.setpointErr
	}
	m.zones[id].SetpointC = tempC
	return tempC, nil
}

func (m *mockZones) SetPower(_ context.Context, id models.ZoneID, on bool) error {
	m.powerCalls++
	m.lastPower = on
	if m.powerErr != nil {
		return m.powerErr
	}
	m.zones[id].PowerOn = on
	return nil
}

func (m *mockZones) SetEndpoint(_ context.Context, id models.ZoneID, ep models.Endpoint) error {
	m.endpointCalls++
	m.lastEndpoint = ep
	return m.endpointErr
}

type mockEventLog struct {
	resp []models.DeviceEvent
	err  error

	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func defaultZones() [models.ZoneCount]models.ZoneStatus {
	return [models.ZoneCount]models.ZoneStatus{
		{ID: models.ZoneBed, Zone: "bed", SetpointC: 21.0, Active: true},
		{ID: models.ZonePillow, Zone: "pillow", SetpointC: 21.0},
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, logger.Get(logger.ErrorLevel))
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func testContextWithQuery(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/ws?"+query, nil)
	return c
}
