package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Harshitk-cp/timely/internal/domain"
	"github.com/Harshitk-cp/timely/internal/horizon"
	"github.com/Harshitk-cp/timely/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStores struct {
	mu      sync.Mutex
	tenants map[string]*domain.Tenant
	sensors map[uuid.UUID]*domain.Sensor
	sources map[uuid.UUID]*domain.BeliefSource
}

func newMemStores() *memStores {
	return &memStores{
		tenants: make(map[string]*domain.Tenant),
		sensors: make(map[uuid.UUID]*domain.Sensor),
		sources: make(map[uuid.UUID]*domain.BeliefSource),
	}
}

type memTenants struct{ *memStores }
type memSensors struct{ *memStores }
type memSources struct{ *memStores }

func (m memTenants) Create(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	m.tenants[t.APIKeyHash] = t
	return nil
}

func (m memTenants) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}

func (m memSensors) Create(ctx context.Context, s *domain.Sensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sensors {
		if existing.TenantID == s.TenantID && existing.Name == s.Name {
			return store.ErrConflict
		}
	}
	s.ID = uuid.New()
	cp := *s
	m.sensors[s.ID] = &cp
	return nil
}

func (m memSensors) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sensors[id]
	if !ok || s.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSensors) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.Sensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Sensor
	for _, s := range m.sensors {
		if s.TenantID == tenantID && len(out) < limit {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m memSensors) UpdateHorizon(ctx context.Context, id, tenantID uuid.UUID, spec horizon.Spec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sensors[id]
	if !ok || s.TenantID != tenantID {
		return store.ErrNotFound
	}
	s.SetHorizonSpec(spec)
	return nil
}

func (m memSources) Create(ctx context.Context, s *domain.BeliefSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sources {
		if existing.TenantID == s.TenantID && existing.Name == s.Name {
			return store.ErrConflict
		}
	}
	s.ID = uuid.New()
	m.sources[s.ID] = s
	return nil
}

func (m memSources) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[id]
	if !ok || s.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return s, nil
}

func (m memSources) GetByName(ctx context.Context, name string, tenantID uuid.UUID) (*domain.BeliefSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sources {
		if s.TenantID == tenantID && s.Name == name {
			return s, nil
		}
	}
	return nil, store.ErrNotFound
}

type testServer struct {
	t      *testing.T
	app    *App
	apiKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("RATE_LIMIT_BURST", "1000")

	m := newMemStores()
	app := NewAppWithStores(Stores{
		Tenants: memTenants{m},
		Sensors: memSensors{m},
		Sources: memSources{m},
	}, zap.NewNop())
	ts := &testServer{t: t, app: app}

	rec := ts.do(http.MethodPost, "/v1/tenants", map[string]any{"name": "acme", "default_timezone": "Europe/Amsterdam"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	ts.apiKey = created["api_key"]
	return ts
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if ts.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+ts.apiKey)
	}
	rec := httptest.NewRecorder()
	ts.app.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (ts *testServer) createSensor(body map[string]any) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/v1/sensors", body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(ts.t, rec)["id"].(string)
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = ts.do(http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "version")
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	ts.apiKey = ""

	rec := ts.do(http.MethodGet, "/v1/sensors", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSensorLifecycle(t *testing.T) {
	ts := newTestServer(t)

	id := ts.createSensor(map[string]any{
		"name":             "day-ahead price",
		"unit":             "EUR/MWh",
		"event_resolution": "PT1H",
		"knowledge_horizon": map[string]any{
			"fnc": "x_days_ago_at_y_oclock",
			"par": map[string]any{"x": 1, "y": 12, "z": "Europe/Amsterdam"},
		},
	})

	rec := ts.do(http.MethodGet, "/v1/sensors/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode(t, rec)
	assert.Equal(t, "Europe/Amsterdam", got["timezone"])
	assert.Equal(t, "PT1H", got["event_resolution"])
	assert.Equal(t, "x_days_ago_at_y_oclock", got["knowledge_horizon_fnc"])

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-horizon?event_start=2020-01-05T15:00:00%2B01:00", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "P1DT3H", decode(t, rec)["knowledge_horizon"])

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-time?event_start=2020-01-05T15:00:00%2B01:00", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2020-01-04T11:00:00+00:00", decode(t, rec)["knowledge_time"])

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-horizon?event_start=2020-01-05T15:00:00%2B01:00&bounds=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec), "bounds")

	rec = ts.do(http.MethodGet, "/v1/sensors", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["sensors"], 1)
}

func TestSensorDefaultHorizonIsExPost(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSensor(map[string]any{"name": "meter", "event_resolution": "PT15M"})

	rec := ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-horizon?event_start=2021-03-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "-PT15M", decode(t, rec)["knowledge_horizon"])
}

func TestSensorNaiveEventStartRejected(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSensor(map[string]any{"name": "meter", "event_resolution": "PT1H"})

	for _, q := range []string{"", "?event_start=2020-01-01T00:00:00", "?event_start=yesterday"} {
		rec := ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-time"+q, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestSensorCreateRejectsUnregisteredRule(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/sensors", map[string]any{
		"name":              "evil",
		"knowledge_horizon": map[string]any{"fnc": "os.system", "par": map[string]any{"cmd": "rm -rf /"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "cannot be executed safely")

	rec = ts.do(http.MethodGet, "/metrics", nil)
	assert.EqualValues(t, 1, decode(t, rec)["refused_count"])
}

func TestSensorCreateErrors(t *testing.T) {
	ts := newTestServer(t)
	ts.createSensor(map[string]any{"name": "dup"})

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"conflict", map[string]any{"name": "dup"}, http.StatusConflict},
		{"missing name", map[string]any{}, http.StatusBadRequest},
		{"bad resolution", map[string]any{"name": "a", "event_resolution": "1h"}, http.StatusBadRequest},
		{"negative resolution", map[string]any{"name": "b", "event_resolution": "-PT1H"}, http.StatusBadRequest},
		{"unknown timezone", map[string]any{"name": "c", "timezone": "Mars/Olympus"}, http.StatusBadRequest},
		{"missing parameter", map[string]any{"name": "d", "knowledge_horizon": map[string]any{"fnc": "ex_ante"}}, http.StatusUnprocessableEntity},
		{"malformed parameter", map[string]any{"name": "e", "knowledge_horizon": map[string]any{
			"fnc": "ex_ante", "par": map[string]any{"ex_ante_horizon": "soon"},
		}}, http.StatusUnprocessableEntity},
		{"fixed and rule", map[string]any{"name": "f", "knowledge_horizon": map[string]any{
			"fixed": "PT1H", "fnc": "ex_ante",
		}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/v1/sensors", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestSensorUpdateHorizon(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSensor(map[string]any{"name": "forecast", "event_resolution": "PT1H"})

	rec := ts.do(http.MethodPut, "/v1/sensors/"+id+"/knowledge-horizon", map[string]any{"fixed": "PT6H"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "constant", decode(t, rec)["knowledge_horizon_fnc"])

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-horizon?event_start=2020-01-01T12:00:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PT6H", decode(t, rec)["knowledge_horizon"])

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id+"/knowledge-horizon?event_start=2020-01-01T12:00:00Z&bounds=true", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/v1/sensors/"+uuid.NewString()+"/knowledge-horizon", map[string]any{"fixed": "PT6H"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSensorIsolatedPerTenant(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSensor(map[string]any{"name": "private"})

	rec := ts.do(http.MethodPost, "/v1/tenants", map[string]any{"name": "other"})
	require.Equal(t, http.StatusCreated, rec.Code)
	ts.apiKey = decode(t, rec)["api_key"].(string)

	rec = ts.do(http.MethodGet, "/v1/sensors/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHorizonRulesAndEvaluate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/v1/horizons/rules", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rules"], len(horizon.Rules()))

	rec = ts.do(http.MethodPost, "/v1/horizons/evaluate", map[string]any{
		"fnc":              "ex_ante",
		"par":              map[string]any{"ex_ante_horizon": "PT2H"},
		"event_start":      "2020-01-01T12:00:00+00:00",
		"event_resolution": "PT1H",
		"bounds":           true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode(t, rec)
	assert.Equal(t, "PT2H", got["knowledge_horizon"])
	assert.Equal(t, "2020-01-01T10:00:00+00:00", got["knowledge_time"])
	assert.NotNil(t, got["bounds"])

	rec = ts.do(http.MethodPost, "/v1/horizons/evaluate", map[string]any{
		"fnc":         "ex_ante",
		"par":         map[string]any{"ex_ante_horizon": "PT2H"},
		"event_start": "2020-01-01T12:00:00",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSourcesEnsure(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/v1/sources/ensure", map[string]any{
		"sources": []any{"Source1", 42, "Source1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sources := decode(t, rec)["sources"].([]any)
	require.Len(t, sources, 3)
	first := sources[0].(map[string]any)
	assert.Equal(t, "Source1", first["name"])
	assert.Equal(t, "42", sources[1].(map[string]any)["name"])
	assert.Equal(t, first["id"], sources[2].(map[string]any)["id"])

	id := first["id"].(string)
	rec = ts.do(http.MethodPost, "/v1/sources/ensure", map[string]any{
		"sources": []any{map[string]any{"id": id}, nil},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/sources/ensure", map[string]any{
		"sources":    []any{map[string]any{"id": id}, nil},
		"allow_none": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sources = decode(t, rec)["sources"].([]any)
	assert.Equal(t, id, sources[0].(map[string]any)["id"])
	assert.Nil(t, sources[1])

	rec = ts.do(http.MethodGet, "/v1/sources/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/v1/sources/ensure", map[string]any{"sources": []any{[]any{1}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
