package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencargos/tenura/internal/config"
	"github.com/opencargos/tenura/internal/resolver"
	"github.com/opencargos/tenura/internal/storage/sqlite"
)

func testServerConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			RequestsPerSec: 1000,
			RateBurst:      1000,
		},
		Matching: config.MatchingConfig{
			MinMatchScore:            0.5,
			SuccessionScoreThreshold: 0.45,
			MinSearchLength:          2,
			MinOrgQueryLength:        3,
			MaxFetchRows:             400,
			DefaultPageSize:          20,
			MaxPageSize:              50,
		},
		Cache: config.CacheConfig{
			SearchTTL:       3 * time.Minute,
			ProfileTTL:      5 * time.Minute,
			MaxEntries:      64,
			BackoffCooldown: time.Minute,
		},
	}
}

// newTestHandler builds the full middleware chain over an in-memory SQLite
// snapshot seeded with one identity and one council.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	registry, err := sqlite.NewRegistryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = registry.Close() })
	appointments := sqlite.NewAppointmentStore(registry)

	db := registry.DB()
	_, err = db.Exec(`
		INSERT INTO identities (canonical_name, normalized_name, num_companies, num_companies_with_registry_id, total_observations)
		VALUES ('GARCIA LOPEZ JUAN', 'GARCIA LOPEZ JUAN', 2, 1, 3)`)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO role_observations (person_name, role_kind, company_name, registry_id, start_date, end_date)
		VALUES
			('GARCIA LOPEZ JUAN', 'governance', 'CONSTRUCCIONES NORTE SL', NULL, '2020-01-15', NULL),
			('GARCIA LOPEZ JUAN', 'partner', 'ALFA HOLDING SL', 'B123', '2015-03-01', '2018-06-30')`)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO appointments (org_id, org_name, org_name_normalized, title, ordinal, holder_name, start_date)
		VALUES
			('ORG1', 'AJUNTAMENT DE GIRONA', 'AJUNTAMENT DE GIRONA', 'Alcalde', 0, 'VILA SERRA MARTA', '2019-06-15'),
			('ORG1', 'AJUNTAMENT DE GIRONA', 'AJUNTAMENT DE GIRONA', 'Alcalde', 0, 'PUIG ROCA ORIOL', '2023-06-17')`)
	require.NoError(t, err)

	cfg := testServerConfig()
	svc := resolver.NewService(cfg, registry, appointments, nil)
	return Routes(cfg, svc)
}

func doGet(t *testing.T, handler http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDEchoed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc-123", rec.Header().Get("X-Request-ID"))
}

func TestProfileEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/profile?name=garc%C3%ADa+l%C3%B3pez+juan")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "GARCIA LOPEZ JUAN", body["canonical_name"])
	assert.Equal(t, "Juan Garcia Lopez", body["display_name"])
	assert.EqualValues(t, 2, body["num_companies"])

	rec = doGet(t, handler, "/api/profile?name=NADIE+CONOCIDO")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, handler, "/api/profile")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/search?q=garcia+juan")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total"])

	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 1)

	rec = doGet(t, handler, "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOfficeHoldersEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/officeholders?org=Ajuntament+de+Girona")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	match, ok := body["match"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, match["matched"])
	assert.Equal(t, "ORG1", match["org_id"])
	assert.EqualValues(t, 2, body["total"])
}

func TestTenureEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/tenure?org=Ajuntament+de+Girona")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	seats, ok := body["seats"].([]interface{})
	require.True(t, ok)
	require.Len(t, seats, 1, "both mayors share one seat in the timeline")
}

func TestDisplayNameEndpoint(t *testing.T) {
	handler := newTestHandler(t)

	rec := doGet(t, handler, "/api/displayname?name=LAPORTA+ESTRUCH+JOAN")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Joan Laporta Estruch", body["display"])
}

func TestRateLimiting(t *testing.T) {
	cfg := testServerConfig()
	cfg.Server.RequestsPerSec = 1
	cfg.Server.RateBurst = 1
	svc := resolver.NewService(cfg, nil, nil, nil)
	handler := Routes(cfg, svc)

	rec := doGet(t, handler, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, handler, "/api/health")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
