package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-desk/internal/entities"
	"github.com/odyssey-erp/odyssey-desk/internal/observability"
)

type staticProvider struct {
	snap entities.Snapshot
}

func (p staticProvider) Snapshot(ctx context.Context) (entities.Snapshot, error) {
	return p.snap, nil
}

func (p staticProvider) Refresh(ctx context.Context) (entities.Snapshot, error) {
	return p.snap, nil
}

func newTestRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := staticProvider{snap: entities.Snapshot{
		RootCompanyID: "root",
		Entities: []entities.Entity{
			{ID: "root", Kind: entities.KindUnit, TenantID: "root", Name: "Head Office", Code: "ROOT"},
			{ID: "b1", Kind: entities.KindBranch, TenantID: "root", CompanyID: "root", Name: "North"},
		},
	}}
	return NewRouter(RouterParams{
		Logger:          logger,
		Config:          &Config{RateLimitPerMinute: 1000},
		EntitiesHandler: entities.NewHandler(logger, provider, nil),
		Metrics:         observability.NewMetrics(),
	})
}

func TestRouterHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Ratelimit-Limit"))
}

func TestRouterMountsAccounting(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounting/context?selected=b1", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resolved entities.Context
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, "b1", resolved.WingID)
	assert.Equal(t, "North", resolved.TargetName)
}

func TestRouterNotFoundIsProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "odyssey_http_requests_total")
}
