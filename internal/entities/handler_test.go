package entities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	snap Snapshot
	err  error
}

func (p stubProvider) Snapshot(context.Context) (Snapshot, error) { return p.snap, p.err }
func (p stubProvider) Refresh(context.Context) (Snapshot, error)  { return p.snap, p.err }

type stubQueue struct{ reasons []string }

func (q *stubQueue) EnqueueEntityRefresh(_ context.Context, reason string) error {
	q.reasons = append(q.reasons, reason)
	return nil
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestHandlerContext(t *testing.T) {
	provider := stubProvider{snap: Snapshot{
		Entities:      []Entity{{ID: "b1", Kind: KindBranch, CompanyID: "u1", TenantID: "t1", Name: "Dhaka"}},
		RootCompanyID: "t1",
	}}
	router := newRouter(NewHandler(quietLogger(), provider, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/context?selected=b1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got Context
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, Context{CompanyID: "t1", WingID: "b1", CreationCompanyID: "u1", TargetName: "Dhaka"}, got)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/context", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, ConsolidatedName, got.TargetName)
}

func TestHandlerContextNotConfigured(t *testing.T) {
	router := newRouter(NewHandler(quietLogger(), stubProvider{}, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/context?selected=all", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerListOrdersSelectorOptions(t *testing.T) {
	provider := stubProvider{snap: Snapshot{Entities: []Entity{
		{ID: "b1", Kind: KindBranch, Name: "Dhaka"},
		{ID: "u1", Kind: KindUnit, Name: "Retail"},
	}}}
	router := newRouter(NewHandler(quietLogger(), provider, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Options []SelectorOption `json:"options"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Options, 3)
	assert.Equal(t, "all", body.Options[0].Value)
	assert.Equal(t, "Retail (Unit)", body.Options[1].Label)
	assert.Equal(t, "Dhaka (Branch)", body.Options[2].Label)
}

func TestHandlerUpstreamFailure(t *testing.T) {
	router := newRouter(NewHandler(quietLogger(), stubProvider{err: errors.New("down")}, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandlerRefreshQueues(t *testing.T) {
	queue := &stubQueue{}
	router := newRouter(NewHandler(quietLogger(), stubProvider{}, queue))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/entities/refresh", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"manual"}, queue.reasons)
}
