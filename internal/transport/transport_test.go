package transport

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/telemetry"
	"github.com/ownworld/core/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *sql.DB) {
	t.Helper()
	s := testutil.OpenStore(t)
	srv := NewServer(s.DB, zerolog.Nop(), telemetry.NewMetrics(), reducer.NewLimiter(100, 100))
	return srv, s.DB
}

func TestHandleReducerUnknownNameReturns404(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/reducer/does_not_exist", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleReducerDispatchesBoundReducer(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Bind("echo", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var payload map[string]interface{}
		if len(body) > 0 {
			_ = json.Unmarshal(body, &payload)
		}
		return payload, nil
	})

	req := httptest.NewRequest(http.MethodPost, "/reducer/echo", bytes.NewReader([]byte(`{"x":1}`)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reducerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Result)
}

func TestHandleReducerSurfacesValidationError(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Bind("always_fails", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		return nil, reducer.Validationf("nope")
	})

	req := httptest.NewRequest(http.MethodPost, "/reducer/always_fails", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp reducerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "nope", resp.Error)
}

func TestRateLimitRejectsExcessCallsForOneIdentity(t *testing.T) {
	s := testutil.OpenStore(t)
	srv := NewServer(s.DB, zerolog.Nop(), telemetry.NewMetrics(), reducer.NewLimiter(1, 1))
	srv.Bind("noop", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		return "ok", nil
	})

	identity := ids.NewIdentity()
	makeReq := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/reducer/noop", bytes.NewReader(nil))
		req.Header.Set(identityHeader, identity.String())
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, makeReq().Code)
	require.Equal(t, http.StatusTooManyRequests, makeReq().Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ownworld_online_players")
}
