package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/clinic-api/api"
	"github.com/linesmerrill/clinic-api/finance"
	"github.com/linesmerrill/clinic-api/models"
)

var (
	manager = api.Identity{Email: "owner@clinic.test", CapabilityLevel: models.CapabilityManager}
	admin   = api.Identity{Email: "admin@clinic.test", CapabilityLevel: models.CapabilityAdmin}
	desk    = api.Identity{Email: "desk@clinic.test", CapabilityLevel: models.CapabilityUser, Branch: "Main"}
)

// newRequest builds a request as id, with optional JSON body and route variables
func newRequest(t *testing.T, method, target string, id api.Identity, body interface{}, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(api.WithIdentity(req.Context(), id))
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorMessageResponse {
	t.Helper()
	var resp models.ErrorMessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

// droppedKeys is a growth cache that only records deletions
type droppedKeys struct{ keys []string }

func (d *droppedKeys) Get(context.Context, string) ([]models.MonthlyGrowth, bool) { return nil, false }

func (d *droppedKeys) Set(context.Context, string, []models.MonthlyGrowth, time.Duration) {}

func (d *droppedKeys) Delete(_ context.Context, keys ...string) {
	d.keys = append(d.keys, keys...)
}

// growthWithCache returns an aggregator whose cache records invalidations
func growthWithCache() (*finance.Aggregator, *droppedKeys) {
	cache := &droppedKeys{}
	agg := finance.NewAggregator(nil, nil, finance.NewResolver(time.UTC))
	agg.Cache = cache
	return agg, cache
}
