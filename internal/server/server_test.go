package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/healthscore/internal/catalog"
	"github.com/sells-group/healthscore/internal/config"
	"github.com/sells-group/healthscore/internal/model"
	"github.com/sells-group/healthscore/internal/store"
)

func newTestServer(t *testing.T) (*Server, *catalog.Service) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "healthscore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, store.SeedDefaults(ctx, st))

	svc := catalog.New(st)
	return New(svc, config.ServerConfig{
		Port:           8080,
		AllowedOrigins: []string{"*"},
		RatePerSecond:  1000,
		RateBurst:      1000,
	}), svc
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricLifecycle(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics []model.Metric
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	require.Len(t, metrics, 4)

	rec = doJSON(t, router, http.MethodPost, "/api/metrics", model.Metric{
		Name: "NPS", Weight: 10, LowerBand: 0, UpperBand: 10,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Metric
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)

	created.Weight = 15
	rec = doJSON(t, router, http.MethodPut, "/api/metrics/"+created.ID, created)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/metrics/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/metrics/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddMetricValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/metrics", model.Metric{
		Name: "Flat", Weight: 10, LowerBand: 50, UpperBand: 50,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "upper band must exceed lower band")
}

func TestCustomerLifecycleAndScoring(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/customers", map[string]any{
		"name":  "Acme Corp",
		"month": "December",
		"year":  "2024",
		"metricValues": map[string]any{
			"1": []float64{5, 8, 12, 15},
			"2": 95,
			"3": 900000,
			"4": 9,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 94, created.Score)
	assert.Equal(t, "Green", created.Status)

	// Lower one value and verify the record was rescored.
	rec = doJSON(t, router, http.MethodPut, "/api/customers/"+created.ID+"/values/2", 10)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated model.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Less(t, updated.Score, created.Score)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomerRequiresName(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/customers", map[string]any{
		"month": "December",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetValueUnknownMetric(t *testing.T) {
	t.Parallel()

	srv, svc := newTestServer(t)
	c, err := svc.SaveCustomer(context.Background(), model.Customer{Name: "Acme"})
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodPut, "/api/customers/"+c.ID+"/values/nope", 1)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBandUpdateRescoresCustomers(t *testing.T) {
	t.Parallel()

	srv, svc := newTestServer(t)
	router := srv.Router()

	c, err := svc.SaveCustomer(context.Background(), model.Customer{
		Name: "Acme",
		MetricValues: map[string]model.MetricValue{
			"1": model.Trend([4]float64{5, 8, 12, 15}),
			"2": model.Scalar(95),
			"3": model.Scalar(900000),
			"4": model.Scalar(9),
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Green", c.Status)

	rec := doJSON(t, router, http.MethodPut, "/api/bands/1", model.ScoreBand{
		Name: "Green", MinScore: 99, MaxScore: 100, Action: "Keep going",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/customers/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.StatusUnknown, got.Status)
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()

	srv, svc := newTestServer(t)
	router := srv.Router()

	_, err := svc.SaveCustomer(context.Background(), model.Customer{Name: "Acme"})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc model.AppData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Merchants, 1)
	assert.Equal(t, model.AppVersion, doc.Settings.Version)

	// Import into a second instance.
	srv2, _ := newTestServer(t)
	rec = doJSON(t, srv2.Router(), http.MethodPost, "/api/import", doc)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv2.Router(), http.MethodGet, "/api/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var customers []model.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, "Acme", customers[0].Name)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	srv, svc := newTestServer(t)

	_, err := svc.SaveCustomer(context.Background(), model.Customer{
		Name:         "Acme",
		MetricValues: map[string]model.MetricValue{"2": model.Scalar(50)},
	})
	require.NoError(t, err)

	rec := doJSON(t, srv.Router(), http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sum catalog.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.Customers)
	assert.Equal(t, 1, sum.ByStatus["Red"])
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	srv.cfg.RatePerSecond = 1
	srv.cfg.RateBurst = 2
	router := srv.Router()

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		rec := doJSON(t, router, http.MethodGet, "/health", nil)
		codes[rec.Code]++
	}
	assert.Positive(t, codes[http.StatusOK])
	assert.Positive(t, codes[http.StatusTooManyRequests])
}
