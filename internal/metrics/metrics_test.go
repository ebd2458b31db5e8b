package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OFFIS-RIT/dunning/backend/pkg/common"
	"github.com/OFFIS-RIT/dunning/backend/pkg/loader"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "store_unavailable", outcome(fmt.Errorf("load: %w", loader.ErrStoreUnavailable)))
	assert.Equal(t, "malformed_source", outcome(fmt.Errorf("load: %w", loader.ErrMalformedSource)))
	assert.Equal(t, "error", outcome(errors.New("boom")))
}

func TestObserveLoad(t *testing.T) {
	runs := testutil.ToFloat64(loadRuns.WithLabelValues("success"))
	clients := testutil.ToFloat64(loadEntities.WithLabelValues("client"))
	recordErrors := testutil.ToFloat64(loadRecordErrors)

	NewLoadObserver().ObserveLoad(common.LoadStats{
		ClientsLoaded: 3,
		Errors:        []string{"interaction I9: client C9 not found"},
	}, time.Second, nil)

	assert.Equal(t, runs+1, testutil.ToFloat64(loadRuns.WithLabelValues("success")))
	assert.Equal(t, clients+3, testutil.ToFloat64(loadEntities.WithLabelValues("client")))
	assert.Equal(t, recordErrors+1, testutil.ToFloat64(loadRecordErrors))
}

func TestMiddleware(t *testing.T) {
	e := echo.New()
	e.Use(Middleware)
	e.GET("/api/clients/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNotFound)
	})
	e.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/clients/:id", "404"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clients/C1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/clients/:id", "404")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "dunning_http_requests_total"))
}
