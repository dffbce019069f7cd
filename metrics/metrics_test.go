package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204"))
	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/items/:id", "204"))
	assert.Equal(t, float64(2), after-before)
}

func TestRecordUsageFlush(t *testing.T) {
	okBefore := testutil.ToFloat64(usageFlushes.WithLabelValues("ok"))
	recBefore := testutil.ToFloat64(usageFlushedRecords)
	errBefore := testutil.ToFloat64(usageFlushes.WithLabelValues("error"))

	RecordUsageFlush(3, nil)
	RecordUsageFlush(0, errors.New("boom"))

	assert.Equal(t, float64(1), testutil.ToFloat64(usageFlushes.WithLabelValues("ok"))-okBefore)
	assert.Equal(t, float64(3), testutil.ToFloat64(usageFlushedRecords)-recBefore)
	assert.Equal(t, float64(1), testutil.ToFloat64(usageFlushes.WithLabelValues("error"))-errBefore)
}

func TestHandler_Exposes(t *testing.T) {
	RecordAuthAttempt("login", true)
	require.NoError(t, RegisterGauge("test", "answer", "A test gauge.", func() float64 { return 42 }))

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `starter_auth_attempts_total{action="login",result="success"}`)
	assert.Contains(t, w.Body.String(), "starter_test_answer 42")
}
