package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestCollector_Counts(t *testing.T) {
	c := New()

	c.Created(KindCard)
	c.Created(KindCard)
	c.Deleted(KindSection)
	c.ObserveRequest(http.MethodGet, "/api/boards", http.StatusOK, 10*time.Millisecond)

	body := scrape(t, c)
	assert.Contains(t, body, `canvaid_entities_created_total{kind="card"} 2`)
	assert.Contains(t, body, `canvaid_entities_deleted_total{kind="section"} 1`)
	assert.Contains(t, body, `canvaid_http_requests_total{method="GET",route="/api/boards",status="200"} 1`)
	assert.Contains(t, body, `canvaid_http_request_duration_seconds_count{method="GET",route="/api/boards"} 1`)
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.Created(KindBoard)

	assert.Contains(t, scrape(t, a), `canvaid_entities_created_total{kind="board"} 1`)
	assert.NotContains(t, scrape(t, b), `canvaid_entities_created_total{kind="board"}`)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Created(KindCard)
		c.Deleted(KindCard)
		c.ObserveRequest("GET", "/", 200, time.Second)
	})
}
