package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEnrichmentCounters(t *testing.T) {
	before := testutil.ToFloat64(enrichmentRuns.WithLabelValues(OutcomeParseFailed))
	done := EnrichmentStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(enrichmentInFlight))
	done(OutcomeParseFailed)

	assert.Equal(t, float64(0), testutil.ToFloat64(enrichmentInFlight))
	assert.Equal(t, before+1, testutil.ToFloat64(enrichmentRuns.WithLabelValues(OutcomeParseFailed)))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RequestStarted()("GET", "", "404")
	EntryCreated()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body := w.Body.String()
	assert.Contains(t, body, `reflections_http_requests_total{method="GET",route="unmatched",status="404"}`)
	assert.Contains(t, body, "reflections_entries_created_total")
}
