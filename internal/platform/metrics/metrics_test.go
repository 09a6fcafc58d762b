package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("shelter-records")
	b := NewCollector("shelter-records")

	a.AnimalsCreated.Inc()
	a.LoginAttempts.WithLabelValues("failure").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.AnimalsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.AnimalsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.LoginAttempts.WithLabelValues("failure")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("shelter")
	c.Hospitalizations.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "shelter_clinical_hospitalizations_total 1")
}
