package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetricsService()

	m.OccurrenceCreated("Bullying", "high")
	m.OccurrenceCreated("Bullying", "high")
	m.ReportGenerated(reportKindForm, nil)
	m.ReportGenerated(reportKindForm, errors.New("boom"))
	m.MailDelivered(nil)
	m.ObserveHTTPRequest(http.MethodGet, "/api/occurrences/:id", http.StatusOK, 5*time.Millisecond)
	m.ObserveStore("occurrences.list", 2*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.occurrences.WithLabelValues("Bullying", "high")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reports.WithLabelValues(reportKindForm, "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reports.WithLabelValues(reportKindForm, "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.mails.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/api/occurrences/:id", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.storeDuration))
}

func TestMetricsHandlerExposesNadeCollectors(t *testing.T) {
	m := NewMetricsService()
	m.OccurrenceCreated("Dano", "low")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nade_occurrences_created_total")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *MetricsService

	assert.NotPanics(t, func() {
		m.OccurrenceCreated("Dano", "low")
		m.RecordCacheOperation(true, time.Millisecond)
		m.MailDelivered(nil)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
