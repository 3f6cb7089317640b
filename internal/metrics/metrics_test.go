package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOperation(t *testing.T) {
	reg, m := NewRegistry()

	m.ObserveOperation("create", time.Now(), nil)
	m.ObserveOperation("create", time.Now(), nil)
	m.ObserveOperation("assign", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(m.Operations.WithLabelValues("create", "true")); got != 2 {
		t.Errorf("Operations create/true = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Operations.WithLabelValues("assign", "false")); got != 1 {
		t.Errorf("Operations assign/false = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.OperationDuration); got != 2 {
		t.Errorf("OperationDuration series = %d, want 2", got)
	}

	count, err := testutil.GatherAndCount(reg, "triage_operations_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Errorf("triage_operations_total series = %d, want 2", count)
	}
}

func TestRecommendationMetrics(t *testing.T) {
	_, m := NewRegistry()

	m.Recommendations.WithLabelValues("expert").Inc()
	m.Recommendations.WithLabelValues("fallback").Inc()
	m.Recommendations.WithLabelValues("expert").Inc()
	m.RosterSize.Observe(3)
	m.LeaseConflicts.Inc()

	if got := testutil.ToFloat64(m.Recommendations.WithLabelValues("expert")); got != 2 {
		t.Errorf("Recommendations expert = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LeaseConflicts); got != 1 {
		t.Errorf("LeaseConflicts = %v, want 1", got)
	}
}

func TestHandlerFor(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveHTTP(http.MethodGet, "/api/tasks", http.StatusOK, 20*time.Millisecond)
	m.TasksByStatus.WithLabelValues("todo").Set(4)

	rec := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`triage_http_requests_total{code="200",method="GET",route="/api/tasks"} 1`,
		`triage_tasks{status="todo"} 4`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
