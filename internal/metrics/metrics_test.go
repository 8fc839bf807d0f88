package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-formwizard/pkg/steps"
)

func TestObserverCounters(t *testing.T) {
	m := New()
	m.StepSubmitted(steps.Payment, false)
	m.StepSubmitted(steps.Payment, true)
	m.StepSubmitted(steps.Payment, true)
	m.LookupFailed("cities")
	m.SlotWriteFailed(errors.New("disk full"))
	m.Confirmed()
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("payment", "accepted")); got != 2 {
		t.Fatalf("accepted submissions: %v", got)
	}
	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("payment", "rejected")); got != 1 {
		t.Fatalf("rejected submissions: %v", got)
	}
	if got := testutil.ToFloat64(m.LookupFailures.WithLabelValues("cities")); got != 1 {
		t.Fatalf("lookup failures: %v", got)
	}
	if testutil.ToFloat64(m.SlotWriteFailures) != 1 || testutil.ToFloat64(m.Confirmations) != 1 {
		t.Fatalf("unexpected counters")
	}
	if testutil.ToFloat64(m.ActiveSessions) != 3 {
		t.Fatalf("unexpected gauge")
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.StepSubmitted(steps.Personal, true)
	m.LookupFailed("countries")
	m.Confirmed()
	m.SlotWriteFailed(nil)
	m.SetActiveSessions(1)
	m.ObserveRequest("/", "GET", "200", time.Millisecond)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("/location", http.MethodPost, "303", 20*time.Millisecond)
	m.Confirmed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Result().Body)
	for _, name := range []string{"formwizard_confirmations_total 1", "formwizard_http_request_duration_seconds_bucket"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("missing %q in exposition:\n%s", name, body)
		}
	}
}
