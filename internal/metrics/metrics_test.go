package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := iterationsTotal
	Init()
	if iterationsTotal != first {
		t.Fatal("Init() replaced collectors on second call")
	}
}

func TestObserveIteration(t *testing.T) {
	Init()
	before := testutil.ToFloat64(iterationsTotal.WithLabelValues(OutcomeDecodeError))
	ObserveIteration(OutcomeDecodeError)
	ObserveIteration(OutcomeDecodeError)
	after := testutil.ToFloat64(iterationsTotal.WithLabelValues(OutcomeDecodeError))
	if after-before != 2 {
		t.Fatalf("expected decode_error to grow by 2, grew by %f", after-before)
	}
}

func TestObserveSaveAndNotification(t *testing.T) {
	Init()
	saved := testutil.ToFloat64(recordsSavedTotal.WithLabelValues("memory"))
	sent := testutil.ToFloat64(notificationsSentTotal)
	failed := testutil.ToFloat64(notificationsFailed)

	ObserveSave("memory")
	ObserveNotification()
	ObserveNotificationFailure()

	if got := testutil.ToFloat64(recordsSavedTotal.WithLabelValues("memory")); got != saved+1 {
		t.Fatalf("expected saved counter %f, got %f", saved+1, got)
	}
	if got := testutil.ToFloat64(notificationsSentTotal); got != sent+1 {
		t.Fatalf("expected notification counter %f, got %f", sent+1, got)
	}
	if got := testutil.ToFloat64(notificationsFailed); got != failed+1 {
		t.Fatalf("expected failed notification counter %f, got %f", failed+1, got)
	}
}

func TestObserveFetchLabelsCode(t *testing.T) {
	Init()
	before := testutil.ToFloat64(httpResponsesTotal.WithLabelValues("404"))
	ObserveFetch(404, 20*time.Millisecond)
	if got := testutil.ToFloat64(httpResponsesTotal.WithLabelValues("404")); got != before+1 {
		t.Fatalf("expected 404 counter %f, got %f", before+1, got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveIteration(OutcomeSaved)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "poller_iterations_total") {
		t.Fatalf("expected poller_iterations_total in output:\n%s", body)
	}
}

func TestObserveServerRequest(t *testing.T) {
	Init()
	before := testutil.ToFloat64(serverRequestsTotal.WithLabelValues("/healthz", "200"))
	ObserveServerRequest("/healthz", http.StatusOK, time.Millisecond)
	if got := testutil.ToFloat64(serverRequestsTotal.WithLabelValues("/healthz", "200")); got != before+1 {
		t.Fatalf("expected request counter %f, got %f", before+1, got)
	}
}
