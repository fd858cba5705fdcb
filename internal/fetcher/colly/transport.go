package collyfetcher

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/JakeFAU/fact-poller/internal/metrics"
)

// instrumentedTransport records upstream status codes and latencies.
type instrumentedTransport struct {
	base http.RoundTripper
}

func newInstrumentedTransport(base http.RoundTripper) *instrumentedTransport {
	return &instrumentedTransport{base: base}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("instrumented transport received nil request")
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		metrics.ObserveFetch(0, time.Since(start))
		return nil, fmt.Errorf("upstream roundtrip: %w", err)
	}
	metrics.ObserveFetch(resp.StatusCode, time.Since(start))
	return resp, nil
}
