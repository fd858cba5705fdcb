// Package collyfetcher implements fact.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

const defaultTimeout = 30 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements fact.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. The same URL is fetched on every iteration, so
// revisits are allowed, and error statuses are handed back as responses.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(newInstrumentedTransport(newHTTPTransport()))

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// capture collects what the collector callbacks observe during one visit.
type capture struct {
	start    time.Time
	response fact.FetchResponse
	err      error
}

// Fetch performs one GET. A response of any status is returned as-is;
// only failures to get a response at all are errors.
func (f *Fetcher) Fetch(ctx context.Context, request fact.FetchRequest) (fact.FetchResponse, error) {
	got := &capture{start: time.Now()}
	collector := f.buildCollector(got)
	if err := visit(ctx, collector, request.URL, got); err != nil {
		return fact.FetchResponse{}, err
	}
	return got.response, nil
}

// buildCollector clones the shared collector so per-call callbacks never
// accumulate on it.
func (f *Fetcher) buildCollector(got *capture) *colly.Collector {
	c := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		c.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.SetRequestTimeout(timeout)
	registerHooks(c, got)
	return c
}

func registerHooks(hooks collectorHooks, got *capture) {
	hooks.OnResponse(func(r *colly.Response) {
		got.response = toFetchResponse(r, time.Since(got.start))
	})
	hooks.OnError(func(_ *colly.Response, err error) {
		got.err = err
	})
}

func toFetchResponse(r *colly.Response, elapsed time.Duration) fact.FetchResponse {
	out := fact.FetchResponse{
		StatusCode: r.StatusCode,
		Headers:    http.Header{},
		Body:       append([]byte(nil), r.Body...),
		Duration:   elapsed,
	}
	if r.Headers != nil {
		out.Headers = r.Headers.Clone()
	}
	if r.Request != nil && r.Request.URL != nil {
		out.URL = r.Request.URL.String()
	}
	return out
}

// visit runs the blocking colly Visit and gives up as soon as ctx ends.
func visit(ctx context.Context, c *colly.Collector, url string, got *capture) error {
	done := make(chan error, 1)
	go func() {
		done <- c.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch %s canceled: %w", url, ctx.Err())
	case err := <-done:
		if err == nil {
			err = got.err
		}
		if err != nil {
			return fmt.Errorf("get %s: %w: %w", url, fact.ErrTransport, err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
