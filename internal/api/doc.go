// Package api serves the health and Prometheus endpoints of a poll run.
//
// The server only lives as long as the run: it starts before the first
// iteration and is shut down once the run loop returns.
package api
