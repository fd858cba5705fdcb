// Package storage defines the record store abstraction.
// Providers live in subpackages (local, memory, gcs, postgres) and are
// selected by storage.provider at startup.
package storage

import (
	"github.com/JakeFAU/fact-poller/internal/fact"
)

// Provider is a fact.Store that can also report its name and release resources.
type Provider interface {
	fact.Store
	// Name identifies the provider in logs and metrics.
	Name() string
	// Close releases connections or handles held by the provider.
	Close() error
}
