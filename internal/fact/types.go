// Package fact defines the polled record schema and the interfaces shared by
// the fetch, store and notify subsystems.
package fact

import (
	"net/http"
	"time"
)

// Fact is one record decoded from the upstream endpoint.
// Values are never mutated after Decode returns them.
type Fact struct {
	Used      bool
	Source    string
	Type      string
	Deleted   bool
	ID        string
	Revision  int32
	Text      string
	UpdatedAt string
	CreatedAt string
	Status    Status
	User      string
}

// Status is the nested verification block of a Fact.
type Status struct {
	Verified  bool
	SentCount int32
}

// FetchRequest captures everything needed to fetch the upstream document.
type FetchRequest struct {
	URL string
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Notification is published after a Fact has been persisted.
type Notification struct {
	Key       string    `json:"key"`
	FactID    string    `json:"fact_id"`
	Hash      string    `json:"hash"`
	FetchedAt time.Time `json:"fetched_at"`
	Store     string    `json:"store"`
}
