// Package memory contains an in-memory notifier for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/fact-poller/internal/fact"
)

// Publisher stores published notifications for inspection.
type Publisher struct {
	mu            sync.RWMutex
	topic         string
	notifications []fact.Notification
	err           error
}

// New returns a memory Publisher bound to topic.
func New(topic string) *Publisher {
	return &Publisher{topic: topic}
}

// FailWith makes subsequent publishes return err. A nil err restores success.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the notification and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, n fact.Notification) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.notifications = append(p.notifications, n)
	return fmt.Sprintf("%s-%d", p.topic, len(p.notifications)), nil
}

// Notifications returns the recorded publishes.
func (p *Publisher) Notifications() []fact.Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]fact.Notification, len(p.notifications))
	copy(out, p.notifications)
	return out
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
