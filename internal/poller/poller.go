// Package poller implements the fetch, validate, decode and store loop.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/fact-poller/internal/fact"
	"github.com/JakeFAU/fact-poller/internal/metrics"
	"github.com/JakeFAU/fact-poller/internal/storage"
)

// Config controls Poller behavior.
type Config struct {
	URL        string
	Iterations int
	Interval   time.Duration
}

// Summary describes a completed (or partially completed) run.
type Summary struct {
	Iterations int
	Keys       []string
}

// Poller runs a fixed number of fetch-and-store iterations.
type Poller struct {
	fetcher   fact.Fetcher
	store     storage.Provider
	publisher fact.Publisher
	hasher    fact.Hasher
	clock     fact.Clock
	sleeper   fact.Sleeper
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Poller. publisher may be nil to disable save notifications.
func New(
	fetcher fact.Fetcher,
	store storage.Provider,
	publisher fact.Publisher,
	hasher fact.Hasher,
	clock fact.Clock,
	sleeper fact.Sleeper,
	cfg Config,
	logger *zap.Logger,
) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		sleeper:   sleeper,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes cfg.Iterations iterations, sleeping cfg.Interval after each
// one. The first failure ends the run; records saved before it are kept.
// A failed notification is only logged, since its record is already saved.
func (p *Poller) Run(ctx context.Context) (Summary, error) {
	p.logger.Info("Starting up",
		zap.String("url", p.cfg.URL),
		zap.Int("iterations", p.cfg.Iterations),
		zap.Duration("interval", p.cfg.Interval),
		zap.String("store", p.store.Name()),
	)

	var summary Summary
	for i := 1; i <= p.cfg.Iterations; i++ {
		key, outcome, err := p.iterate(ctx)
		metrics.ObserveIteration(outcome)
		if err != nil {
			return summary, fmt.Errorf("iteration %d: %w", i, err)
		}
		summary.Iterations++
		summary.Keys = append(summary.Keys, key)
		p.logger.Info("Written one file", zap.String("key", key), zap.Int("iteration", i))

		if err := p.sleeper.Sleep(ctx, p.cfg.Interval); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (p *Poller) iterate(ctx context.Context) (string, string, error) {
	fetchedAt := p.clock.Now()
	resp, err := p.fetcher.Fetch(ctx, fact.FetchRequest{URL: p.cfg.URL})
	if err != nil {
		if !errors.Is(err, fact.ErrTransport) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", fact.ErrTransport, err)
		}
		return "", metrics.OutcomeTransportError, fmt.Errorf("fetch %s: %w", p.cfg.URL, err)
	}
	p.logger.Debug("fetched",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", resp.Duration),
	)

	if err := fact.CheckStatus(resp.StatusCode); err != nil {
		return "", metrics.OutcomeStatusError, err
	}

	record, err := fact.Decode(resp.Body)
	if err != nil {
		return "", metrics.OutcomeDecodeError, err
	}

	key, err := p.store.Save(ctx, record)
	if err != nil {
		return "", metrics.OutcomeStoreError, fmt.Errorf("%w: %s: %w", fact.ErrStore, p.store.Name(), err)
	}
	metrics.ObserveSave(p.store.Name())

	if p.publisher != nil {
		if err := p.notify(ctx, key, record, resp.Body, fetchedAt); err != nil {
			metrics.ObserveNotificationFailure()
			p.logger.Warn("Notification failed",
				zap.String("key", key),
				zap.Error(fmt.Errorf("%w: %w", fact.ErrNotify, err)),
			)
		}
	}
	return key, metrics.OutcomeSaved, nil
}

func (p *Poller) notify(ctx context.Context, key string, record fact.Fact, body []byte, fetchedAt time.Time) error {
	hash, err := p.hasher.Hash(body)
	if err != nil {
		return fmt.Errorf("hash body: %w", err)
	}
	id, err := p.publisher.Publish(ctx, fact.Notification{
		Key:       key,
		FactID:    record.ID,
		Hash:      hash,
		FetchedAt: fetchedAt,
		Store:     p.store.Name(),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	metrics.ObserveNotification()
	p.logger.Debug("notification published", zap.String("key", key), zap.String("message_id", id))
	return nil
}
