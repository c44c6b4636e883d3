// Package ingest drives the triage pipeline for inbound webhook batches:
// normalize, dedup, filter, cooldown, publish.
package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/cooldown"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/dedup"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/filter"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/metrics"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/publisher"
)

// AlertPublisher is the downstream surface for accepted events.
type AlertPublisher interface {
	Publish(ctx context.Context, ev event.TransferEvent, now time.Time) publisher.Alert
}

// Result summarises one processed batch.
type Result struct {
	Received   int `json:"received"`
	Malformed  int `json:"malformed"`
	Duplicates int `json:"duplicates"`
	Filtered   int `json:"filtered"`
	Accepted   int `json:"accepted"`
	Triggered  int `json:"triggered"`
}

// Pipeline processes payload items independently and in order. Shared
// state (dedup set, cooldown gate) is internally synchronized, so
// concurrent batches are safe.
type Pipeline struct {
	normalizer *event.Normalizer
	evaluator  *filter.Evaluator
	seen       *dedup.Set
	gate       *cooldown.Gate
	pub        AlertPublisher
	logger     zerolog.Logger
	now        func() time.Time
}

// New constructs a Pipeline.
func New(normalizer *event.Normalizer, evaluator *filter.Evaluator, seen *dedup.Set, gate *cooldown.Gate, pub AlertPublisher, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		evaluator:  evaluator,
		seen:       seen,
		gate:       gate,
		pub:        pub,
		logger:     logger.With().Str("component", "pipeline").Logger(),
		now:        time.Now,
	}
}

// SetClock overrides the wall clock, for tests and simulations.
func (p *Pipeline) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

// Process runs the pipeline over a batch. A single item failing never
// aborts the rest; every item gets an independent outcome.
func (p *Pipeline) Process(ctx context.Context, items []json.RawMessage) Result {
	result := Result{Received: len(items)}

	for _, item := range items {
		p.processItem(ctx, item, &result)
	}

	metrics.DedupSize.Set(float64(p.seen.Len()))
	return result
}

func (p *Pipeline) processItem(ctx context.Context, item json.RawMessage, result *Result) {
	now := p.now()

	ev, err := p.normalizer.Normalize(item)
	if err != nil {
		result.Malformed++
		metrics.PayloadsTotal.WithLabelValues(metrics.ResultMalformed).Inc()
		p.logger.Warn().Err(err).Msg("skipping malformed payload item")
		return
	}
	ev.ReceivedAt = now

	if p.seen.Seen(ev.Signature) {
		result.Duplicates++
		metrics.PayloadsTotal.WithLabelValues(metrics.ResultDuplicate).Inc()
		p.logger.Debug().Str("signature", ev.Signature).Msg("duplicate signature, skipping")
		return
	}

	if ok, reason := p.evaluator.Accept(ev); !ok {
		result.Filtered++
		metrics.PayloadsTotal.WithLabelValues(metrics.ResultFiltered).Inc()
		p.logger.Debug().
			Str("signature", ev.Signature).
			Str("reason", reason).
			Msg("event rejected by filter")
		return
	}

	p.seen.Record(ev.Signature)
	result.Accepted++
	metrics.PayloadsTotal.WithLabelValues(metrics.ResultAccepted).Inc()

	if !p.gate.TryAcquire(now) {
		metrics.PayloadsTotal.WithLabelValues(metrics.ResultCooldown).Inc()
		p.logger.Info().
			Str("signature", ev.Signature).
			Msg("accepted event suppressed by cooldown")
		return
	}

	result.Triggered++
	metrics.PayloadsTotal.WithLabelValues(metrics.ResultTriggered).Inc()
	p.pub.Publish(ctx, ev, now)
}
