package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/cooldown"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/dedup"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/filter"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/publisher"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []event.TransferEvent
}

func (c *capturingPublisher) Publish(_ context.Context, ev event.TransferEvent, _ time.Time) publisher.Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return publisher.Alert{}
}

type fixture struct {
	pipeline *Pipeline
	pub      *capturingPublisher
	clock    *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(mint string, min int64, strict bool, cool time.Duration) *fixture {
	minAmount := decimal.NewFromInt(min)
	pub := &capturingPublisher{}
	clock := &fakeClock{now: time.Unix(1000, 0)}

	p := New(
		event.NewNormalizer(mint, minAmount),
		filter.NewEvaluator(mint, minAmount, strict),
		dedup.NewSet(0),
		cooldown.NewGate(cool),
		pub,
		zerolog.Nop(),
	)
	p.SetClock(clock.Now)

	return &fixture{pipeline: p, pub: pub, clock: clock}
}

func buyPayload(sig, mint string, amount int64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"signature":%q,"tokenTransfers":[{"mint":%q,"tokenAmount":%d}]}`, sig, mint, amount))
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture("NC", 100, false, 20*time.Second)
	ctx := context.Background()

	// first qualifying buy triggers an alert
	result := f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigA", "NC", 500)})
	if result.Accepted != 1 || result.Triggered != 1 {
		t.Fatalf("first submission: %+v", result)
	}
	if len(f.pub.events) != 1 || !f.pub.events[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("published events = %+v", f.pub.events)
	}

	// identical payload 5s later is a duplicate
	f.clock.Advance(5 * time.Second)
	result = f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigA", "NC", 500)})
	if result.Duplicates != 1 || result.Triggered != 0 {
		t.Fatalf("duplicate submission: %+v", result)
	}

	// a fresh signature inside the cooldown is accepted but not triggered
	result = f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigB", "NC", 600)})
	if result.Accepted != 1 || result.Triggered != 0 {
		t.Fatalf("cooldown suppression: %+v", result)
	}

	// after the cooldown elapses a new buy triggers again
	f.clock.Advance(20 * time.Second)
	result = f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigC", "NC", 700)})
	if result.Triggered != 1 {
		t.Fatalf("post-cooldown submission: %+v", result)
	}
	if len(f.pub.events) != 2 {
		t.Fatalf("published events = %d, want 2", len(f.pub.events))
	}
}

func TestBatchIndependence(t *testing.T) {
	f := newFixture("NC", 100, false, 0)

	batch := []json.RawMessage{
		buyPayload("sig1", "NC", 200),
		json.RawMessage(`this is not json`),
		buyPayload("sig3", "NC", 300),
	}

	result := f.pipeline.Process(context.Background(), batch)
	if result.Received != 3 {
		t.Fatalf("received = %d", result.Received)
	}
	if result.Malformed != 1 {
		t.Fatalf("malformed = %d", result.Malformed)
	}
	if result.Accepted != 2 || result.Triggered != 2 {
		t.Fatalf("items around the malformed one must be unaffected: %+v", result)
	}
}

func TestCooldownPerEventWithinBatch(t *testing.T) {
	f := newFixture("NC", 100, false, 20*time.Second)

	batch := []json.RawMessage{
		buyPayload("sig1", "NC", 200),
		buyPayload("sig2", "NC", 300),
		buyPayload("sig3", "NC", 400),
	}

	result := f.pipeline.Process(context.Background(), batch)
	if result.Accepted != 3 {
		t.Fatalf("accepted = %d", result.Accepted)
	}
	if result.Triggered != 1 {
		t.Fatalf("only the first qualifying event in a batch may trigger, got %d", result.Triggered)
	}
}

func TestConcurrentBatchesSerializeOnGate(t *testing.T) {
	f := newFixture("NC", 100, false, time.Minute)
	ctx := context.Background()

	const batches = 32
	results := make(chan Result, batches)
	var wg sync.WaitGroup
	for i := 0; i < batches; i++ {
		sig := fmt.Sprintf("sig-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.pipeline.Process(ctx, []json.RawMessage{buyPayload(sig, "NC", 500)})
		}()
	}
	wg.Wait()
	close(results)

	var accepted, triggered int
	for r := range results {
		accepted += r.Accepted
		triggered += r.Triggered
	}

	if accepted != batches {
		t.Fatalf("accepted = %d, want %d", accepted, batches)
	}
	// every batch observes the same clock reading, so the gate must admit
	// exactly one of them
	if triggered != 1 {
		t.Fatalf("triggered = %d, want 1", triggered)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("publisher invoked %d times, want 1", len(f.pub.events))
	}
}

func TestDuplicateNeverReachesGate(t *testing.T) {
	f := newFixture("NC", 0, false, 0)
	ctx := context.Background()

	f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigA", "NC", 500)})
	result := f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigA", "NC", 500)})

	if result.Accepted != 0 || result.Triggered != 0 || result.Duplicates != 1 {
		t.Fatalf("resubmission: %+v", result)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("publisher invoked %d times, want 1", len(f.pub.events))
	}
}

func TestUnsignedEventsBypassDedup(t *testing.T) {
	f := newFixture("NC", 0, false, 0)
	ctx := context.Background()

	payload := json.RawMessage(`{"tokenTransfers":[{"mint":"NC","tokenAmount":50}]}`)

	first := f.pipeline.Process(ctx, []json.RawMessage{payload})
	second := f.pipeline.Process(ctx, []json.RawMessage{payload})

	if first.Triggered != 1 || second.Triggered != 1 {
		t.Fatalf("unsigned events must never dedup: %+v / %+v", first, second)
	}
}

func TestFilteredEventsAreNotRecorded(t *testing.T) {
	f := newFixture("NC", 100, true, 0)
	ctx := context.Background()

	// below threshold: no qualifying transfer, strict mode rejects and the
	// signature stays unrecorded
	low := json.RawMessage(`{"signature":"sigX","tokenTransfers":[{"mint":"NC","tokenAmount":50}]}`)
	result := f.pipeline.Process(ctx, []json.RawMessage{low})
	if result.Filtered != 1 {
		t.Fatalf("filtered = %d", result.Filtered)
	}

	// a later qualifying payload with the same signature still passes
	result = f.pipeline.Process(ctx, []json.RawMessage{buyPayload("sigX", "NC", 500)})
	if result.Triggered != 1 {
		t.Fatalf("resubmission after filter rejection: %+v", result)
	}
}
