// Package feed fans accepted alerts out to connected overlay clients.
package feed

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/metrics"
)

const subscriberBuffer = 8

// Hub broadcasts alert payloads to live feed subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:   make(map[chan []byte]struct{}),
		logger: logger.With().Str("component", "feed_hub").Logger(),
	}
}

// Subscribe registers a new client. The returned cancel func must be
// called when the client disconnects.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	metrics.FeedSubscribers.Set(float64(count))
	h.logger.Debug().Int("subscribers", count).Msg("feed client connected")

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		count := len(h.subs)
		h.mu.Unlock()

		metrics.FeedSubscribers.Set(float64(count))
		h.logger.Debug().Int("subscribers", count).Msg("feed client disconnected")
	}
	return ch, cancel
}

// Broadcast sends payload to every subscriber without blocking.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			// slow client, drop
		}
	}
}
