// Package publisher turns accepted transfer events into alerts and hands
// them to the configured delivery surfaces.
package publisher

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/metrics"
	"github.com/ninjacatsolana/nc-buyboy-v2/internal/storage"
)

// Alert is the outward record produced once per accepted event. The
// publisher owns the canonical value; consumers always get copies.
type Alert struct {
	ID        string          `json:"id"`
	Signature string          `json:"signature"`
	CreatedAt time.Time       `json:"created_at"`
	Text      string          `json:"text"`
	TxURL     string          `json:"tx_url"`
	Amount    decimal.Decimal `json:"amount"`
	Mint      string          `json:"mint"`
}

// Renderer produces the image artifact for an alert.
type Renderer interface {
	Render(amount decimal.Decimal, mint, signature string) ([]byte, error)
}

// Poster publishes the alert to a social channel.
type Poster interface {
	Post(ctx context.Context, caption string, image []byte) (string, error)
}

// Feed receives a copy of each alert for real-time display.
type Feed interface {
	Broadcast(payload []byte)
}

// Options configure alert synthesis.
type Options struct {
	Symbol    string
	TxURLBase string
}

// Publisher holds the single most-recent alert and its rendered image, and
// drives best-effort delivery to the external surfaces. Delivery failures
// are logged and never undo state that was already committed.
type Publisher struct {
	mu      sync.RWMutex
	current *Alert
	image   []byte

	opts     Options
	renderer Renderer
	poster   Poster
	feed     Feed
	audit    storage.AlertStore
	logger   zerolog.Logger
}

// New constructs a Publisher. Any of renderer, poster, feed, and audit may
// be nil; the corresponding surface is then skipped.
func New(opts Options, renderer Renderer, poster Poster, feed Feed, audit storage.AlertStore, logger zerolog.Logger) *Publisher {
	if opts.Symbol == "" {
		opts.Symbol = "NC"
	}
	if opts.TxURLBase == "" {
		opts.TxURLBase = "https://solscan.io/tx/"
	}
	return &Publisher{
		opts:     opts,
		renderer: renderer,
		poster:   poster,
		feed:     feed,
		audit:    audit,
		logger:   logger.With().Str("component", "publisher").Logger(),
	}
}

// Publish synthesizes an alert from the accepted event, stores it as the
// current alert, and delivers it. The returned value is a copy.
func (p *Publisher) Publish(ctx context.Context, ev event.TransferEvent, now time.Time) Alert {
	amount := decimal.Zero
	if ev.Amount != nil {
		amount = *ev.Amount
	}

	alert := Alert{
		ID:        ulid.Make().String(),
		Signature: ev.Signature,
		CreatedAt: now,
		Amount:    amount,
		Mint:      ev.Mint,
	}
	if ev.Signature != "" {
		alert.TxURL = p.opts.TxURLBase + ev.Signature
	}
	alert.Text = p.renderText(ev, alert)

	p.mu.Lock()
	p.current = &alert
	p.image = nil
	p.mu.Unlock()

	metrics.AlertsTriggeredTotal.Inc()
	p.logger.Info().
		Str("alert_id", alert.ID).
		Str("signature", alert.Signature).
		Str("amount", alert.Amount.String()).
		Msg("alert published")

	p.deliver(ctx, alert)
	return alert
}

// Current returns a copy of the most recent alert, if any.
func (p *Publisher) Current() (Alert, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return Alert{}, false
	}
	return *p.current, true
}

// CurrentImage returns a copy of the most recent rendered card, if any.
func (p *Publisher) CurrentImage() ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.image) == 0 {
		return nil, false
	}
	cp := make([]byte, len(p.image))
	copy(cp, p.image)
	return cp, true
}

// deliver fans the committed alert out to the external surfaces. The state
// lock is never held across a delivery call.
func (p *Publisher) deliver(ctx context.Context, alert Alert) {
	var image []byte
	if p.renderer != nil {
		rendered, err := p.renderer.Render(alert.Amount, alert.Mint, alert.Signature)
		if err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("renderer").Inc()
			p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to render buy card")
		} else {
			image = rendered
			p.mu.Lock()
			p.image = rendered
			p.mu.Unlock()
		}
	}

	if p.feed != nil {
		payload, err := json.Marshal(alert)
		if err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("feed").Inc()
			p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to encode alert for feed")
		} else {
			p.feed.Broadcast(payload)
		}
	}

	var postedID *string
	if p.poster != nil {
		id, err := p.poster.Post(ctx, alert.Text, image)
		if err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("poster").Inc()
			p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to dispatch social post")
		} else {
			postedID = &id
		}
	}

	if p.audit != nil {
		record := storage.AlertRecord{
			AlertID:   alert.ID,
			Signature: alert.Signature,
			Mint:      alert.Mint,
			Amount:    alert.Amount,
			Text:      alert.Text,
			TxURL:     alert.TxURL,
			PostedID:  postedID,
		}
		if _, err := p.audit.InsertAlert(ctx, record); err != nil {
			metrics.DeliveryFailuresTotal.WithLabelValues("audit").Inc()
			p.logger.Error().Err(err).Str("alert_id", alert.ID).Msg("failed to persist alert record")
		}
	}
}

func (p *Publisher) renderText(ev event.TransferEvent, alert Alert) string {
	builder := strings.Builder{}
	builder.WriteString(p.opts.Symbol + " BUY!\n")
	if alert.Amount.IsPositive() {
		builder.WriteString("Amount: " + alert.Amount.StringFixed(2) + " " + p.opts.Symbol + "\n")
	}
	if ev.Description != "" {
		builder.WriteString(ev.Description + "\n")
	}
	if alert.TxURL != "" {
		builder.WriteString(alert.TxURL)
	}
	return builder.String()
}
