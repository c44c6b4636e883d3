// Package render produces the PNG buy-card artifact for an alert.
package render

import (
	"bytes"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
)

// Options tune the rendered card.
type Options struct {
	Symbol string
	Width  int
	Height int
	Floor  decimal.Decimal
}

// CardRenderer draws a bar card comparing the buy against the configured
// alert floor.
type CardRenderer struct {
	opts   Options
	logger zerolog.Logger
}

// NewCardRenderer constructs a renderer with sane defaults.
func NewCardRenderer(opts Options, logger zerolog.Logger) *CardRenderer {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 418
	}
	if opts.Symbol == "" {
		opts.Symbol = "NC"
	}
	return &CardRenderer{
		opts:   opts,
		logger: logger.With().Str("component", "card_renderer").Logger(),
	}
}

// Render returns PNG bytes for the given buy.
func (r *CardRenderer) Render(amount decimal.Decimal, mint, signature string) ([]byte, error) {
	floor := r.opts.Floor.InexactFloat64()

	graph := chart.BarChart{
		Title:    fmt.Sprintf("%s BUY %s (%s)", r.opts.Symbol, amount.StringFixed(2), shortSignature(signature)),
		Width:    r.opts.Width,
		Height:   r.opts.Height,
		BarWidth: 120,
		Background: chart.Style{
			Padding: chart.Box{Top: 48},
		},
		Bars: []chart.Value{
			{Label: r.opts.Symbol + " buy", Value: amount.InexactFloat64()},
			{Label: "alert floor", Value: floor},
		},
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render buy card: %w", err)
	}

	r.logger.Debug().Str("mint", mint).Str("signature", signature).Int("bytes", buf.Len()).Msg("buy card rendered")
	return buf.Bytes(), nil
}

func shortSignature(signature string) string {
	if len(signature) <= 8 {
		return signature
	}
	return signature[:8]
}
