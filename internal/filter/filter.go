// Package filter decides whether a canonical transfer event qualifies as a
// buy worth alerting on.
package filter

import (
	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
)

// Evaluator applies the configured acceptance rules to transfer events.
type Evaluator struct {
	mint   string
	min    decimal.Decimal
	strict bool
}

// NewEvaluator constructs an Evaluator. An empty mint disables mint
// matching; a non-positive min disables the amount threshold.
func NewEvaluator(mint string, min decimal.Decimal, strict bool) *Evaluator {
	return &Evaluator{mint: mint, min: min, strict: strict}
}

// Accept returns whether the event passes, and a short reject reason when
// it does not. Rules are checked in order; the first violation wins.
func (e *Evaluator) Accept(ev event.TransferEvent) (bool, string) {
	if e.strict && e.mint != "" && !ev.HasAmount() {
		return false, "no qualifying transfer"
	}
	if e.mint != "" && ev.Mint != "" && ev.Mint != e.mint {
		return false, "mint mismatch"
	}
	if e.min.IsPositive() && ev.HasAmount() && ev.Amount.LessThan(e.min) {
		return false, "below minimum amount"
	}
	return true, ""
}
