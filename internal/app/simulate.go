package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SimulateOptions parameterise a synthetic buy run through the pipeline.
type SimulateOptions struct {
	Signature string
	Mint      string
	Amount    float64
}

// SimulateBuy 构造一条合成的买入 payload 并走完整条管线。
func (a *App) SimulateBuy(ctx context.Context, opts SimulateOptions) error {
	if opts.Amount <= 0 {
		return errors.New("amount must be greater than zero")
	}

	mint := opts.Mint
	if mint == "" {
		mint = a.Config.Filter.Mint
	}
	if mint == "" {
		return errors.New("no mint given and filter.mint not configured")
	}

	signature := opts.Signature
	if signature == "" {
		signature = fmt.Sprintf("simulated-%d", time.Now().UnixNano())
	}

	payload := map[string]any{
		"signature":   signature,
		"type":        "SWAP",
		"description": "simulated buy",
		"tokenTransfers": []map[string]any{
			{"mint": mint, "tokenAmount": opts.Amount},
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal simulated payload: %w", err)
	}

	pipeline, _, _ := a.buildPipeline(nil)
	result := pipeline.Process(ctx, []json.RawMessage{raw})

	a.Logger.Info().
		Str("signature", signature).
		Int("accepted", result.Accepted).
		Int("triggered", result.Triggered).
		Msg("simulation complete")

	if result.Triggered == 0 {
		return errors.New("simulated buy did not trigger an alert; check filter configuration")
	}
	return nil
}
