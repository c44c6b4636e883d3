package event

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// rawPayload tolerates the field aliases seen across webhook provider
// versions. Unknown fields are ignored.
type rawPayload struct {
	Signature            string        `json:"signature"`
	TxSignature          string        `json:"txSignature"`
	TransactionSignature string        `json:"transactionSignature"`
	Type                 string        `json:"type"`
	TransactionType      string        `json:"transactionType"`
	Description          string        `json:"description"`
	TokenTransfers       []rawTransfer `json:"tokenTransfers"`
}

type rawTransfer struct {
	Mint         string          `json:"mint"`
	TokenAddress string          `json:"tokenAddress"`
	TokenAmount  json.RawMessage `json:"tokenAmount"`
	Amount       json.RawMessage `json:"amount"`
}

// Normalizer converts raw provider payloads into canonical transfer events.
type Normalizer struct {
	targetMint string
	minAmount  decimal.Decimal
}

// NewNormalizer constructs a Normalizer. An empty targetMint matches any
// mint; a non-positive minAmount disables the threshold during scanning.
func NewNormalizer(targetMint string, minAmount decimal.Decimal) *Normalizer {
	return &Normalizer{targetMint: targetMint, minAmount: minAmount}
}

// Normalize produces exactly one TransferEvent per payload item. It only
// fails for items that are not JSON objects; any structurally valid object
// degrades field by field to empty values instead of erroring.
func (n *Normalizer) Normalize(raw json.RawMessage) (TransferEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return TransferEvent{}, fmt.Errorf("payload item is not an object")
	}

	var payload rawPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return TransferEvent{}, fmt.Errorf("decode payload item: %w", err)
	}

	ev := TransferEvent{
		Signature:   firstNonEmpty(payload.Signature, payload.TxSignature, payload.TransactionSignature),
		Kind:        firstNonEmpty(payload.Type, payload.TransactionType, KindUnknown),
		Description: payload.Description,
	}

	// First-match scan in payload order. Ties between qualifying transfers
	// go to the earliest entry, not the largest amount.
	for _, tr := range payload.TokenTransfers {
		mint := firstNonEmpty(tr.Mint, tr.TokenAddress)
		amount := parseAmount(tr.TokenAmount, tr.Amount)
		if amount == nil || !amount.IsPositive() {
			continue
		}
		if n.targetMint != "" && mint != n.targetMint {
			continue
		}
		if n.minAmount.IsPositive() && amount.LessThan(n.minAmount) {
			continue
		}

		ev.Mint = mint
		ev.Amount = amount
		break
	}

	return ev, nil
}

// parseAmount accepts the amount encodings providers emit: a JSON number,
// a numeric string, or an object carrying a tokenAmount field.
func parseAmount(candidates ...json.RawMessage) *decimal.Decimal {
	for _, raw := range candidates {
		if len(raw) == 0 {
			continue
		}
		if d, ok := decodeAmount(raw); ok {
			return &d
		}
	}
	return nil
}

func decodeAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if d, err := decimal.NewFromString(num.String()); err == nil {
			return d, true
		}
		return decimal.Decimal{}, false
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		if d, err := decimal.NewFromString(str); err == nil {
			return d, true
		}
		return decimal.Decimal{}, false
	}

	var nested struct {
		TokenAmount json.RawMessage `json:"tokenAmount"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested.TokenAmount) > 0 {
		return decodeAmount(nested.TokenAmount)
	}

	return decimal.Decimal{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
