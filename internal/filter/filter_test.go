package filter

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/event"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestAcceptThresholdBoundaries(t *testing.T) {
	e := NewEvaluator("NC", decimal.NewFromInt(100), false)

	if ok, _ := e.Accept(event.TransferEvent{Mint: "NC", Amount: amount(99)}); ok {
		t.Fatal("amount below minimum should be rejected")
	}
	if ok, _ := e.Accept(event.TransferEvent{Mint: "NC", Amount: amount(100)}); !ok {
		t.Fatal("amount equal to minimum should be accepted")
	}
	if ok, _ := e.Accept(event.TransferEvent{Mint: "NC", Amount: amount(101)}); !ok {
		t.Fatal("amount above minimum should be accepted")
	}
}

func TestAcceptMintMismatch(t *testing.T) {
	e := NewEvaluator("NC", decimal.NewFromInt(100), false)

	if ok, reason := e.Accept(event.TransferEvent{Mint: "OTHER", Amount: amount(1000000)}); ok {
		t.Fatal("foreign mint should be rejected regardless of amount")
	} else if reason != "mint mismatch" {
		t.Fatalf("reason = %q", reason)
	}
}

func TestAcceptStrictMode(t *testing.T) {
	strict := NewEvaluator("NC", decimal.Zero, true)
	lax := NewEvaluator("NC", decimal.Zero, false)

	noTransfer := event.TransferEvent{Signature: "abc"}

	if ok, _ := strict.Accept(noTransfer); ok {
		t.Fatal("strict mode should reject events with no qualifying transfer")
	}
	if ok, _ := lax.Accept(noTransfer); !ok {
		t.Fatal("lax mode should pass events with no qualifying transfer")
	}
}

func TestAcceptStrictWithoutMintConfigured(t *testing.T) {
	e := NewEvaluator("", decimal.Zero, true)

	// strict only applies when a target mint is configured
	if ok, _ := e.Accept(event.TransferEvent{Signature: "abc"}); !ok {
		t.Fatal("strict without a mint should not reject")
	}
}

func TestAcceptNilAmountSkipsThreshold(t *testing.T) {
	e := NewEvaluator("", decimal.NewFromInt(100), false)

	if ok, _ := e.Accept(event.TransferEvent{Signature: "abc"}); !ok {
		t.Fatal("nil amount should not be compared against the minimum")
	}
}
