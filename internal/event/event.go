package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// KindUnknown is assigned when the provider omits a transaction type.
const KindUnknown = "UNKNOWN"

// TransferEvent is the canonical representation of one webhook payload item.
// Amount is nil when no transfer in the payload satisfied the matching rule;
// Mint is empty in exactly the same case.
type TransferEvent struct {
	Signature   string
	Kind        string
	Description string
	Mint        string
	Amount      *decimal.Decimal
	ReceivedAt  time.Time
}

// HasAmount reports whether a qualifying transfer was found in the payload.
func (e TransferEvent) HasAmount() bool {
	return e.Amount != nil
}
