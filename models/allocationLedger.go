package models

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExistingAllocations sums the quantity already claimed against stockEntry by other
// non-cancelled passes, keyed by source row. Gate Out passes count dispatched qty, Gate In
// passes count received qty. The claiming passes stay locked until tx ends, so two
// concurrent saves against the same entry observe each other's allocations.
func ExistingAllocations(ctx context.Context, tx DocumentStore, stockEntry string, entryType EntryType, excludeName string) (map[string]decimal.Decimal, error) {
	ids, err := tx.LockAllocatingGatePasses(ctx, stockEntry, excludeName)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	return tx.SumGatePassItemQty(ctx, ids, qtyColumnFor(entryType))
}

// remainingQty is what is left of ceiling after allocated, floored at zero.
func remainingQty(ceiling, allocated decimal.Decimal) decimal.Decimal {
	return nonNegative(ceiling.Sub(allocated))
}
