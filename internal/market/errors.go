package market

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrCounterMissing = errors.New("counter not provisioned")
	ErrDuplicateCart  = errors.New("cart entry already exists")
)

// InsufficientStockError names the offending product so the message shown
// to the buyer can say which item ran out.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// PaymentDeclinedError carries the gateway's reason verbatim.
type PaymentDeclinedError struct {
	Reason string
}

func (e *PaymentDeclinedError) Error() string {
	return "payment declined: " + e.Reason
}
