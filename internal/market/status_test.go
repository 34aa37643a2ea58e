package market_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minjae-dev/gomarket/internal/market"
)

func TestCheckoutTransitions(t *testing.T) {
	allowed := [][2]market.CheckoutState{
		{market.StateStart, market.StateStockReserving},
		{market.StateStockReserving, market.StateStockReserved},
		{market.StateStockReserving, market.StateStockReserveFailed},
		{market.StateStockReserved, market.StatePaymentPending},
		{market.StatePaymentPending, market.StatePaymentApproved},
		{market.StatePaymentPending, market.StatePaymentDeclined},
		{market.StatePaymentApproved, market.StateOrderPersisting},
		{market.StatePaymentDeclined, market.StateStockReleasing},
		{market.StateOrderPersisting, market.StateOrderCommitted},
		{market.StateStockReleasing, market.StateStockReleased},
	}
	for _, tr := range allowed {
		assert.Truef(t, market.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]market.CheckoutState{
		{market.StateStart, market.StatePaymentPending},          // payment before reservation
		{market.StateStockReserved, market.StateOrderPersisting}, // persist before payment
		{market.StatePaymentDeclined, market.StateOrderPersisting},
		{market.StateOrderCommitted, market.StateStockReleasing}, // no release after commit
		{market.StateStockReleased, market.StateStockReleasing},  // single release only
	}
	for _, tr := range denied {
		assert.Falsef(t, market.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []market.CheckoutState{
		market.StateStockReserveFailed,
		market.StateOrderCommitted,
		market.StateStockReleased,
	} {
		assert.True(t, s.Terminal(), string(s))
	}
	assert.False(t, market.StatePaymentPending.Terminal())
}
