package market

// OrderStatus is the durable status stored on an order record.
type OrderStatus string

const (
	OrderPaymentCompleted OrderStatus = "PAYMENT_COMPLETED"
	OrderCanceled         OrderStatus = "CANCELED"
)

// CheckoutState tracks a single checkout attempt through the commit pipeline.
type CheckoutState string

const (
	StateStart              CheckoutState = "START"
	StateStockReserving     CheckoutState = "STOCK_RESERVING"
	StateStockReserveFailed CheckoutState = "STOCK_RESERVE_FAILED"
	StateStockReserved      CheckoutState = "STOCK_RESERVED"
	StatePaymentPending     CheckoutState = "PAYMENT_PENDING"
	StatePaymentApproved    CheckoutState = "PAYMENT_APPROVED"
	StatePaymentDeclined    CheckoutState = "PAYMENT_DECLINED"
	StateOrderPersisting    CheckoutState = "ORDER_PERSISTING"
	StateOrderCommitted     CheckoutState = "ORDER_COMMITTED"
	StateStockReleasing     CheckoutState = "STOCK_RELEASING"
	StateStockReleased      CheckoutState = "STOCK_RELEASED"
)

var validNext = map[CheckoutState]map[CheckoutState]bool{
	StateStart:              {StateStockReserving: true},
	StateStockReserving:     {StateStockReserved: true, StateStockReserveFailed: true},
	StateStockReserveFailed: {},
	StateStockReserved:      {StatePaymentPending: true},
	StatePaymentPending:     {StatePaymentApproved: true, StatePaymentDeclined: true},
	StatePaymentApproved:    {StateOrderPersisting: true},
	StatePaymentDeclined:    {StateStockReleasing: true},
	StateOrderPersisting:    {StateOrderCommitted: true},
	StateOrderCommitted:     {},
	StateStockReleasing:     {StateStockReleased: true},
	StateStockReleased:      {},
}

func CanTransition(from, to CheckoutState) bool {
	return validNext[from][to]
}

// Terminal reports whether a checkout attempt can make no further progress.
func (s CheckoutState) Terminal() bool {
	return len(validNext[s]) == 0
}
