package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCompleted = "OrderCompleted"
	EventOrderCanceled  = "OrderCanceled"
)

type Envelope struct {
	EventID       string          `json:"event_id"` // uuid
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID int64  `json:"product_id"`
	SellerID  int64  `json:"seller_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type OrderCompletedPayload struct {
	OrderID     int64              `json:"order_id"`
	BuyerID     int64              `json:"buyer_id"`
	Items       []OrderItemPayload `json:"items"`
	TotalAmount int64              `json:"total_amount"`
}

type OrderCanceledPayload struct {
	OrderID int64 `json:"order_id"`
	BuyerID int64 `json:"buyer_id"`
}
