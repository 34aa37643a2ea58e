package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/minjae-dev/gomarket/internal/kafka"
	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/payment"
	"github.com/minjae-dev/gomarket/internal/sequence"
)

// Reserver is the stock reservation engine boundary.
type Reserver interface {
	Reserve(ctx context.Context, demands []market.Demand) ([]market.ReservedItem, error)
	Release(ctx context.Context, items []market.Demand) error
}

// OrderStore persists committed orders. Insert reports existed=true when an
// order with the same external id already exists, in which case o holds the
// stored order instead of the attempted one.
type OrderStore interface {
	Insert(ctx context.Context, o *market.Order) (existed bool, err error)
	Get(ctx context.Context, orderID int64) (*market.Order, error)
	MarkCanceled(ctx context.Context, orderID, buyerID int64) error
}

// CartClearer removes purchased entries once the order is durable.
type CartClearer interface {
	RemoveMany(ctx context.Context, userID int64, productIDs []int64) error
}

// Publisher matches the kafka producer: fire-and-forget, one topic each.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Pipeline drives one checkout attempt:
// reserve stock -> charge -> persist order, or release on decline.
// There is no lock held between reservation and payment; the committed
// decrement is the only thing preventing oversell in that window, and the
// single release on decline is the only compensation.
type Pipeline struct {
	Stock        Reserver
	Gateway      payment.Gateway
	Orders       OrderStore
	Seq          sequence.Allocator
	Cart         CartClearer
	CompletedPub Publisher
	CanceledPub  Publisher
	Service      string
	Log          *zap.Logger
}

// PlaceOrder runs the commit pipeline for the given cart line items.
// Reservation errors come back verbatim with no side effects. A declined
// payment releases the reservation exactly once and returns
// *market.PaymentDeclinedError. On approval the order snapshot is built
// from the reservation result, never from live cart or product state.
// externalID is the client's checkout token; when two submissions carry the
// same one, the order store's uniqueness check lets only the first commit
// and the loser's reservation is released.
func (p *Pipeline) PlaceOrder(ctx context.Context, session market.Session, externalID string, items []market.LineItem) (*market.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("checkout: empty cart selection")
	}

	demands := make([]market.Demand, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("checkout: invalid quantity for product %d", it.ProductID)
		}
		if seen[it.ProductID] {
			return nil, fmt.Errorf("checkout: product %d listed more than once", it.ProductID)
		}
		seen[it.ProductID] = true
		demands = append(demands, market.Demand{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	state := p.advance(market.StateStart, market.StateStockReserving, 0)
	reserved, err := p.Stock.Reserve(ctx, demands)
	if err != nil {
		p.advance(state, market.StateStockReserveFailed, 0)
		return nil, err
	}
	state = p.advance(state, market.StateStockReserved, 0)

	var total int64
	for _, it := range reserved {
		total += it.Price * int64(it.Quantity)
	}

	state = p.advance(state, market.StatePaymentPending, 0)
	result, chargeErr := p.Gateway.Charge(ctx, payment.ChargeRequest{
		MerchantUID: "mid_" + uuid.NewString(),
		OrderName:   fmt.Sprintf("order for user %d (%d items)", session.UserID, len(items)),
		Amount:      total,
		BuyerID:     session.UserID,
	})
	if chargeErr != nil || !result.Approved {
		state = p.advance(state, market.StatePaymentDeclined, 0)
		state = p.advance(state, market.StateStockReleasing, 0)
		// Best-effort, single-shot compensation. A failed release is only
		// logged; calling it again would double-refund stock.
		if relErr := p.Stock.Release(ctx, demands); relErr != nil {
			p.Log.Error("stock release failed after declined payment",
				zap.Int64("buyer_id", session.UserID), zap.Error(relErr))
		}
		p.advance(state, market.StateStockReleased, 0)
		if chargeErr != nil {
			return nil, fmt.Errorf("checkout: payment: %w", chargeErr)
		}
		return nil, &market.PaymentDeclinedError{Reason: result.Reason}
	}
	state = p.advance(state, market.StatePaymentApproved, 0)

	state = p.advance(state, market.StateOrderPersisting, 0)
	orderID, err := p.Seq.Next(ctx, sequence.OrderCounter)
	if err != nil {
		p.Log.Error("order id allocation failed after approved payment",
			zap.Int64("buyer_id", session.UserID), zap.Error(err))
		return nil, fmt.Errorf("checkout: allocate order id: %w", err)
	}

	order := &market.Order{
		ID:          orderID,
		ExternalID:  externalID,
		BuyerID:     session.UserID,
		TotalAmount: total,
		Status:      market.OrderPaymentCompleted,
		PaymentRef:  result.PaymentRef,
		CreatedAt:   time.Now().UTC(),
	}
	for _, it := range reserved {
		order.Items = append(order.Items, market.OrderItem{
			ProductID: it.ProductID,
			SellerID:  it.SellerID, // re-attributed from the product, not the buyer
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}
	existed, err := p.Orders.Insert(ctx, order)
	if err != nil {
		p.Log.Error("order persist failed after approved payment",
			zap.Int64("order_id", orderID), zap.Error(err))
		return nil, fmt.Errorf("checkout: persist order: %w", err)
	}
	if existed {
		// A concurrent submission with the same external id committed first.
		// Its order stands; this attempt returns the stock it took.
		p.Log.Warn("duplicate checkout submission, returning committed order",
			zap.String("external_id", externalID), zap.Int64("order_id", order.ID))
		if relErr := p.Stock.Release(ctx, demands); relErr != nil {
			p.Log.Error("stock release failed after duplicate submission",
				zap.Int64("buyer_id", session.UserID), zap.Error(relErr))
		}
		return order, nil
	}
	p.advance(state, market.StateOrderCommitted, orderID)

	// Post-commit housekeeping: cleared cart and published event are both
	// best-effort, the order itself is already durable.
	productIDs := make([]int64, 0, len(order.Items))
	for _, it := range order.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	if err := p.Cart.RemoveMany(ctx, session.UserID, productIDs); err != nil {
		p.Log.Warn("cart cleanup failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	p.publishCompleted(order)

	return order, nil
}

// CancelOrder transitions a committed order to canceled. It does not
// restock quantities or refund the payment.
func (p *Pipeline) CancelOrder(ctx context.Context, session market.Session, orderID int64) error {
	if err := p.Orders.MarkCanceled(ctx, orderID, session.UserID); err != nil {
		return err
	}
	p.publishCanceled(orderID, session.UserID)
	return nil
}

func (p *Pipeline) advance(from, to market.CheckoutState, orderID int64) market.CheckoutState {
	if !market.CanTransition(from, to) {
		p.Log.Error("illegal checkout transition",
			zap.String("from", string(from)), zap.String("to", string(to)))
		return to
	}
	fields := []zap.Field{zap.String("from", string(from)), zap.String("to", string(to))}
	if orderID != 0 {
		fields = append(fields, zap.Int64("order_id", orderID))
	}
	p.Log.Debug("checkout transition", fields...)
	return to
}

func (p *Pipeline) publishCompleted(o *market.Order) {
	if p.CompletedPub == nil {
		return
	}
	items := make([]market.OrderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, market.OrderItemPayload{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderCompleted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: fmt.Sprint(o.ID),
		Payload: kafkax.MustMarshal(market.OrderCompletedPayload{
			OrderID:     o.ID,
			BuyerID:     o.BuyerID,
			Items:       items,
			TotalAmount: o.TotalAmount,
		}),
	}
	p.CompletedPub.Publish(market.PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderCompleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (p *Pipeline) publishCanceled(orderID, buyerID int64) {
	if p.CanceledPub == nil {
		return
	}
	ev := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     market.EventOrderCanceled,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: fmt.Sprint(orderID),
		Payload: kafkax.MustMarshal(market.OrderCanceledPayload{
			OrderID: orderID,
			BuyerID: buyerID,
		}),
	}
	p.CanceledPub.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(market.EventOrderCanceled)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
