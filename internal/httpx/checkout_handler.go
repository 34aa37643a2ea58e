package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/redisx"
)

// --- cart ---

func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	items, err := h.Reader.LoadCart(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) cartCount(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	key := fmt.Sprintf(redisx.KeyCartCount, session.UserID)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			writeJSON(w, http.StatusOK, map[string]int{"count": n})
			return
		}
	}
	n, err := h.Cart.Count(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = h.Redis.Set(r.Context(), key, n, redisx.TTLCartCount).Err()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.Cart.Add(r.Context(), session.UserID, req.ProductID, req.Quantity)
	if errors.Is(err, market.ErrDuplicateCart) {
		writeError(w, http.StatusConflict, "already in cart")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.invalidateCartCount(r, session.UserID)
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) updateCartQuantity(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	productID, err := urlID(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	err = h.Cart.UpdateQuantity(r.Context(), session.UserID, productID, req.Quantity)
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cart entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	productID, err := urlID(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	err = h.Cart.Remove(r.Context(), session.UserID, productID)
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cart entry not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.invalidateCartCount(r, session.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidateCartCount(r *http.Request, userID int64) {
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyCartCount, userID)).Err()
}

// --- checkout ---

type placeOrderReq struct {
	// ExternalID is a client token deduplicating checkout submissions;
	// replaying it returns the already-committed order id.
	ExternalID string            `json:"external_id"`
	Items      []market.LineItem `json:"items"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "no items selected")
		return
	}

	// Fast-path idempotency: a replayed submission must not re-reserve
	// stock or charge the gateway a second time. The fast path can miss
	// under concurrency; the unique external id on the order row is the
	// backstop that keeps replays from committing twice.
	var idemKey string
	if req.ExternalID != "" {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, req.ExternalID)
		if s, err := h.Redis.Get(r.Context(), idemKey).Result(); err == nil && s != "" {
			orderID, _ := strconv.ParseInt(s, 10, 64)
			writeJSON(w, http.StatusOK, map[string]any{"order_id": orderID, "idempotent": true})
			return
		}
	}

	order, err := h.Pipeline.PlaceOrder(r.Context(), session, req.ExternalID, req.Items)
	if err != nil {
		h.checkoutFailure(w, err)
		return
	}
	h.Metrics.CheckoutOutcomes.WithLabelValues("committed").Inc()

	if idemKey != "" {
		_ = h.Redis.Set(r.Context(), idemKey, order.ID, redisx.TTLIdempotency).Err()
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id":     order.ID,
		"total_amount": order.TotalAmount,
		"status":       order.Status,
	})
}

// checkoutFailure collapses pipeline errors into one user-facing alert;
// no structured error codes cross this boundary.
func (h *Handler) checkoutFailure(w http.ResponseWriter, err error) {
	var insufficient *market.InsufficientStockError
	var declined *market.PaymentDeclinedError
	switch {
	case errors.As(err, &insufficient):
		h.Metrics.CheckoutOutcomes.WithLabelValues("insufficient_stock").Inc()
		writeError(w, http.StatusConflict, insufficient.Error())
	case errors.Is(err, market.ErrNotFound):
		h.Metrics.CheckoutOutcomes.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &declined):
		h.Metrics.CheckoutOutcomes.WithLabelValues("payment_declined").Inc()
		writeError(w, http.StatusPaymentRequired, declined.Error())
	default:
		h.Metrics.CheckoutOutcomes.WithLabelValues("error").Inc()
		h.Log.Error("checkout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "checkout failed, please try again")
	}
}

// --- orders ---

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	orders, err := h.Orders.ListByBuyer(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) listSoldOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	if !session.IsSeller {
		writeError(w, http.StatusForbidden, "seller account required")
		return
	}
	orders, err := h.Orders.ListBySeller(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	order, err := h.Orders.Get(r.Context(), id)
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if order.BuyerID != session.UserID {
		writeError(w, http.StatusForbidden, "not your order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	id, err := urlID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	err = h.Pipeline.CancelOrder(r.Context(), session, id)
	if errors.Is(err, market.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order not found or already canceled")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
