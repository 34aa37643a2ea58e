package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChargeRequest carries the amount and the order-correlation token handed
// to the external processor. No other idempotency key crosses the boundary.
type ChargeRequest struct {
	MerchantUID string `json:"merchant_uid"` // order-correlation token
	OrderName   string `json:"name"`
	Amount      int64  `json:"amount"`
	BuyerID     int64  `json:"buyer_id"`
}

type ChargeResult struct {
	Approved   bool
	Reason     string
	PaymentRef string
}

// Gateway is the external payment boundary. Implementations must be invoked
// only after stock reservation has committed; reservation is the gate that
// prevents overselling, not the payment verdict.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// HTTPGateway talks to an iamport-style processor: a single request/response
// call returning {success, error_msg}. The declared timeout bounds the call;
// the processor itself offers no such guarantee.
type HTTPGateway struct {
	URL        string
	MerchantID string
	Timeout    time.Duration
	Client     *http.Client
}

type gatewayResponse struct {
	Success    bool   `json:"success"`
	ErrorMsg   string `json:"error_msg"`
	PaymentRef string `json:"payment_ref"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()

	body, err := json.Marshal(struct {
		MerchantID string `json:"merchant_id"`
		ChargeRequest
	}{MerchantID: g.MerchantID, ChargeRequest: req})
	if err != nil {
		return ChargeResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return ChargeResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client().Do(httpReq)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ChargeResult{}, fmt.Errorf("payment gateway: unexpected status %d", resp.StatusCode)
	}

	var gr gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return ChargeResult{}, fmt.Errorf("payment gateway: decode: %w", err)
	}
	return ChargeResult{Approved: gr.Success, Reason: gr.ErrorMsg, PaymentRef: gr.PaymentRef}, nil
}

func (g *HTTPGateway) timeout() time.Duration {
	if g.Timeout > 0 {
		return g.Timeout
	}
	return 30 * time.Second
}

func (g *HTTPGateway) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}
