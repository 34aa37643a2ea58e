package market

import "time"

// Session is the resolved identity a handler passes into services.
// No ambient auth state anywhere below the HTTP edge.
type Session struct {
	UserID   int64
	IsSeller bool
}

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsSeller     bool
	CreatedAt    time.Time
}

type Product struct {
	ID          int64     `json:"id"` // sequence-allocated, immutable
	SellerID    int64     `json:"seller_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       int64     `json:"price"`    // whole currency units
	Quantity    int       `json:"quantity"` // mutated only inside a reservation transaction
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CartEntry is keyed by (UserID, ProductID); one row per pair.
type CartEntry struct {
	UserID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
}

// LineItem is a cart entry merged with live product display fields.
// Merged is false when the product no longer exists (degraded item).
type LineItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
	Price     int64  `json:"price,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	Merged    bool   `json:"merged"`
}

// Demand is one (product, quantity) pair submitted to the reservation engine.
type Demand struct {
	ProductID int64
	Quantity  int
}

// ReservedItem is the snapshot the reservation engine returns per demand.
// SellerID re-attributes the buyer's cart line to the product's owner.
type ReservedItem struct {
	ProductID int64
	SellerID  int64
	Name      string
	Price     int64
	ImageURL  string
	Quantity  int
}

type Order struct {
	ID          int64       `json:"id"`
	ExternalID  string      `json:"external_id,omitempty"` // client checkout token, unique when set
	BuyerID     int64       `json:"buyer_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount int64       `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	PaymentRef  string      `json:"payment_ref,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderItem is an immutable snapshot frozen at commit time. Price and name
// never change even if the product is later edited.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	SellerID  int64  `json:"seller_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"image_url"`
	Status    int    `json:"status"` // 0 = active
}
