package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/sequence"
)

var (
	ErrNotSeller    = errors.New("catalog: only sellers can register products")
	ErrMissingField = errors.New("catalog: name, description and at least one image are required")
	ErrBadPrice     = errors.New("catalog: price must not be negative")
	ErrBadQuantity  = errors.New("catalog: quantity must not be negative")
)

type Store interface {
	Insert(ctx context.Context, p *market.Product) error
	UpdateDetails(ctx context.Context, p *market.Product) error
	Get(ctx context.Context, productID int64) (*market.Product, error)
}

type Service struct {
	Store Store
	Seq   sequence.Allocator
	Log   *zap.Logger
}

type RegisterInput struct {
	Name        string
	Description string
	Category    string
	Price       int64
	Quantity    int
	ImageURLs   []string
}

// Register creates a product owned by the session's seller, with an id from
// the product counter.
func (s *Service) Register(ctx context.Context, session market.Session, in RegisterInput) (*market.Product, error) {
	if !session.IsSeller {
		return nil, ErrNotSeller
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	id, err := s.Seq.Next(ctx, sequence.ProductCounter)
	if err != nil {
		return nil, fmt.Errorf("catalog: allocate product id: %w", err)
	}

	p := &market.Product{
		ID:          id,
		SellerID:    session.UserID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		ImageURLs:   in.ImageURLs,
	}
	if err := s.Store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("catalog: insert product: %w", err)
	}
	s.Log.Info("product registered",
		zap.Int64("product_id", id), zap.Int64("seller_id", session.UserID))
	return p, nil
}

// Update edits display fields of a product the session's seller owns.
func (s *Service) Update(ctx context.Context, session market.Session, productID int64, in RegisterInput) error {
	if !session.IsSeller {
		return ErrNotSeller
	}
	if err := validate(in); err != nil {
		return err
	}
	p := &market.Product{
		ID:          productID,
		SellerID:    session.UserID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		ImageURLs:   in.ImageURLs,
	}
	return s.Store.UpdateDetails(ctx, p)
}

func validate(in RegisterInput) error {
	if in.Name == "" || in.Description == "" || len(in.ImageURLs) == 0 {
		return ErrMissingField
	}
	if in.Price < 0 {
		return ErrBadPrice
	}
	if in.Quantity < 0 {
		return ErrBadQuantity
	}
	return nil
}
