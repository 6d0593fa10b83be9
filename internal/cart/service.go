package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/internal/catalog"
	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/checkout"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the buyer cart operations.
type Service interface {
	Add(ctx context.Context, actor auth.Actor, productID uuid.UUID, qty int) (*Summary, error)
	Update(ctx context.Context, actor auth.Actor, itemID uuid.UUID, qty int) (*Summary, error)
	Remove(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*Summary, error)
	Clear(ctx context.Context, actor auth.Actor) error
	Summarize(ctx context.Context, actor auth.Actor) (*Summary, error)
}

// Line is one cart row priced at the product's current price.
type Line struct {
	ItemID         uuid.UUID           `json:"item_id"`
	ProductID      uuid.UUID           `json:"product_id"`
	SellerID       uuid.UUID           `json:"seller_id"`
	Title          string              `json:"title"`
	Condition      string              `json:"condition"`
	ImageURL       *string             `json:"image_url,omitempty"`
	Status         enums.ProductStatus `json:"status"`
	Available      int                 `json:"available"`
	Quantity       int                 `json:"quantity"`
	UnitPriceCents int64               `json:"unit_price_cents"`
	LineTotalCents int64               `json:"line_total_cents"`
}

// Summary totals the cart. Prices are live, so the total can drift from
// what checkout charges until checkout re-validates.
type Summary struct {
	Items            []Line `json:"items"`
	ItemCount        int    `json:"item_count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

type service struct {
	repo     Repository
	products catalog.Repository
	tx       txRunner
}

// NewService builds the cart service with the required dependencies.
func NewService(repo Repository, products catalog.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, products: products, tx: tx}, nil
}

func (s *service) Add(ctx context.Context, actor auth.Actor, productID uuid.UUID, qty int) (*Summary, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		product, err := s.products.WithTx(tx).FindByID(ctx, productID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
		}

		existing := 0
		current, err := repo.FindByBuyerAndProduct(ctx, actor.AccountID, productID)
		switch {
		case err == nil:
			existing = current.Quantity
		case !db.IsNotFound(err):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		if err := checkout.ValidateAvailability(*product, existing+qty); err != nil {
			return err
		}

		if err := repo.Upsert(ctx, &models.CartItem{
			BuyerID:   actor.AccountID,
			ProductID: productID,
			Quantity:  qty,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, actor)
}

// Update sets an absolute quantity; zero removes the line.
func (s *service) Update(ctx context.Context, actor auth.Actor, itemID uuid.UUID, qty int) (*Summary, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty == 0 {
		return s.Remove(ctx, actor, itemID)
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, actor.AccountID, itemID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		if item.Product == nil {
			return pkgerrors.New(pkgerrors.CodeProductUnavailable, "product no longer exists")
		}
		if err := checkout.ValidateAvailability(*item.Product, qty); err != nil {
			return err
		}
		if err := repo.UpdateQuantity(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, actor)
}

func (s *service) Remove(ctx context.Context, actor auth.Actor, itemID uuid.UUID) (*Summary, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	deleted, err := s.repo.Delete(ctx, actor.AccountID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	if deleted == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Summarize(ctx, actor)
}

func (s *service) Clear(ctx context.Context, actor auth.Actor) error {
	if err := requireBuyer(actor); err != nil {
		return err
	}
	if _, err := s.repo.DeleteByBuyer(ctx, actor.AccountID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) Summarize(ctx context.Context, actor auth.Actor) (*Summary, error) {
	if err := requireBuyer(actor); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByBuyer(ctx, actor.AccountID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	return Summarize(items), nil
}

// Summarize prices items at their preloaded product rows. Lines whose
// product has been deleted are skipped.
func Summarize(items []models.CartItem) *Summary {
	summary := &Summary{Items: make([]Line, 0, len(items))}
	for _, item := range items {
		if item.Product == nil {
			continue
		}
		p := item.Product
		line := Line{
			ItemID:         item.ID,
			ProductID:      p.ID,
			SellerID:       p.SellerID,
			Title:          p.Title,
			Condition:      p.Condition,
			ImageURL:       p.ImageURL,
			Status:         p.Status,
			Available:      p.QuantityAvailable,
			Quantity:       item.Quantity,
			UnitPriceCents: p.PriceCents,
			LineTotalCents: p.PriceCents * int64(item.Quantity),
		}
		summary.Items = append(summary.Items, line)
		summary.ItemCount += item.Quantity
		summary.TotalAmountCents += line.LineTotalCents
	}
	return summary
}

func requireBuyer(actor auth.Actor) error {
	if actor.AccountID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsBuyer() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only buyers have a cart")
	}
	return nil
}
