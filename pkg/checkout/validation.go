// Package checkout holds the pure precondition checks shared by the cart
// and the checkout orchestrator.
package checkout

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// StockViolationDetail is returned to callers when a line cannot be filled.
type StockViolationDetail struct {
	ProductID    uuid.UUID           `json:"product_id"`
	ProductTitle string              `json:"product_title,omitempty"`
	Status       enums.ProductStatus `json:"status,omitempty"`
	Available    int                 `json:"available"`
	RequestedQty int                 `json:"requested_qty"`
}

// ValidateAvailability checks one line against the live product row.
// Status is checked before quantity.
func ValidateAvailability(p models.Product, requested int) error {
	detail := StockViolationDetail{
		ProductID:    p.ID,
		ProductTitle: p.Title,
		Status:       p.Status,
		Available:    p.QuantityAvailable,
		RequestedQty: requested,
	}
	if p.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeProductUnavailable, fmt.Sprintf("%q is not available for purchase", p.Title)).
			WithDetails(detail)
	}
	if requested <= 0 || requested > p.QuantityAvailable {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d of %q in stock", p.QuantityAvailable, p.Title)).
			WithDetails(detail)
	}
	return nil
}

// SingleSeller returns the one seller every product belongs to, or
// MULTI_SELLER_CHECKOUT listing the sellers found.
func SingleSeller(products []models.Product) (uuid.UUID, error) {
	if len(products) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	seller := products[0].SellerID
	sellers := []uuid.UUID{seller}
	for _, p := range products[1:] {
		if p.SellerID == seller {
			continue
		}
		known := false
		for _, s := range sellers {
			if s == p.SellerID {
				known = true
				break
			}
		}
		if !known {
			sellers = append(sellers, p.SellerID)
		}
	}
	if len(sellers) > 1 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeMultiSeller, fmt.Sprintf("cart spans %d sellers; check out one seller at a time", len(sellers))).
			WithDetails(map[string]any{"seller_ids": sellers})
	}
	return seller, nil
}
