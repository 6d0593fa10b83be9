package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/pkg/checkout"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// Inventory applies stock movements inside a caller-owned transaction.
type Inventory struct {
	repo Repository
}

func NewInventory(repo Repository) (*Inventory, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Inventory{repo: repo}, nil
}

// Reserve takes qty units of productID for buyerID. When the conditional
// decrement matches nothing the product is re-read to report why.
func (i *Inventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, buyerID uuid.UUID, now time.Time) error {
	repo := i.repo.WithTx(tx)
	ok, err := repo.DecrementStock(ctx, productID, qty, buyerID, now)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	if ok {
		return nil
	}

	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return fmt.Errorf("reload product %s: %w", productID, err)
	}
	if err := checkout.ValidateAvailability(*product, qty); err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
}

// Release returns qty units to productID. Products deleted since the sale are skipped.
func (i *Inventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if _, err := i.repo.WithTx(tx).RestoreStock(ctx, productID, qty); err != nil {
		return fmt.Errorf("restore stock %s: %w", productID, err)
	}
	return nil
}
