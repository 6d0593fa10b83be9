package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	"github.com/refurbmart/refurbmart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryReleaser returns sold stock when an order is cancelled.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service defines order operations available to buyers, sellers and admins.
type Service interface {
	Detail(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor auth.Actor, params pagination.Params) (*pagination.Page[models.Order], error)
	UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input StatusInput) (*models.Order, error)
	Cancel(ctx context.Context, actor auth.Actor, orderID uuid.UUID, reason string) (*models.Order, error)
}

// StatusInput is a seller-driven fulfillment update.
type StatusInput struct {
	Status          enums.OrderStatus
	TrackingNumber  *string
	ShippingCarrier *string
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory InventoryReleaser
	logg      *logger.Logger
	clock     func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, inventory InventoryReleaser, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inventory,
		logg:      logg,
		clock:     time.Now,
	}, nil
}

func (s *service) Detail(ctx context.Context, actor auth.Actor, orderID uuid.UUID) (*models.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	order, err := s.repo.FindDetail(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "load order")
	}
	if !actor.IsAdmin() && !order.VisibleTo(actor.AccountID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not a party to this order")
	}
	return order, nil
}

// List shows buyers their purchases, sellers their sales and admins everything.
func (s *service) List(ctx context.Context, actor auth.Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var filter ListFilter
	switch {
	case actor.IsBuyer():
		filter.BuyerID = &actor.AccountID
	case actor.IsSeller():
		filter.SellerID = &actor.AccountID
	}

	rows, err := s.repo.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	page := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

// UpdateStatus moves an order forward. Only the order's seller may call it
// and cancellation goes through Cancel instead.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, orderID uuid.UUID, input StatusInput) (*models.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers can update order status")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]any{"status": "must be one of confirmed, processing, shipped, delivered"})
	}
	if input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sellers cannot cancel orders through a status update")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if order.SellerID != actor.AccountID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another seller")
		}
		if !order.Status.CanAdvanceTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status)).
				WithDetails(map[string]any{"current_status": order.Status, "requested_status": input.Status})
		}

		now := s.clock().UTC()
		updates := map[string]any{"status": input.Status}
		switch input.Status {
		case enums.OrderStatusConfirmed:
			updates["confirmed_at"] = now
		case enums.OrderStatusShipped:
			updates["shipped_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		}
		if v := trimmed(input.TrackingNumber); v != nil {
			updates["tracking_number"] = *v
		}
		if v := trimmed(input.ShippingCarrier); v != nil {
			updates["shipping_carrier"] = *v
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "from": order.Status, "to": input.Status})
		s.logg.Info(logCtx, "order.status_updated")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindDetail(ctx, orderID)
}

// Cancel lets the buyer cancel while the order is pending or confirmed.
// Stock for every item is restored in the same transaction.
func (s *service) Cancel(ctx context.Context, actor auth.Actor, orderID uuid.UUID, reason string) (*models.Order, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsBuyer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can cancel an order")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"reason": "reason is required"})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			return notFoundOr(err, "load order")
		}
		if order.BuyerID != actor.AccountID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
		}
		if !order.Status.CanBeCancelled() {
			return pkgerrors.New(pkgerrors.CodeOrderNotCancellable, fmt.Sprintf("order in status %s can no longer be cancelled", order.Status)).
				WithDetails(map[string]any{"status": order.Status})
		}

		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := s.inventory.Release(ctx, tx, *item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore stock")
			}
		}

		if err := repo.Update(ctx, order.ID, map[string]any{
			"status":              enums.OrderStatusCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        s.clock().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
		}

		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order.cancelled")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindDetail(ctx, orderID)
}

func requireActor(actor auth.Actor) error {
	if !actor.Valid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func notFoundOr(err error, action string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
