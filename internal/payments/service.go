package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// Service exposes buyer-facing payment operations.
type Service interface {
	Retry(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method enums.PaymentMethod) (*RetryResult, error)
}

// RetryResult pairs the order with the new attempt.
type RetryResult struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Payment     *Result   `json:"payment"`
}

type service struct {
	orders    orders.Repository
	tx        txRunner
	processor *Processor
}

func NewService(orderRepo orders.Repository, tx txRunner, processor *Processor) (Service, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if processor == nil {
		return nil, fmt.Errorf("payment processor required")
	}
	return &service{orders: orderRepo, tx: tx, processor: processor}, nil
}

// Retry starts a fresh attempt for an unpaid order. An empty method reuses
// the order's original payment method.
func (s *service) Retry(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method enums.PaymentMethod) (*RetryResult, error) {
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsBuyer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can pay for an order")
	}
	if method != "" {
		if _, err := s.processor.Resolve(method); err != nil {
			return nil, err
		}
	}

	var out *RetryResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.orders.WithTx(tx)
		order, err := orderRepo.LockByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.BuyerID != actor.AccountID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another buyer")
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot be paid")
		}
		if !order.PaymentStatus.AllowsRetry() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment status %s does not allow a new attempt", order.PaymentStatus)).
				WithDetails(map[string]any{"payment_status": order.PaymentStatus})
		}

		if method == "" {
			method = order.PaymentMethod
		}
		if method != order.PaymentMethod {
			if err := orderRepo.Update(ctx, order.ID, map[string]any{"payment_method": method}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "switch payment method")
			}
			order.PaymentMethod = method
		}

		result, err := s.processor.Process(ctx, tx, order, method)
		if err != nil {
			return err
		}
		out = &RetryResult{OrderID: order.ID, OrderNumber: order.OrderNumber, Payment: result}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
