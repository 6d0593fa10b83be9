package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	"github.com/refurbmart/refurbmart-backend/pkg/metrics"
)

// CallbackKind is the gateway endpoint a notification arrived on.
type CallbackKind string

const (
	CallbackSuccess CallbackKind = "success"
	CallbackFail    CallbackKind = "fail"
	CallbackCancel  CallbackKind = "cancel"
	CallbackIPN     CallbackKind = "ipn"
)

// ParseCallbackKind maps a route segment onto a CallbackKind.
func ParseCallbackKind(value string) (CallbackKind, bool) {
	switch kind := CallbackKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case CallbackSuccess, CallbackFail, CallbackCancel, CallbackIPN:
		return kind, true
	default:
		return "", false
	}
}

// Callback is a browser redirect or IPN post from the gateway.
type Callback struct {
	Kind          CallbackKind
	TransactionID string
	ValID         string
	Amount        string
	Currency      string
	Status        string
	Payload       map[string]any
}

// CallbackResult is the settled state after handling a callback.
type CallbackResult struct {
	OrderID          uuid.UUID               `json:"order_id"`
	TransactionID    string                  `json:"transaction_id"`
	Status           enums.TransactionStatus `json:"status"`
	PaymentStatus    enums.PaymentStatus     `json:"payment_status"`
	AlreadyProcessed bool                    `json:"already_processed"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CallbackService settles redirect payments. Every callback is idempotent on
// the transaction id: once a transaction is completed or failed later
// callbacks only report the stored state.
type CallbackService struct {
	repo     Repository
	orders   orders.Repository
	tx       txRunner
	verifier Verifier
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	clock    func() time.Time
}

// NewCallbackService wires the callback handler. verifier may be nil when no
// redirect gateway is configured; callbacks then fail with a dependency error
// and leave the transaction untouched.
func NewCallbackService(repo Repository, orderRepo orders.Repository, tx txRunner, verifier Verifier, logg *logger.Logger, m *metrics.CheckoutMetrics) (*CallbackService, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &CallbackService{
		repo:     repo,
		orders:   orderRepo,
		tx:       tx,
		verifier: verifier,
		logg:     logg,
		metrics:  m,
		clock:    time.Now,
	}, nil
}

func (s *CallbackService) Handle(ctx context.Context, cb Callback) (*CallbackResult, error) {
	transactionID := strings.TrimSpace(cb.TransactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]any{"tran_id": "tran_id is required"})
	}

	var result *CallbackResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		txn, err := repo.LockByTransactionID(ctx, transactionID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payment transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment transaction")
		}
		order, err := orderRepo.FindByID(ctx, txn.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}

		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":       order.ID.String(),
			"transaction_id": txn.TransactionID,
			"callback_kind":  string(cb.Kind),
		})

		if txn.Status.IsTerminal() {
			s.logg.Info(logCtx, "payment.callback.duplicate")
			result = &CallbackResult{
				OrderID:          order.ID,
				TransactionID:    txn.TransactionID,
				Status:           txn.Status,
				PaymentStatus:    order.PaymentStatus,
				AlreadyProcessed: true,
			}
			return nil
		}

		v, err := s.confirm(ctx, txn, cb)
		if err != nil {
			return err
		}
		switch {
		case v != nil && v.Valid:
			result, err = s.settle(ctx, repo, orderRepo, txn, order, cb, v)
		case v != nil && v.Failed:
			result, err = s.markFailed(ctx, repo, orderRepo, txn, order, cb, failureReason(cb.Kind, v.Status))
		default:
			result = &CallbackResult{
				OrderID:       order.ID,
				TransactionID: txn.TransactionID,
				Status:        txn.Status,
				PaymentStatus: order.PaymentStatus,
			}
		}
		if err != nil {
			return err
		}
		switch result.Status {
		case enums.TransactionStatusCompleted:
			s.logg.Info(logCtx, "payment.callback.completed")
		case enums.TransactionStatusFailed:
			s.logg.Warn(logCtx, "payment.callback.failed")
		default:
			s.logg.Info(logCtx, "payment.callback.unconfirmed")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncCallback(string(cb.Kind), "error")
		return nil, err
	}
	s.metrics.IncCallback(string(cb.Kind), string(result.Status))
	return result, nil
}

// confirm asks the gateway what happened to the attempt. Callback fields only
// choose the query; a callback the gateway does not back changes nothing.
func (s *CallbackService) confirm(ctx context.Context, txn *models.PaymentTransaction, cb Callback) (*Validation, error) {
	if s.verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment verification unavailable")
	}
	if valID := strings.TrimSpace(cb.ValID); valID != "" && claimsPaid(cb) {
		v, err := s.verifier.Validate(ctx, valID)
		if err != nil {
			return nil, dependencyError(err, "validate payment")
		}
		if v != nil && v.Valid && v.TransactionID == txn.TransactionID {
			return v, nil
		}
	}
	v, err := s.verifier.Lookup(ctx, txn.TransactionID)
	if err != nil {
		return nil, dependencyError(err, "query payment status")
	}
	if v == nil || v.TransactionID != txn.TransactionID {
		return nil, nil
	}
	return v, nil
}

// settle checks a gateway-confirmed payment against the stored attempt
// before crediting the order.
func (s *CallbackService) settle(ctx context.Context, repo Repository, orderRepo orders.Repository, txn *models.PaymentTransaction, order *models.Order, cb Callback, v *Validation) (*CallbackResult, error) {
	switch {
	case !strings.EqualFold(v.Currency, txn.Currency):
		return s.markFailed(ctx, repo, orderRepo, txn, order, cb,
			fmt.Sprintf("validated currency %q does not match transaction currency %q", v.Currency, txn.Currency))
	case v.AmountCents != order.FinalAmountCents:
		return s.markFailed(ctx, repo, orderRepo, txn, order, cb,
			fmt.Sprintf("validated amount %d does not match order amount %d", v.AmountCents, order.FinalAmountCents))
	}

	now := s.clock().UTC()
	reference := v.Reference
	if reference == "" {
		reference = txn.TransactionID
	}
	if err := repo.Update(ctx, txn.ID, map[string]any{
		"status":            enums.TransactionStatusCompleted,
		"completed_at":      now,
		"gateway_reference": reference,
		"gateway_response":  txn.GatewayResponse.Merge(map[string]any{"callback": cb.Payload, "validation": v.Raw}),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete payment transaction")
	}
	if err := orderRepo.Update(ctx, order.ID, map[string]any{
		"payment_status":    enums.PaymentStatusPaid,
		"payment_reference": reference,
		"paid_at":           now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
	}
	return &CallbackResult{
		OrderID:       order.ID,
		TransactionID: txn.TransactionID,
		Status:        enums.TransactionStatusCompleted,
		PaymentStatus: enums.PaymentStatusPaid,
	}, nil
}

// markFailed never downgrades an order that another attempt already paid.
func (s *CallbackService) markFailed(ctx context.Context, repo Repository, orderRepo orders.Repository, txn *models.PaymentTransaction, order *models.Order, cb Callback, reason string) (*CallbackResult, error) {
	if err := repo.Update(ctx, txn.ID, map[string]any{
		"status":           enums.TransactionStatusFailed,
		"failed_at":        s.clock().UTC(),
		"gateway_response": txn.GatewayResponse.Merge(map[string]any{"callback": cb.Payload, "failure_reason": reason}),
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail payment transaction")
	}
	paymentStatus := order.PaymentStatus
	if paymentStatus != enums.PaymentStatusPaid {
		paymentStatus = enums.PaymentStatusFailed
		if err := orderRepo.Update(ctx, order.ID, map[string]any{"payment_status": paymentStatus}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order payment failed")
		}
	}
	return &CallbackResult{
		OrderID:       order.ID,
		TransactionID: txn.TransactionID,
		Status:        enums.TransactionStatusFailed,
		PaymentStatus: paymentStatus,
	}, nil
}

func claimsPaid(cb Callback) bool {
	return cb.Kind == CallbackSuccess || (cb.Kind == CallbackIPN && gatewayReportsValid(cb.Status))
}

func failureReason(kind CallbackKind, status string) string {
	if kind == CallbackCancel {
		return "payment cancelled by customer"
	}
	return "gateway reported " + strings.ToLower(status)
}

func dependencyError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func gatewayReportsValid(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "VALID", "VALIDATED":
		return true
	default:
		return false
	}
}
