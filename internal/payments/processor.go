package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	dbtypes "github.com/refurbmart/refurbmart-backend/pkg/db/types"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	"github.com/refurbmart/refurbmart-backend/pkg/metrics"
)

const paymentFailedMessage = "Payment could not be processed. You can retry from your order."

// Result summarizes one payment attempt for API responses.
type Result struct {
	TransactionID string                  `json:"transaction_id"`
	Gateway       enums.PaymentGateway    `json:"gateway"`
	Status        enums.TransactionStatus `json:"status"`
	PaymentStatus enums.PaymentStatus     `json:"payment_status"`
	RedirectURL   string                  `json:"redirect_url,omitempty"`
	Message       string                  `json:"message,omitempty"`
}

// ProcessorConfig holds the tunables for gateway calls.
type ProcessorConfig struct {
	Timeout  time.Duration
	Currency string
}

// Processor records a payment attempt and drives the gateway inside the
// caller's transaction.
type Processor struct {
	registry *Registry
	repo     Repository
	orders   orders.Repository
	cfg      ProcessorConfig
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
	clock    func() time.Time
	newID    func() string
}

func NewProcessor(registry *Registry, repo Repository, orderRepo orders.Repository, cfg ProcessorConfig, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Processor, error) {
	if registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	return &Processor{
		registry: registry,
		repo:     repo,
		orders:   orderRepo,
		cfg:      cfg,
		logg:     logg,
		metrics:  m,
		clock:    time.Now,
		newID:    func() string { return "TXN-" + uuid.NewString() },
	}, nil
}

// Resolve exposes gateway lookup so callers can reject unknown methods
// before doing any work.
func (p *Processor) Resolve(method enums.PaymentMethod) (Gateway, error) {
	return p.registry.Resolve(method)
}

// Process appends a pending transaction for the order, calls the gateway and
// applies the outcome to both rows. Gateway failures are recorded, not
// returned; only database errors abort the caller's transaction. order is
// updated in place.
func (p *Processor) Process(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*Result, error) {
	gw, err := p.registry.Resolve(method)
	if err != nil {
		return nil, err
	}
	repo := p.repo.WithTx(tx)
	orderRepo := p.orders.WithTx(tx)

	txn := &models.PaymentTransaction{
		OrderID:       order.ID,
		Gateway:       gw.Name(),
		PaymentMethod: method,
		TransactionID: p.newID(),
		Status:        enums.TransactionStatusPending,
		AmountCents:   order.FinalAmountCents,
		Currency:      p.cfg.Currency,
	}
	if err := repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payment transaction")
	}

	gctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	res, gwErr := gw.Initiate(gctx, initiateRequest(txn, order, method))
	cancel()

	logCtx := p.logg.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"transaction_id": txn.TransactionID,
		"gateway":        string(gw.Name()),
	})

	if gwErr != nil {
		p.logg.Warn(logCtx, "payment.initiate_error: "+gwErr.Error())
		p.metrics.IncPayment(string(gw.Name()), "error")
		return p.fail(ctx, repo, orderRepo, txn, order, nil, map[string]any{"error": gwErr.Error()})
	}
	p.metrics.IncPayment(string(gw.Name()), string(res.Outcome))

	txnUpdates := map[string]any{}
	if res.TransactionID != "" && res.TransactionID != txn.TransactionID {
		txnUpdates["transaction_id"] = res.TransactionID
		txn.TransactionID = res.TransactionID
	}
	if res.Raw != nil {
		txn.GatewayResponse = dbtypes.JSONMap(res.Raw)
		txnUpdates["gateway_response"] = txn.GatewayResponse
	}

	switch res.Outcome {
	case OutcomeCompleted:
		now := p.clock().UTC()
		reference := res.Reference
		if reference == "" {
			reference = txn.TransactionID
		}
		txnUpdates["status"] = enums.TransactionStatusCompleted
		txnUpdates["gateway_reference"] = reference
		txnUpdates["completed_at"] = now
		if err := repo.Update(ctx, txn.ID, txnUpdates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete payment transaction")
		}
		if err := orderRepo.Update(ctx, order.ID, map[string]any{
			"payment_status":    enums.PaymentStatusPaid,
			"payment_reference": reference,
			"paid_at":           now,
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}
		order.PaymentStatus = enums.PaymentStatusPaid
		order.PaymentReference = &reference
		order.PaidAt = &now
		p.logg.Info(logCtx, "payment.completed")
		return &Result{
			TransactionID: txn.TransactionID,
			Gateway:       gw.Name(),
			Status:        enums.TransactionStatusCompleted,
			PaymentStatus: order.PaymentStatus,
			Message:       res.Message,
		}, nil

	case OutcomePending:
		if res.SessionKey != "" {
			txnUpdates["session_key"] = res.SessionKey
		}
		if len(txnUpdates) > 0 {
			if err := repo.Update(ctx, txn.ID, txnUpdates); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record payment session")
			}
		}
		if order.PaymentStatus != enums.PaymentStatusPending {
			if err := orderRepo.Update(ctx, order.ID, map[string]any{"payment_status": enums.PaymentStatusPending}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reset order payment status")
			}
			order.PaymentStatus = enums.PaymentStatusPending
		}
		p.logg.Info(logCtx, "payment.redirect_issued")
		return &Result{
			TransactionID: txn.TransactionID,
			Gateway:       gw.Name(),
			Status:        enums.TransactionStatusPending,
			PaymentStatus: order.PaymentStatus,
			RedirectURL:   res.RedirectURL,
			Message:       res.Message,
		}, nil

	default:
		p.logg.Warn(logCtx, "payment.declined")
		return p.fail(ctx, repo, orderRepo, txn, order, txnUpdates, map[string]any{"failure_reason": res.Message})
	}
}

func (p *Processor) fail(ctx context.Context, repo Repository, orderRepo orders.Repository, txn *models.PaymentTransaction, order *models.Order, pending map[string]any, detail map[string]any) (*Result, error) {
	now := p.clock().UTC()
	txn.GatewayResponse = txn.GatewayResponse.Merge(detail)
	updates := map[string]any{}
	for k, v := range pending {
		updates[k] = v
	}
	updates["status"] = enums.TransactionStatusFailed
	updates["failed_at"] = now
	updates["gateway_response"] = txn.GatewayResponse
	if err := repo.Update(ctx, txn.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fail payment transaction")
	}
	if err := orderRepo.Update(ctx, order.ID, map[string]any{"payment_status": enums.PaymentStatusFailed}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order payment failed")
	}
	order.PaymentStatus = enums.PaymentStatusFailed
	return &Result{
		TransactionID: txn.TransactionID,
		Gateway:       txn.Gateway,
		Status:        enums.TransactionStatusFailed,
		PaymentStatus: enums.PaymentStatusFailed,
		Message:       paymentFailedMessage,
	}, nil
}

func initiateRequest(txn *models.PaymentTransaction, order *models.Order, method enums.PaymentMethod) InitiateRequest {
	name := order.OrderNumber
	if len(order.Items) > 0 {
		name = order.Items[0].ProductTitle
		if len(order.Items) > 1 {
			name = fmt.Sprintf("%s and %d more", name, len(order.Items)-1)
		}
	}
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return InitiateRequest{
		TransactionID: txn.TransactionID,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Method:        method,
		AmountCents:   txn.AmountCents,
		Currency:      txn.Currency,
		ProductName:   name,
		NumItems:      count,
		Customer: Customer{
			Name:       order.ShippingName,
			Phone:      order.ShippingPhone,
			Address:    order.ShippingAddress,
			City:       order.ShippingCity,
			PostalCode: order.ShippingPostalCode,
			Country:    order.ShippingCountry,
		},
	}
}
