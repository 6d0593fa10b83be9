package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/refurbmart/refurbmart-backend/internal/cart"
	"github.com/refurbmart/refurbmart-backend/internal/catalog"
	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/internal/payments"
	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	pricing "github.com/refurbmart/refurbmart-backend/pkg/checkout"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	"github.com/refurbmart/refurbmart-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int, buyerID uuid.UUID, now time.Time) error
}

type paymentProcessor interface {
	Resolve(method enums.PaymentMethod) (payments.Gateway, error)
	Process(ctx context.Context, tx *gorm.DB, order *models.Order, method enums.PaymentMethod) (*payments.Result, error)
}

// Service turns a buyer's selection into a persisted order.
type Service interface {
	Checkout(ctx context.Context, actor auth.Actor, input Input) (*Result, error)
}

// Shipping is the delivery contact captured on the order.
type Shipping struct {
	Name       string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// Input selects either one product directly or the whole cart.
type Input struct {
	ProductID     *uuid.UUID
	Quantity      int
	UseCart       bool
	Shipping      Shipping
	PaymentMethod enums.PaymentMethod
	Notes         *string
}

// Result is the committed order and what happened to its first payment attempt.
type Result struct {
	Order   *models.Order
	Payment *payments.Result
}

// Config carries the pricing and delivery settings.
type Config struct {
	Policy            pricing.Policy
	DeliveryLeadTime  time.Duration
	OrderNumberPrefix string
}

// Deps groups the collaborators checkout orchestrates.
type Deps struct {
	Tx        txRunner
	Products  catalog.Repository
	Cart      cart.Repository
	Orders    orders.Repository
	Inventory stockReserver
	Payments  paymentProcessor
	Logger    *logger.Logger
	Metrics   *metrics.CheckoutMetrics
}

type service struct {
	deps    Deps
	cfg     Config
	numbers func() string
	clock   func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(deps Deps, cfg Config) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product repository required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory required")
	case deps.Payments == nil:
		return nil, fmt.Errorf("payment processor required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if cfg.DeliveryLeadTime <= 0 {
		cfg.DeliveryLeadTime = 7 * 24 * time.Hour
	}
	return &service{
		deps:    deps,
		cfg:     cfg,
		numbers: orders.NewNumberGenerator(cfg.OrderNumberPrefix).Next,
		clock:   time.Now,
	}, nil
}

type selection struct {
	product  models.Product
	quantity int
}

// Checkout runs the whole purchase in one transaction: resolve and lock the
// products, price, create the order and snapshots, take stock, clear the
// cart and start the payment. Any failure before the payment step rolls
// everything back; a declined payment is recorded and the order is kept.
func (s *service) Checkout(ctx context.Context, actor auth.Actor, input Input) (*Result, error) {
	start := s.clock()
	result, err := s.checkout(ctx, actor, input)

	outcome := "completed"
	if err != nil {
		outcome = string(pkgerrors.As(err).Code())
	} else if result.Payment != nil && result.Payment.Status == enums.TransactionStatusFailed {
		outcome = "payment_failed"
	}
	s.deps.Metrics.ObserveCheckout(outcome, s.clock().Sub(start))
	return result, err
}

func (s *service) checkout(ctx context.Context, actor auth.Actor, input Input) (*Result, error) {
	if !actor.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.IsBuyer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only buyers can place orders")
	}
	if err := validateInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.deps.Payments.Resolve(input.PaymentMethod); err != nil {
		return nil, err
	}

	ctx = s.deps.Logger.WithAccountID(ctx, actor.AccountID.String())
	var result *Result
	err := s.deps.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.clock().UTC()

		selections, err := s.resolve(ctx, tx, actor.AccountID, input)
		if err != nil {
			return err
		}

		lines := make([]pricing.Line, len(selections))
		for i, sel := range selections {
			lines[i] = pricing.Line{UnitPriceCents: sel.product.PriceCents, Quantity: sel.quantity}
		}
		totals := s.cfg.Policy.Price(lines)

		estimated := now.Add(s.cfg.DeliveryLeadTime)
		order := &models.Order{
			BuyerID:               actor.AccountID,
			SellerID:              selections[0].product.SellerID,
			SubtotalCents:         totals.SubtotalCents,
			ShippingCents:         totals.ShippingCents,
			TaxCents:              totals.TaxCents,
			DiscountCents:         totals.DiscountCents,
			FinalAmountCents:      totals.FinalCents,
			Status:                enums.OrderStatusPending,
			PaymentStatus:         enums.PaymentStatusPending,
			PaymentMethod:         input.PaymentMethod,
			ShippingName:          input.Shipping.Name,
			ShippingPhone:         input.Shipping.Phone,
			ShippingAddress:       input.Shipping.Address,
			ShippingCity:          input.Shipping.City,
			ShippingPostalCode:    input.Shipping.PostalCode,
			ShippingCountry:       input.Shipping.Country,
			Notes:                 input.Notes,
			EstimatedDeliveryDate: &estimated,
		}
		ordersRepo := s.deps.Orders.WithTx(tx)
		if err := ordersRepo.CreateWithUniqueNumber(ctx, order, s.numbers); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "create order")
		}

		items := make([]models.OrderItem, len(selections))
		for i, sel := range selections {
			items[i] = models.SnapshotOrderItem(order.ID, sel.product, sel.quantity)
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "create order items")
		}
		order.Items = items

		for _, sel := range selections {
			if err := s.deps.Inventory.Reserve(ctx, tx, sel.product.ID, sel.quantity, actor.AccountID, now); err != nil {
				return err
			}
		}

		if input.UseCart {
			if _, err := s.deps.Cart.WithTx(tx).DeleteByBuyer(ctx, actor.AccountID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "clear cart")
			}
		}

		payment, err := s.deps.Payments.Process(ctx, tx, order, input.PaymentMethod)
		if err != nil {
			if pkgerrors.Is(err, pkgerrors.CodeInternal) {
				return pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "record payment")
			}
			return err
		}
		result = &Result{Order: order, Payment: payment}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			if typed.Code() == pkgerrors.CodeCheckoutFailed {
				s.deps.Logger.Error(ctx, "checkout.failed", err)
			}
			return nil, typed
		}
		s.deps.Logger.Error(ctx, "checkout.failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "checkout failed")
	}

	logCtx := s.deps.Logger.WithFields(ctx, map[string]any{
		"order_id":           result.Order.ID.String(),
		"order_number":       result.Order.OrderNumber,
		"final_amount_cents": result.Order.FinalAmountCents,
		"payment_method":     string(input.PaymentMethod),
		"payment_status":     string(result.Order.PaymentStatus),
	})
	if result.Payment.Status == enums.TransactionStatusFailed {
		s.deps.Logger.Warn(logCtx, "checkout.payment_failed")
	} else {
		s.deps.Logger.Info(logCtx, "checkout.completed")
	}
	return result, nil
}

// resolve locks the products being bought and checks every line before
// anything is written.
func (s *service) resolve(ctx context.Context, tx *gorm.DB, buyerID uuid.UUID, input Input) ([]selection, error) {
	products := s.deps.Products.WithTx(tx)

	if !input.UseCart {
		p, err := products.LockByID(ctx, *input.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "load product")
		}
		if err := pricing.ValidateAvailability(*p, input.Quantity); err != nil {
			return nil, err
		}
		return []selection{{product: *p, quantity: input.Quantity}}, nil
	}

	items, err := s.deps.Cart.WithTx(tx).ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "load cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	locked, err := products.LockByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCheckoutFailed, err, "lock products")
	}
	byID := make(map[uuid.UUID]models.Product, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	if _, err := pricing.SingleSeller(locked); err != nil {
		return nil, err
	}

	selections := make([]selection, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeProductUnavailable, "a product in your cart is no longer listed").
				WithDetails(pricing.StockViolationDetail{ProductID: item.ProductID, RequestedQty: item.Quantity})
		}
		if err := pricing.ValidateAvailability(p, item.Quantity); err != nil {
			return nil, err
		}
		selections = append(selections, selection{product: p, quantity: item.Quantity})
	}
	return selections, nil
}

func validateInput(input *Input) error {
	details := map[string]string{}

	input.Shipping = Shipping{
		Name:       strings.TrimSpace(input.Shipping.Name),
		Phone:      strings.TrimSpace(input.Shipping.Phone),
		Address:    strings.TrimSpace(input.Shipping.Address),
		City:       strings.TrimSpace(input.Shipping.City),
		PostalCode: strings.TrimSpace(input.Shipping.PostalCode),
		Country:    strings.TrimSpace(input.Shipping.Country),
	}
	required := map[string]string{
		"shipping_name":        input.Shipping.Name,
		"shipping_phone":       input.Shipping.Phone,
		"shipping_address":     input.Shipping.Address,
		"shipping_city":        input.Shipping.City,
		"shipping_postal_code": input.Shipping.PostalCode,
		"shipping_country":     input.Shipping.Country,
	}
	for field, value := range required {
		if value == "" {
			details[field] = "is required"
		}
	}

	if !input.PaymentMethod.IsValid() {
		details["payment_method"] = "must be one of cash_on_delivery, card, mobile_wallet, demo"
	}

	switch {
	case input.UseCart && input.ProductID != nil:
		details["product_id"] = "must be omitted when use_cart is true"
	case !input.UseCart && input.ProductID == nil:
		details["product_id"] = "is required unless use_cart is true"
	case !input.UseCart && input.Quantity < 1:
		details["quantity"] = "must be at least 1"
	}

	if input.Notes != nil {
		trimmed := strings.TrimSpace(*input.Notes)
		if trimmed == "" {
			input.Notes = nil
		} else {
			input.Notes = &trimmed
		}
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}
