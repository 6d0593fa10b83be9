package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/pagination"
)

// MaxOrderNumberAttempts bounds regeneration after order_number collisions.
const MaxOrderNumberAttempts = 5

const orderNumberSavepoint = "order_number"

// Repository defines persistence operations for orders and their snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWithUniqueNumber(ctx context.Context, order *models.Order, next func() string) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

// ListFilter narrows a listing to one party; an empty filter lists everything.
type ListFilter struct {
	BuyerID  *uuid.UUID
	SellerID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateWithUniqueNumber inserts the order, drawing a fresh number from next
// whenever the unique index rejects one. Each attempt runs behind a savepoint
// so a failed insert does not poison the enclosing postgres transaction.
// Callers must pass a transaction-bound repository.
func (r *repository) CreateWithUniqueNumber(ctx context.Context, order *models.Order, next func() string) error {
	tx := r.db.WithContext(ctx)
	var lastErr error
	for attempt := 0; attempt < MaxOrderNumberAttempts; attempt++ {
		order.OrderNumber = next()
		if err := tx.SavePoint(orderNumberSavepoint).Error; err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		err := tx.Omit(clause.Associations).Create(order).Error
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "order_number") {
			return err
		}
		lastErr = err
		if rbErr := tx.RollbackTo(orderNumberSavepoint).Error; rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %w", rbErr)
		}
	}
	return fmt.Errorf("order number still colliding after %d attempts: %w", MaxOrderNumberAttempts, lastErr)
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetail loads the order with its item snapshots and payment attempts.
func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC").Order("id ASC") }).
		Preload("Transactions", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC").Order("id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID reads the order with its items, holding a row lock on postgres.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if db.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	err := q.Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.BuyerID != nil {
		q = q.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.SellerID != nil {
		q = q.Where("seller_id = ?", *filter.SellerID)
	}
	var rows []models.Order
	err := q.Scopes(pagination.NewestFirst(cursor, limit)).
		Preload("Items").
		Find(&rows).Error
	return rows, err
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
