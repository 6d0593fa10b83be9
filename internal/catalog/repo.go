package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

// Repository is the product store. Every method honours the handle bound by WithTx.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int, buyerID uuid.UUID, now time.Time) (bool, error)
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error
	return products, err
}

// LockByID reads a product with FOR UPDATE on postgres. sqlite serializes
// writers at the database level so no clause is needed there.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.locking(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockByIDs locks rows in id order so concurrent checkouts acquire them consistently.
func (r *repository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.locking(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *repository) locking(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if db.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// DecrementStock subtracts qty only while the product is active and holds
// at least qty units. It reports false when no row matched. A product that
// reaches zero is marked sold to buyerID.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int, buyerID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ? AND quantity_available >= ?", id, enums.ProductStatusActive, qty).
		Update("quantity_available", gorm.Expr("quantity_available - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ? AND quantity_available <= 0", id, enums.ProductStatusActive).
		Updates(map[string]any{
			"status":  enums.ProductStatusSold,
			"sold_at": now.UTC(),
			"sold_to": buyerID,
		}).Error
	return err == nil, err
}

// RestoreStock adds qty back and reopens a sold listing. It reports false
// when the product no longer exists.
func (r *repository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("quantity_available", gorm.Expr("quantity_available + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND status = ? AND quantity_available > 0", id, enums.ProductStatusSold).
		Updates(map[string]any{
			"status":  enums.ProductStatusActive,
			"sold_at": nil,
			"sold_to": nil,
		}).Error
	return err == nil, err
}
