package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/elida-shop/storefront-backend/pkg/db/models"
	"github.com/elida-shop/storefront-backend/pkg/enums"
)

// ReferenceConstraint is the unique constraint on orders.reference, as named
// in the create_orders migration.
const ReferenceConstraint = "orders_reference_unique"

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

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ?", reference).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order out of the created state. The WHERE guard makes
// the transition monotonic: once completed or failed is stored, replays and
// concurrent reconciliations match zero rows. Returns whether a row changed.
func (r *repository) UpdateStatus(ctx context.Context, reference string, status enums.OrderStatus) (bool, error) {
	if !status.Terminal() {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("reference = ? AND status = ?", reference, enums.OrderStatusCreated).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
