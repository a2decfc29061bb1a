package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elida-shop/storefront-backend/pkg/enums"
	"github.com/elida-shop/storefront-backend/pkg/types"
)

// AnonymousUserID is the sentinel identity for guest checkouts.
const AnonymousUserID = "anonymous"

// Order is the local record of a checkout attempt. Everything except Status
// and UpdatedAt is frozen at creation time; Reference is the sole join key to
// the gateway-side transaction.
type Order struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference string                 `gorm:"column:reference;not null;uniqueIndex"`
	UserID    string                 `gorm:"column:user_id;not null;default:'anonymous'"`
	Email     string                 `gorm:"column:email;not null"`
	Shipping  types.ShippingSnapshot `gorm:"column:shipping;type:jsonb;serializer:json"`
	Subtotal  decimal.Decimal        `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Total     decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null"`
	Currency  string                 `gorm:"column:currency;not null;default:'EUR'"`
	Status    enums.OrderStatus      `gorm:"column:status;not null;default:'created'"`
	Items     []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// Discounted reports whether a membership discount was applied at creation.
func (o Order) Discounted() bool {
	return o.Total.LessThan(o.Subtotal)
}
