package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Cart is the single non-terminal cart a user owns. Aggregate fields are
// written only by the cart engine's recompute step.
type Cart struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Subtotal    decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	ServiceFee  decimal.Decimal  `gorm:"column:service_fee;type:numeric(12,2);not null;default:0"`
	Total       decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	TicketCount int              `gorm:"column:ticket_count;not null;default:0"`
	ContentHash *string          `gorm:"column:content_hash"`
	Lines       []CartLine       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
