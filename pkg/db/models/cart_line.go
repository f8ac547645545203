package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// CartLine is one priced entry of a cart.
type CartLine struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CartID       uuid.UUID          `gorm:"column:cart_id;type:uuid;not null"`
	Kind         enums.CartLineKind `gorm:"column:kind;type:text;not null"`
	EventID      uuid.UUID          `gorm:"column:event_id;type:uuid;not null"`
	StageID      *uuid.UUID         `gorm:"column:stage_id;type:uuid"`
	TicketType   string             `gorm:"column:ticket_type;not null;default:''"`
	PackageID    *uuid.UUID         `gorm:"column:package_id;type:uuid"`
	BoxID        *uuid.UUID         `gorm:"column:box_id;type:uuid"`
	Quantity     int                `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	LineTotal    decimal.Decimal    `gorm:"column:line_total;type:numeric(12,2);not null"`
	UnitsPerLine int                `gorm:"column:units_per_line;not null;default:1"`
	TicketCount  int                `gorm:"column:ticket_count;not null"`
	Available    bool               `gorm:"column:available;not null"`
	Title        string             `gorm:"column:title;not null;default:''"`
	Subtitle     string             `gorm:"column:subtitle;not null;default:''"`
	Stage        *Stage             `gorm:"foreignKey:StageID"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
