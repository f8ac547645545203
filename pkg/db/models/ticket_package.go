package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketPackage bundles a fixed number of tickets of one type at a discounted price.
type TicketPackage struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventID           uuid.UUID       `gorm:"column:event_id;type:uuid;not null"`
	StageID           uuid.UUID       `gorm:"column:stage_id;type:uuid;not null"`
	Name              string          `gorm:"column:name;not null"`
	TicketType        string          `gorm:"column:ticket_type;not null"`
	TicketsPerPackage int             `gorm:"column:tickets_per_package;not null"`
	Discount          decimal.Decimal `gorm:"column:discount;type:numeric(5,4);not null;default:0"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Available         bool            `gorm:"column:available;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (TicketPackage) TableName() string { return "packages" }
