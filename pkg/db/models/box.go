package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Box is a reserved area sold as one unit with a fixed ticket count.
type Box struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	EventID       uuid.UUID       `gorm:"column:event_id;type:uuid;not null"`
	StageID       *uuid.UUID      `gorm:"column:stage_id;type:uuid"`
	Name          string          `gorm:"column:name;not null"`
	Location      string          `gorm:"column:location"`
	TicketsPerBox int             `gorm:"column:tickets_per_box;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Available     bool            `gorm:"column:available;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
