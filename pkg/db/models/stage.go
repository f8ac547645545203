package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stage is a time-boxed pricing window of an event. Prices and remaining
// inventory are keyed by ticket type.
type Stage struct {
	ID              uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	EventID         uuid.UUID                  `gorm:"column:event_id;type:uuid;not null"`
	Name            string                     `gorm:"column:name;not null"`
	StartsAt        time.Time                  `gorm:"column:starts_at;not null"`
	EndsAt          time.Time                  `gorm:"column:ends_at;not null"`
	PricesByType    map[string]decimal.Decimal `gorm:"column:prices_by_type;type:jsonb;serializer:json;not null"`
	AvailableByType map[string]int             `gorm:"column:available_by_type;type:jsonb;serializer:json;not null"`
	Event           *Event                     `gorm:"foreignKey:EventID"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// OpenAt reports whether the stage window has not ended at the given instant.
func (s Stage) OpenAt(now time.Time) bool {
	return !now.After(s.EndsAt)
}

// Remaining returns the inventory left for a ticket type.
func (s Stage) Remaining(ticketType string) int {
	if s.AvailableByType == nil {
		return 0
	}
	return s.AvailableByType[ticketType]
}
