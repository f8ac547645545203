package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Event is a published show that stages, packages and boxes belong to.
type Event struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name      string            `gorm:"column:name;not null"`
	Trigram   string            `gorm:"column:trigram;type:varchar(3);not null"`
	Status    enums.EventStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	StartsAt  time.Time         `gorm:"column:starts_at;not null"`
	EndsAt    time.Time         `gorm:"column:ends_at;not null"`
	Location  string            `gorm:"column:location"`
	ImageURL  string            `gorm:"column:image_url"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
