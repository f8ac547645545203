package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// DLQRepository parks outbox rows the publisher gave up on. Parked rows keep
// their original payload so they can be replayed by hand.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// Park copies event into outbox_dlq inside tx. attempts is the total number
// of publish attempts including the one that failed. Parking an event twice
// keeps the first entry.
func (r *DLQRepository) Park(tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, attempts int, at time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if !reason.IsValid() {
		return errors.New("unknown dlq reason " + string(reason))
	}
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		AttemptCount:  attempts,
		FailedAt:      at,
	}
	if cause != nil {
		msg := truncate(cause.Error())
		entry.ErrorMessage = &msg
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&entry).Error
}

// ListByAggregate returns the parked rows for one purchase or ticket, newest first.
func (r *DLQRepository) ListByAggregate(tx *gorm.DB, aggregateID uuid.UUID) ([]models.OutboxDLQ, error) {
	if tx == nil {
		tx = r.db
	}
	var rows []models.OutboxDLQ
	err := tx.Where("aggregate_id = ?", aggregateID).
		Order("failed_at DESC").
		Find(&rows).Error
	return rows, err
}
