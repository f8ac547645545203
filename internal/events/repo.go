package events

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Repository updates event publication state. Catalog editing lives outside
// this service.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FinishEnded moves every published event whose end is before now to
// finished and returns how many changed.
func (r *Repository) FinishEnded(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("status = ? AND ends_at < ?", enums.EventStatusPublished, now).
		Update("status", enums.EventStatusFinished)
	return res.RowsAffected, res.Error
}
