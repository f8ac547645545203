package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

// Filter selects which of a user's tickets a listing returns.
type Filter string

const (
	FilterMine        Filter = "mine"
	FilterUnused      Filter = "unused"
	FilterTransferred Filter = "transferred"
)

// Transferee is the new holder of a transferred ticket.
type Transferee struct {
	Name             string
	Email            string
	Document         string
	Message          string
	AttachmentBase64 string
}

// Repository persists tickets.
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

func withRelations(q *gorm.DB) *gorm.DB {
	return q.Preload("Event").Preload("Stage").Preload("Package")
}

// Create inserts t inside a savepoint so a unique violation leaves the
// surrounding transaction usable.
func (r *Repository) Create(ctx context.Context, t *models.Ticket) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return sp.Omit(clause.Associations).Create(t).Error
	})
}

func (r *Repository) FindByQR(ctx context.Context, qr string) (*models.Ticket, error) {
	var t models.Ticket
	if err := withRelations(r.db.WithContext(ctx)).Where("qr_code = ?", qr).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	if err := withRelations(r.db.WithContext(ctx)).Where("id = ? AND user_id = ?", id, userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) ListForPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.Ticket, error) {
	var rows []models.Ticket
	err := r.db.WithContext(ctx).Preload("Event").
		Where("purchase_id = ?", purchaseID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListForUser pages the user's tickets matching filter, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, filter Filter, params pagination.Params) ([]models.Ticket, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).Model(&models.Ticket{}).Where("user_id = ?", userID)
	switch filter {
	case FilterUnused:
		base = base.Where("used = ? AND transferred = ?", false, false)
	case FilterTransferred:
		base = base.Where("transferred = ?", true)
	default:
		base = base.Where("transferred = ?", false)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Ticket
	err := withRelations(base.Session(&gorm.Session{})).
		Order("created_at DESC").Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListSpecial pages the courtesy tickets of the given events, newest first.
func (r *Repository) ListSpecial(ctx context.Context, eventIDs []uuid.UUID, params pagination.Params) ([]models.Ticket, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("event_id IN ? AND stage_id IS NULL AND purchase_id IS NULL", eventIDs)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Ticket
	err := withRelations(base.Session(&gorm.Session{})).
		Order("created_at DESC").Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkUsed flips used to true only if it is still false.
func (r *Repository) MarkUsed(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND used = ?", id, false).
		Updates(map[string]any{"used": true, "used_at": at, "updated_at": at})
	return res.RowsAffected, res.Error
}

// MarkTransferred stamps the transferee on an unused, untransferred ticket owned by userID.
func (r *Repository) MarkTransferred(ctx context.Context, id, userID uuid.UUID, to Transferee, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Where("id = ? AND user_id = ? AND used = ? AND transferred = ?", id, userID, false, false).
		Updates(map[string]any{
			"transferred":         true,
			"transferred_at":      at,
			"transferee_name":     to.Name,
			"transferee_email":    to.Email,
			"transferee_document": to.Document,
			"updated_at":          at,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var e models.Event
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) FindStage(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	var s models.Stage
	if err := r.db.WithContext(ctx).Preload("Event").First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) FindBox(ctx context.Context, id uuid.UUID) (*models.Box, error) {
	var b models.Box
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
