package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchases repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, p *models.Purchase) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) SetPreferenceID(ctx context.Context, id uuid.UUID, preferenceID string) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{"provider_preference_id": preferenceID, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Lines", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC").Order("id ASC") }).
		Preload("Tickets", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC").Order("id ASC") }).
		Preload("Tickets.Event").
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListForUser pages through non-cancelled purchases, newest first.
func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Purchase, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("user_id = ? AND status <> ?", userID, enums.PurchaseStatusCancelled)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Purchase
	err := base.Session(&gorm.Session{}).
		Preload("Tickets", func(q *gorm.DB) *gorm.DB { return q.Order("created_at ASC") }).
		Preload("Tickets.Event").
		Order("created_at DESC").Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListOverdue locks pending purchases whose deadline passed, optionally for one
// user. Rows held by a running settlement are skipped.
func (r *repository) ListOverdue(ctx context.Context, userID *uuid.UUID, now time.Time, limit int) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND payment_deadline < ?", enums.PurchaseStatusPending, now)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Purchase
	if err := q.Order("payment_deadline ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CancelPending cancels the given purchases that are still pending and returns
// the ids it actually cancelled.
func (r *repository) CancelPending(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var pending []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Purchase{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND status = ?", ids, enums.PurchaseStatusPending).
		Pluck("id", &pending).Error
	if err != nil || len(pending) == 0 {
		return nil, err
	}
	err = r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id IN ? AND status = ?", pending, enums.PurchaseStatusPending).
		Updates(map[string]any{"status": enums.PurchaseStatusCancelled, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// FindForSettlement locks the purchase row and loads its snapshot lines.
func (r *repository) FindForSettlement(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("purchase_id = ?", id).Order("id ASC").Find(&p.Lines).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, s Settlement) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              enums.PurchaseStatusPaid,
			"paid_at":             s.PaidAt,
			"provider_payment_id": s.ProviderPaymentID,
			"payment_method":      s.PaymentMethod,
			"total_price":         s.TotalPrice,
			"updated_at":          s.PaidAt,
		}).Error
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, providerPaymentID string) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              enums.PurchaseStatusCancelled,
			"provider_payment_id": providerPaymentID,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *repository) StampPaymentID(ctx context.Context, id uuid.UUID, providerPaymentID string) error {
	return r.db.WithContext(ctx).Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"provider_payment_id": providerPaymentID,
			"updated_at":          time.Now().UTC(),
		}).Error
}
