package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Repository persists carts and their lines.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at ASC").Order("id ASC")
	})
}

// FindOpenByUser returns the user's newest cart that is not abandoned.
func (r *Repository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var c models.Cart
	err := withLines(r.db.WithContext(ctx)).
		Where("user_id = ? AND status <> ?", userID, enums.CartStatusAbandoned).
		Order("created_at DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByIDForUser loads a cart owned by userID, optionally locking the row.
func (r *Repository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID, forUpdate bool) (*models.Cart, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c models.Cart
	if err := withLines(q).Where("id = ? AND user_id = ?", id, userID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, c *models.Cart) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = enums.CartStatusActive
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error
}

// SaveTotals writes the aggregate fields of c.
func (r *Repository) SaveTotals(ctx context.Context, c *models.Cart) error {
	return r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"subtotal":     c.Subtotal,
			"service_fee":  c.ServiceFee,
			"total":        c.Total,
			"ticket_count": c.TicketCount,
			"content_hash": c.ContentHash,
			"updated_at":   time.Now().UTC(),
		}).Error
}

// Transition moves a cart from one status to another. The update is guarded
// on the current status so a concurrent change surfaces as ErrCartStatusChanged.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, from, to enums.CartStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("cart cannot move from %s to %s", from, to)
	}
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartStatusChanged
	}
	return nil
}

// ReactivateProcessing returns carts stuck in processing_payment to active.
func (r *Repository) ReactivateProcessing(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id IN ? AND status = ?", ids, enums.CartStatusProcessingPayment).
		Updates(map[string]any{"status": enums.CartStatusActive, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

// MarkPaidAndEmpty deletes every line of a settled cart and zeroes its totals.
func (r *Repository) MarkPaidAndEmpty(ctx context.Context, id uuid.UUID) error {
	if err := r.DeleteLines(ctx, id); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&models.Cart{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.CartStatusPaid,
			"subtotal":     decimal.Zero,
			"service_fee":  decimal.Zero,
			"total":        decimal.Zero,
			"ticket_count": 0,
			"content_hash": nil,
			"updated_at":   time.Now().UTC(),
		}).Error
}

func (r *Repository) ListLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").Order("id ASC").
		Find(&lines).Error
	return lines, err
}

func (r *Repository) FindLine(ctx context.Context, cartID, lineID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	if err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).First(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
}

func (r *Repository) SaveLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(line).Error
}

func (r *Repository) DeleteLine(ctx context.Context, cartID, lineID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", lineID, cartID).Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteLines(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartLine{}).Error
}

// DeleteLinesWithEndedStage prunes lines whose stage closed before now.
func (r *Repository) DeleteLinesWithEndedStage(ctx context.Context, cartID uuid.UUID, now time.Time) (int64, error) {
	ended := r.db.WithContext(ctx).Model(&models.Stage{}).Select("id").Where("ends_at < ?", now)
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND stage_id IN (?)", cartID, ended).
		Delete(&models.CartLine{})
	return res.RowsAffected, res.Error
}
