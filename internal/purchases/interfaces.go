package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

// Repository persists purchases and their snapshot lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, p *models.Purchase) error
	CreateLines(ctx context.Context, lines []models.PurchaseLine) error
	SetPreferenceID(ctx context.Context, id uuid.UUID, preferenceID string) error
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Purchase, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Purchase, int64, error)
	ListOverdue(ctx context.Context, userID *uuid.UUID, now time.Time, limit int) ([]models.Purchase, error)
	CancelPending(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	FindForSettlement(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	MarkPaid(ctx context.Context, id uuid.UUID, settlement Settlement) error
	MarkCancelled(ctx context.Context, id uuid.UUID, providerPaymentID string) error
	StampPaymentID(ctx context.Context, id uuid.UUID, providerPaymentID string) error
}

// Settlement is what an approved provider payment writes onto a purchase.
type Settlement struct {
	ProviderPaymentID string
	PaymentMethod     string
	TotalPrice        decimal.Decimal
	PaidAt            time.Time
}

// PaymentProvider creates hosted checkouts for purchases.
type PaymentProvider interface {
	CreatePreference(ctx context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error)
}
