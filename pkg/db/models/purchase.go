package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Purchase is the settling record created from a cart at checkout.
type Purchase struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID            `gorm:"column:user_id;type:uuid;not null"`
	CartID               uuid.UUID            `gorm:"column:cart_id;type:uuid;not null"`
	Status               enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod        string               `gorm:"column:payment_method;not null"`
	Subtotal             decimal.Decimal      `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ServiceFee           decimal.Decimal      `gorm:"column:service_fee;type:numeric(12,2);not null"`
	TotalPrice           decimal.Decimal      `gorm:"column:total_price;type:numeric(12,2);not null"`
	TicketCount          int                  `gorm:"column:ticket_count;not null"`
	ProviderPaymentID    *string              `gorm:"column:provider_payment_id"`
	ProviderPreferenceID *string              `gorm:"column:provider_preference_id"`
	PaymentDeadline      time.Time            `gorm:"column:payment_deadline;not null"`
	PaidAt               *time.Time           `gorm:"column:paid_at"`
	ContentHash          string               `gorm:"column:content_hash;not null"`
	BuyerFirstName       string               `gorm:"column:buyer_first_name;not null"`
	BuyerLastName        string               `gorm:"column:buyer_last_name;not null"`
	BuyerDocument        string               `gorm:"column:buyer_document;not null"`
	BuyerEmail           string               `gorm:"column:buyer_email;not null"`
	Lines                []PurchaseLine       `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	Tickets              []Ticket             `gorm:"foreignKey:PurchaseID"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether a pending purchase is past its payment deadline.
func (p Purchase) Expired(now time.Time) bool {
	return p.Status == enums.PurchaseStatusPending && now.After(p.PaymentDeadline)
}
