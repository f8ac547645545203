package payloads

import (
	"time"

	"github.com/google/uuid"
)

// PurchasePaidEvent carries what the confirmation email needs.
type PurchasePaidEvent struct {
	PurchaseID        uuid.UUID      `json:"purchase_id" validate:"required"`
	UserID            uuid.UUID      `json:"user_id"`
	BuyerName         string         `json:"buyer_name"`
	BuyerEmail        string         `json:"buyer_email" validate:"required,email"`
	TotalPrice        string         `json:"total_price"`
	PaymentMethod     string         `json:"payment_method"`
	ProviderPaymentID string         `json:"provider_payment_id"`
	PaidAt            time.Time      `json:"paid_at"`
	Tickets           []IssuedTicket `json:"tickets" validate:"dive"`
}

// IssuedTicket is the per-ticket summary attached to a paid purchase.
type IssuedTicket struct {
	TicketID   uuid.UUID `json:"ticket_id" validate:"required"`
	EventName  string    `json:"event_name"`
	TicketType string    `json:"ticket_type"`
	QRCode     string    `json:"qr_code" validate:"required"`
}

// PurchaseCancelledEvent is emitted when a pending purchase is cancelled by the provider or the expiry sweep.
type PurchaseCancelledEvent struct {
	PurchaseID uuid.UUID `json:"purchase_id" validate:"required"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason" validate:"required"`
}

// TicketTransferredEvent carries the transfer email and its PDF attachment.
type TicketTransferredEvent struct {
	TicketID         uuid.UUID `json:"ticket_id" validate:"required"`
	FromUserID       uuid.UUID `json:"from_user_id"`
	EventName        string    `json:"event_name"`
	RecipientName    string    `json:"recipient_name"`
	RecipientEmail   string    `json:"recipient_email" validate:"required,email"`
	Message          string    `json:"message,omitempty"`
	AttachmentBase64 string    `json:"attachment_base64"`
}
