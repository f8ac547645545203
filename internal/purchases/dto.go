package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// PurchaseView is the client representation of a purchase.
type PurchaseView struct {
	ID              uuid.UUID            `json:"id"`
	CartID          uuid.UUID            `json:"cart_id"`
	Status          enums.PurchaseStatus `json:"status"`
	PaymentMethod   string               `json:"payment_method"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	ServiceFee      decimal.Decimal      `json:"service_fee"`
	TotalPrice      decimal.Decimal      `json:"total_price"`
	TicketCount     int                  `json:"ticket_count"`
	PaymentDeadline time.Time            `json:"payment_deadline"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
	Buyer           BuyerView            `json:"buyer"`
	Lines           []LineView           `json:"lines,omitempty"`
	Tickets         []TicketSummary      `json:"tickets"`
	CreatedAt       time.Time            `json:"created_at"`
}

type BuyerView struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Document  string `json:"document"`
	Email     string `json:"email"`
}

type LineView struct {
	ID           uuid.UUID          `json:"id"`
	Kind         enums.CartLineKind `json:"kind"`
	EventID      uuid.UUID          `json:"event_id"`
	StageID      *uuid.UUID         `json:"stage_id,omitempty"`
	PackageID    *uuid.UUID         `json:"package_id,omitempty"`
	BoxID        *uuid.UUID         `json:"box_id,omitempty"`
	TicketType   string             `json:"ticket_type,omitempty"`
	Quantity     int                `json:"quantity"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	UnitsPerLine int                `json:"units_per_line"`
	TicketCount  int                `json:"ticket_count"`
}

// TicketSummary lists a ticket issued for the purchase.
type TicketSummary struct {
	ID          uuid.UUID `json:"id"`
	EventID     uuid.UUID `json:"event_id"`
	EventName   string    `json:"event_name,omitempty"`
	TicketType  string    `json:"ticket_type"`
	QRCode      string    `json:"qr_code"`
	Used        bool      `json:"used"`
	Transferred bool      `json:"transferred"`
}

func NewPurchaseView(p *models.Purchase) PurchaseView {
	view := PurchaseView{
		ID:              p.ID,
		CartID:          p.CartID,
		Status:          p.Status,
		PaymentMethod:   p.PaymentMethod,
		Subtotal:        p.Subtotal,
		ServiceFee:      p.ServiceFee,
		TotalPrice:      p.TotalPrice,
		TicketCount:     p.TicketCount,
		PaymentDeadline: p.PaymentDeadline,
		PaidAt:          p.PaidAt,
		Buyer: BuyerView{
			FirstName: p.BuyerFirstName,
			LastName:  p.BuyerLastName,
			Document:  p.BuyerDocument,
			Email:     p.BuyerEmail,
		},
		Tickets:   make([]TicketSummary, 0, len(p.Tickets)),
		CreatedAt: p.CreatedAt,
	}
	for _, l := range p.Lines {
		view.Lines = append(view.Lines, LineView{
			ID:           l.ID,
			Kind:         l.Kind,
			EventID:      l.EventID,
			StageID:      l.StageID,
			PackageID:    l.PackageID,
			BoxID:        l.BoxID,
			TicketType:   l.TicketType,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			UnitsPerLine: l.UnitsPerLine,
			TicketCount:  l.TicketCount,
		})
	}
	for _, t := range p.Tickets {
		summary := TicketSummary{
			ID:          t.ID,
			EventID:     t.EventID,
			TicketType:  t.TicketType,
			QRCode:      t.QRCode,
			Used:        t.Used,
			Transferred: t.Transferred,
		}
		if t.Event != nil {
			summary.EventName = t.Event.Name
		}
		view.Tickets = append(view.Tickets, summary)
	}
	return view
}
