package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// View is the client representation of a cart.
type View struct {
	ID          uuid.UUID        `json:"id"`
	Status      enums.CartStatus `json:"status"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	ServiceFee  decimal.Decimal  `json:"service_fee"`
	Total       decimal.Decimal  `json:"total"`
	TicketCount int              `json:"ticket_count"`
	ContentHash *string          `json:"content_hash"`
	Lines       []LineView       `json:"lines"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type LineView struct {
	ID           uuid.UUID          `json:"id"`
	Kind         enums.CartLineKind `json:"kind"`
	EventID      uuid.UUID          `json:"event_id"`
	StageID      *uuid.UUID         `json:"stage_id,omitempty"`
	TicketType   string             `json:"ticket_type,omitempty"`
	PackageID    *uuid.UUID         `json:"package_id,omitempty"`
	BoxID        *uuid.UUID         `json:"box_id,omitempty"`
	Quantity     int                `json:"quantity"`
	UnitPrice    decimal.Decimal    `json:"unit_price"`
	LineTotal    decimal.Decimal    `json:"line_total"`
	UnitsPerLine int                `json:"units_per_line"`
	TicketCount  int                `json:"ticket_count"`
	Available    bool               `json:"available"`
	Title        string             `json:"title"`
	Subtitle     string             `json:"subtitle"`
}

func NewView(c *models.Cart) View {
	lines := make([]LineView, 0, len(c.Lines))
	for _, l := range c.Lines {
		lines = append(lines, LineView{
			ID:           l.ID,
			Kind:         l.Kind,
			EventID:      l.EventID,
			StageID:      l.StageID,
			TicketType:   l.TicketType,
			PackageID:    l.PackageID,
			BoxID:        l.BoxID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineTotal:    l.LineTotal,
			UnitsPerLine: l.UnitsPerLine,
			TicketCount:  l.TicketCount,
			Available:    l.Available,
			Title:        l.Title,
			Subtitle:     l.Subtitle,
		})
	}
	return View{
		ID:          c.ID,
		Status:      c.Status,
		Subtotal:    c.Subtotal,
		ServiceFee:  c.ServiceFee,
		Total:       c.Total,
		TicketCount: c.TicketCount,
		ContentHash: c.ContentHash,
		Lines:       lines,
		UpdatedAt:   c.UpdatedAt,
	}
}
