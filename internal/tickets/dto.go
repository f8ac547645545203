package tickets

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
)

// TicketView is the client representation of a ticket.
type TicketView struct {
	ID            uuid.UUID      `json:"id"`
	EventID       uuid.UUID      `json:"event_id"`
	Event         *EventSummary  `json:"event,omitempty"`
	StageID       *uuid.UUID     `json:"stage_id,omitempty"`
	StageName     string         `json:"stage_name,omitempty"`
	PurchaseID    *uuid.UUID     `json:"purchase_id,omitempty"`
	PackageID     *uuid.UUID     `json:"package_id,omitempty"`
	PackageName   string         `json:"package_name,omitempty"`
	BoxID         *uuid.UUID     `json:"box_id,omitempty"`
	TicketType    string         `json:"ticket_type"`
	QRCode        string         `json:"qr_code"`
	Used          bool           `json:"used"`
	UsedAt        *time.Time     `json:"used_at,omitempty"`
	Transferred   bool           `json:"transferred"`
	TransferredAt *time.Time     `json:"transferred_at,omitempty"`
	Transferee    *TransfereeDTO `json:"transferee,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type EventSummary struct {
	Name     string    `json:"name"`
	Trigram  string    `json:"trigram"`
	StartsAt time.Time `json:"starts_at"`
	Location string    `json:"location,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
}

type TransfereeDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
}

func NewTicketView(t *models.Ticket) TicketView {
	view := TicketView{
		ID:            t.ID,
		EventID:       t.EventID,
		StageID:       t.StageID,
		PurchaseID:    t.PurchaseID,
		PackageID:     t.PackageID,
		BoxID:         t.BoxID,
		TicketType:    t.TicketType,
		QRCode:        t.QRCode,
		Used:          t.Used,
		UsedAt:        t.UsedAt,
		Transferred:   t.Transferred,
		TransferredAt: t.TransferredAt,
		CreatedAt:     t.CreatedAt,
	}
	if t.Event != nil {
		view.Event = &EventSummary{
			Name:     t.Event.Name,
			Trigram:  t.Event.Trigram,
			StartsAt: t.Event.StartsAt,
			Location: t.Event.Location,
			ImageURL: t.Event.ImageURL,
		}
	}
	if t.Stage != nil {
		view.StageName = t.Stage.Name
	}
	if t.Package != nil {
		view.PackageName = t.Package.Name
	}
	if t.Transferred && t.TransfereeName != nil {
		view.Transferee = &TransfereeDTO{Name: *t.TransfereeName}
		if t.TransfereeEmail != nil {
			view.Transferee.Email = *t.TransfereeEmail
		}
		if t.TransfereeDocument != nil {
			view.Transferee.Document = *t.TransfereeDocument
		}
	}
	return view
}
