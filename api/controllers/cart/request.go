package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

type addLineRequest struct {
	Kind       string     `json:"kind" validate:"required,oneof=ticket package box merch"`
	EventID    uuid.UUID  `json:"event_id" validate:"required"`
	StageID    *uuid.UUID `json:"stage_id"`
	TicketType string     `json:"ticket_type" validate:"max=64"`
	PackageID  *uuid.UUID `json:"package_id"`
	BoxID      *uuid.UUID `json:"box_id"`
	Quantity   int        `json:"quantity" validate:"omitempty,gt=0"`
}

type updateLineRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func (r addLineRequest) toInput() cartsvc.AddLineInput {
	return cartsvc.AddLineInput{
		Kind:       enums.CartLineKind(r.Kind),
		EventID:    r.EventID,
		StageID:    r.StageID,
		TicketType: r.TicketType,
		PackageID:  r.PackageID,
		BoxID:      r.BoxID,
		Quantity:   r.Quantity,
	}
}
