package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/internal/pricing"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// applyQuote writes price-derived fields onto a line for the given quantity.
func applyQuote(line *models.CartLine, q *pricing.Quote, quantity int) {
	line.Kind = q.Kind
	line.EventID = q.EventID
	line.StageID = q.StageID
	line.TicketType = q.TicketType
	line.PackageID = q.PackageID
	line.BoxID = q.BoxID
	line.Quantity = quantity
	line.UnitPrice = q.UnitPrice
	line.LineTotal = q.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	line.UnitsPerLine = q.UnitsPerLine
	line.TicketCount = quantity * q.UnitsPerLine
	line.Available = q.Available
	line.Title = q.Title
	line.Subtitle = q.Subtitle
}

func candidateFromLine(line *models.CartLine) pricing.Candidate {
	return pricing.Candidate{
		Kind:       line.Kind,
		EventID:    line.EventID,
		StageID:    line.StageID,
		TicketType: line.TicketType,
		PackageID:  line.PackageID,
		BoxID:      line.BoxID,
	}
}

// mergeKey identifies equivalent lines: same kind, event and stage, plus the
// ticket type, package or box depending on kind.
type mergeKey struct {
	kind    enums.CartLineKind
	event   uuid.UUID
	stage   uuid.UUID
	subject string
}

func quoteKey(q *pricing.Quote) mergeKey {
	return buildKey(q.Kind, q.EventID, q.StageID, q.TicketType, q.PackageID, q.BoxID)
}

func lineKey(l *models.CartLine) mergeKey {
	return buildKey(l.Kind, l.EventID, l.StageID, l.TicketType, l.PackageID, l.BoxID)
}

func buildKey(kind enums.CartLineKind, event uuid.UUID, stage *uuid.UUID, ticketType string, packageID, boxID *uuid.UUID) mergeKey {
	key := mergeKey{kind: kind, event: event}
	if stage != nil {
		key.stage = *stage
	}
	switch kind {
	case enums.CartLineKindTicket:
		key.subject = ticketType
	case enums.CartLineKindPackage:
		if packageID != nil {
			key.subject = packageID.String()
		}
	case enums.CartLineKindBox:
		if boxID != nil {
			key.subject = boxID.String()
		}
	}
	return key
}
