package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
	"github.com/angelmondragon/ticketing-backend/pkg/qrcode"
)

const (
	// MaxQRAttempts bounds how many payloads are tried per ticket before giving up.
	MaxQRAttempts = 5

	qrCodeConstraint = "tickets_qr_code_key"
	boxTicketType    = "box"
)

type payloadFunc func(trigram string, stageID, packageID, boxID *uuid.UUID) (string, error)

// Issuer mints tickets for paid purchase lines.
type Issuer struct {
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	payload payloadFunc
}

func NewIssuer(logg *logger.Logger, m *metrics.CheckoutMetrics) *Issuer {
	return &Issuer{logg: logg, metrics: m, payload: qrcode.TicketPayload}
}

// unitPlan is what one purchase line mints.
type unitPlan struct {
	event      *models.Event
	stageID    *uuid.UUID
	packageID  *uuid.UUID
	boxID      *uuid.UUID
	ticketType string
	count      int
}

// IssueForPurchase mints one ticket per paid unit of lines inside tx.
// Lines that lack their stage, package or box are skipped and logged.
func (i *Issuer) IssueForPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase, lines []models.PurchaseLine) ([]models.Ticket, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	repo := NewRepository(tx)
	purchaseID := purchase.ID

	issued := make([]models.Ticket, 0, purchase.TicketCount)
	for _, line := range lines {
		plan, reason, err := i.plan(ctx, repo, line)
		if err != nil {
			return nil, err
		}
		if plan == nil {
			i.warn(ctx, line, reason)
			continue
		}
		for n := 0; n < plan.count; n++ {
			t := models.Ticket{
				EventID:    plan.event.ID,
				StageID:    plan.stageID,
				UserID:     purchase.UserID,
				PurchaseID: &purchaseID,
				PackageID:  plan.packageID,
				BoxID:      plan.boxID,
				TicketType: plan.ticketType,
			}
			if err := i.insert(ctx, repo, &t, func() (string, error) {
				return i.payload(plan.event.Trigram, plan.stageID, plan.packageID, plan.boxID)
			}); err != nil {
				return nil, err
			}
			t.Event = plan.event
			issued = append(issued, t)
		}
	}

	i.metrics.AddTicketsIssued(len(issued))
	if i.logg != nil {
		logCtx := i.logg.WithFields(ctx, map[string]any{
			"purchase_id": purchaseID.String(),
			"issued":      len(issued),
		})
		i.logg.Info(logCtx, "tickets issued")
	}
	return issued, nil
}

// plan resolves the event and unit count of a line. A nil plan with a reason
// means the line cannot be issued.
func (i *Issuer) plan(ctx context.Context, repo *Repository, line models.PurchaseLine) (*unitPlan, string, error) {
	switch line.Kind {
	case enums.CartLineKindTicket, enums.CartLineKindPackage:
		if line.StageID == nil || line.TicketType == "" {
			return nil, "missing stage or ticket type", nil
		}
		if line.Kind == enums.CartLineKindPackage && line.PackageID == nil {
			return nil, "missing package", nil
		}
		stage, err := repo.FindStage(ctx, *line.StageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "stage not found", nil
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stage")
		}
		if stage.Event == nil {
			return nil, "event not found", nil
		}
		count := line.Quantity
		if line.Kind == enums.CartLineKindPackage {
			count = line.Quantity * max(line.UnitsPerLine, 1)
		}
		return &unitPlan{
			event:      stage.Event,
			stageID:    line.StageID,
			packageID:  line.PackageID,
			ticketType: line.TicketType,
			count:      count,
		}, "", nil

	case enums.CartLineKindBox:
		if line.BoxID == nil {
			return nil, "missing box", nil
		}
		box, err := repo.FindBox(ctx, *line.BoxID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "box not found", nil
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load box")
		}
		event, err := repo.FindEvent(ctx, box.EventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "event not found", nil
			}
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
		}
		ticketType := line.TicketType
		if ticketType == "" {
			ticketType = boxTicketType
		}
		return &unitPlan{
			event:      event,
			stageID:    box.StageID,
			boxID:      line.BoxID,
			ticketType: ticketType,
			count:      line.Quantity * box.TicketsPerBox,
		}, "", nil

	default:
		return nil, "kind does not issue tickets", nil
	}
}

// insert stores t, drawing a fresh payload after each qr_code collision.
func (i *Issuer) insert(ctx context.Context, repo *Repository, t *models.Ticket, next func() (string, error)) error {
	for attempt := 1; attempt <= MaxQRAttempts; attempt++ {
		code, err := next()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate qr payload")
		}
		t.ID = uuid.New()
		t.QRCode = code
		err = repo.Create(ctx, t)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, qrCodeConstraint) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert ticket")
		}
		if i.logg != nil {
			i.logg.Warn(i.logg.WithField(ctx, "attempt", attempt), "qr code collision, retrying")
		}
	}
	return ErrQRCollision
}

func (i *Issuer) warn(ctx context.Context, line models.PurchaseLine, reason string) {
	if i.logg == nil {
		return
	}
	logCtx := i.logg.WithFields(ctx, map[string]any{
		"purchase_id":      line.PurchaseID.String(),
		"purchase_line_id": line.ID.String(),
		"kind":             line.Kind,
		"reason":           reason,
	})
	i.logg.Warn(logCtx, "skipping purchase line without ticket linkage")
}
