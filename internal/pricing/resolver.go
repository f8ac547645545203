package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

var (
	ErrInvalidTicketType = pkgerrors.New(pkgerrors.CodeValidation, "ticket type is not offered by this stage")
	ErrUnsupportedKind   = pkgerrors.New(pkgerrors.CodeValidation, "line kind cannot be priced")
	ErrStageNotFound     = pkgerrors.New(pkgerrors.CodeNotFound, "stage not found")
	ErrPackageNotFound   = pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
	ErrBoxNotFound       = pkgerrors.New(pkgerrors.CodeNotFound, "box not found")
	ErrEventMismatch     = pkgerrors.New(pkgerrors.CodeValidation, "event does not match the priced entity")
)

// Candidate identifies the entity a cart line sells.
type Candidate struct {
	Kind       enums.CartLineKind
	EventID    uuid.UUID
	StageID    *uuid.UUID
	TicketType string
	PackageID  *uuid.UUID
	BoxID      *uuid.UUID
}

// Validate checks the per-kind required references.
func (c Candidate) Validate() error {
	switch c.Kind {
	case enums.CartLineKindTicket:
		if c.StageID == nil || *c.StageID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "stage_id is required for tickets")
		}
		if strings.TrimSpace(c.TicketType) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "ticket_type is required for tickets")
		}
	case enums.CartLineKindPackage:
		if c.PackageID == nil || *c.PackageID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "package_id is required for packages")
		}
	case enums.CartLineKindBox:
		if c.BoxID == nil || *c.BoxID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "box_id is required for boxes")
		}
	case enums.CartLineKindMerch:
		return ErrUnsupportedKind
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown line kind %q", c.Kind))
	}
	return nil
}

// Quote is the authoritative price and availability of a candidate.
type Quote struct {
	Kind         enums.CartLineKind
	EventID      uuid.UUID
	StageID      *uuid.UUID
	TicketType   string
	PackageID    *uuid.UUID
	BoxID        *uuid.UUID
	UnitPrice    decimal.Decimal
	UnitsPerLine int
	Available    bool
	Title        string
	Subtitle     string
}

// Resolver prices cart-line candidates from their source records. Client
// supplied prices never reach it.
type Resolver struct {
	now func() time.Time
}

func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{now: now}
}

// Resolve looks up price and availability using db, which may be a transaction.
func (r *Resolver) Resolve(ctx context.Context, db *gorm.DB, c Candidate) (*Quote, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	q := db.WithContext(ctx)

	switch c.Kind {
	case enums.CartLineKindTicket:
		return r.resolveTicket(q, c)
	case enums.CartLineKindPackage:
		return r.resolvePackage(q, c)
	case enums.CartLineKindBox:
		return r.resolveBox(q, c)
	default:
		return nil, ErrUnsupportedKind
	}
}

func (r *Resolver) resolveTicket(q *gorm.DB, c Candidate) (*Quote, error) {
	stage, err := loadStage(q, *c.StageID)
	if err != nil {
		return nil, err
	}
	if err := checkEvent(c.EventID, stage.EventID); err != nil {
		return nil, err
	}
	price, ok := stage.PricesByType[c.TicketType]
	if !ok {
		return nil, ErrInvalidTicketType
	}
	stageID := stage.ID
	return &Quote{
		Kind:         c.Kind,
		EventID:      stage.EventID,
		StageID:      &stageID,
		TicketType:   c.TicketType,
		UnitPrice:    price.Round(2),
		UnitsPerLine: 1,
		Available:    stage.OpenAt(r.now()) && stage.Remaining(c.TicketType) > 0,
		Title:        eventName(stage.Event),
		Subtitle:     fmt.Sprintf("%s - %s", stage.Name, c.TicketType),
	}, nil
}

func (r *Resolver) resolvePackage(q *gorm.DB, c Candidate) (*Quote, error) {
	var pkg models.TicketPackage
	if err := q.Where("id = ?", *c.PackageID).First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load package")
	}
	if err := checkEvent(c.EventID, pkg.EventID); err != nil {
		return nil, err
	}

	available := pkg.Available
	title := ""
	stage, err := loadStage(q, pkg.StageID)
	switch {
	case err == nil:
		available = available && stage.OpenAt(r.now()) && stage.Remaining(pkg.TicketType) > 0
		title = eventName(stage.Event)
	case errors.Is(err, ErrStageNotFound):
		// a package whose stage is gone stays sellable on its own flag
	default:
		return nil, err
	}

	stageID := pkg.StageID
	packageID := pkg.ID
	return &Quote{
		Kind:         c.Kind,
		EventID:      pkg.EventID,
		StageID:      &stageID,
		TicketType:   pkg.TicketType,
		PackageID:    &packageID,
		UnitPrice:    pkg.Price.Round(2),
		UnitsPerLine: pkg.TicketsPerPackage,
		Available:    available,
		Title:        title,
		Subtitle:     pkg.Name,
	}, nil
}

func (r *Resolver) resolveBox(q *gorm.DB, c Candidate) (*Quote, error) {
	var box models.Box
	if err := q.Where("id = ?", *c.BoxID).First(&box).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoxNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load box")
	}
	if err := checkEvent(c.EventID, box.EventID); err != nil {
		return nil, err
	}

	var event models.Event
	title := ""
	if err := q.Where("id = ?", box.EventID).First(&event).Error; err == nil {
		title = event.Name
	}

	boxID := box.ID
	return &Quote{
		Kind:         c.Kind,
		EventID:      box.EventID,
		StageID:      box.StageID,
		BoxID:        &boxID,
		UnitPrice:    box.Price.Round(2),
		UnitsPerLine: box.TicketsPerBox,
		Available:    box.Available,
		Title:        title,
		Subtitle:     box.Name,
	}, nil
}

func loadStage(q *gorm.DB, id uuid.UUID) (*models.Stage, error) {
	var stage models.Stage
	if err := q.Preload("Event").Where("id = ?", id).First(&stage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStageNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load stage")
	}
	return &stage, nil
}

func checkEvent(requested, actual uuid.UUID) error {
	if requested != uuid.Nil && requested != actual {
		return ErrEventMismatch
	}
	return nil
}

func eventName(event *models.Event) string {
	if event == nil {
		return ""
	}
	return event.Name
}
