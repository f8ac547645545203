package tickets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
	"github.com/angelmondragon/ticketing-backend/pkg/qrcode"
)

const pdfDataURIPrefix = "data:application/pdf;base64,"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers the ticket lifecycle after issuance.
type Service interface {
	IssueSpecialTicket(ctx context.Context, userID, eventID uuid.UUID, ticketType string) (*TicketView, error)
	Validate(ctx context.Context, qr string) (*TicketView, error)
	Transfer(ctx context.Context, userID, ticketID uuid.UUID, to Transferee) (*TicketView, error)
	FindByQR(ctx context.Context, qr string) (*TicketView, error)
	List(ctx context.Context, userID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[TicketView], error)
	ListSpecial(ctx context.Context, eventIDs []uuid.UUID, params pagination.Params) (pagination.Page[TicketView], error)
	RenderQR(ctx context.Context, userID, ticketID uuid.UUID, size int) ([]byte, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	issuer  *Issuer
	outbox  outbox.Emitter
	logg    *logger.Logger
	now     func() time.Time
	special func(trigram string) (string, error)
}

func NewService(repo *Repository, tx txRunner, issuer *Issuer, emitter outbox.Emitter, logg *logger.Logger, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("ticket issuer required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    repo,
		tx:      tx,
		issuer:  issuer,
		outbox:  emitter,
		logg:    logg,
		now:     now,
		special: qrcode.SpecialPayload,
	}, nil
}

// IssueSpecialTicket mints a courtesy ticket that belongs to no stage or purchase.
func (s *service) IssueSpecialTicket(ctx context.Context, userID, eventID uuid.UUID, ticketType string) (*TicketView, error) {
	ticketType = strings.TrimSpace(ticketType)
	if userID == uuid.Nil || ticketType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and ticket type are required")
	}

	var out *models.Ticket
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindEvent(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load event")
		}
		if !qrcode.ValidTrigram(event.Trigram) {
			return ErrInvalidTrigram
		}

		t := &models.Ticket{EventID: event.ID, UserID: userID, TicketType: ticketType}
		if err := s.issuer.insert(ctx, repo, t, func() (string, error) { return s.special(event.Trigram) }); err != nil {
			return err
		}
		t.Event = event
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"ticket_id": out.ID.String(), "event_id": eventID.String()}), "special ticket issued")
	}
	view := NewTicketView(out)
	return &view, nil
}

// Validate admits the ticket holding qr. A second scan fails with ErrTicketAlreadyUsed.
func (s *service) Validate(ctx context.Context, qr string) (*TicketView, error) {
	t, err := s.findByQR(ctx, qr)
	if err != nil {
		return nil, err
	}
	if t.Used {
		return nil, ErrTicketAlreadyUsed
	}

	at := s.now().UTC()
	n, err := s.repo.MarkUsed(ctx, t.ID, at)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark ticket used")
	}
	if n == 0 {
		return nil, ErrTicketAlreadyUsed
	}
	t.Used = true
	t.UsedAt = &at

	if s.logg != nil {
		s.logg.Info(s.logg.WithTicketID(ctx, t.ID.String()), "ticket validated")
	}
	view := NewTicketView(t)
	return &view, nil
}

func (s *service) Transfer(ctx context.Context, userID, ticketID uuid.UUID, to Transferee) (*TicketView, error) {
	to.Name = strings.TrimSpace(to.Name)
	to.Email = strings.TrimSpace(to.Email)
	to.Document = strings.TrimSpace(to.Document)
	if to.Name == "" || to.Email == "" || to.Document == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transferee name, email and document are required")
	}
	attachment, err := pdfPayload(to.AttachmentBase64)
	if err != nil {
		return nil, err
	}

	var out *models.Ticket
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := repo.FindForUser(ctx, ticketID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
		}
		switch {
		case t.Used:
			return ErrTicketAlreadyUsed
		case t.Transferred:
			return ErrTicketAlreadyTransferred
		case t.QRCode == "":
			return ErrTicketWithoutQR
		}

		at := s.now().UTC()
		n, err := repo.MarkTransferred(ctx, t.ID, userID, to, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "transfer ticket")
		}
		if n == 0 {
			return ErrTicketAlreadyTransferred
		}
		t.Transferred = true
		t.TransferredAt = &at
		t.TransfereeName = &to.Name
		t.TransfereeEmail = &to.Email
		t.TransfereeDocument = &to.Document

		eventName := ""
		if t.Event != nil {
			eventName = t.Event.Name
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventTicketTransferred,
			AggregateType: enums.AggregateTicket,
			AggregateID:   t.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.TicketTransferredEvent{
				TicketID:         t.ID,
				FromUserID:       userID,
				EventName:        eventName,
				RecipientName:    to.Name,
				RecipientEmail:   to.Email,
				Message:          strings.TrimSpace(to.Message),
				AttachmentBase64: attachment,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit ticket transferred")
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithTicketID(ctx, ticketID.String()), "ticket transferred")
	}
	view := NewTicketView(out)
	return &view, nil
}

func (s *service) FindByQR(ctx context.Context, qr string) (*TicketView, error) {
	t, err := s.findByQR(ctx, qr)
	if err != nil {
		return nil, err
	}
	view := NewTicketView(t)
	return &view, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, filter Filter, params pagination.Params) (pagination.Page[TicketView], error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListForUser(ctx, userID, filter, params)
	if err != nil {
		return pagination.Page[TicketView]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list tickets")
	}
	items := make([]TicketView, 0, len(rows))
	for i := range rows {
		items = append(items, NewTicketView(&rows[i]))
	}
	return pagination.NewPage(params, total, items), nil
}

// ListSpecial pages the courtesy tickets issued for any of eventIDs.
func (s *service) ListSpecial(ctx context.Context, eventIDs []uuid.UUID, params pagination.Params) (pagination.Page[TicketView], error) {
	if len(eventIDs) == 0 {
		return pagination.Page[TicketView]{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one event id is required")
	}
	params = params.Normalize()
	rows, total, err := s.repo.ListSpecial(ctx, eventIDs, params)
	if err != nil {
		return pagination.Page[TicketView]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list special tickets")
	}
	items := make([]TicketView, 0, len(rows))
	for i := range rows {
		items = append(items, NewTicketView(&rows[i]))
	}
	return pagination.NewPage(params, total, items), nil
}

// RenderQR returns the PNG of a ticket owned by userID.
func (s *service) RenderQR(ctx context.Context, userID, ticketID uuid.UUID, size int) ([]byte, error) {
	t, err := s.repo.FindForUser(ctx, ticketID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
	}
	if t.QRCode == "" {
		return nil, ErrTicketWithoutQR
	}
	png, err := qrcode.PNG(t.QRCode, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr")
	}
	return png, nil
}

func (s *service) findByQR(ctx context.Context, qr string) (*models.Ticket, error) {
	qr = strings.TrimSpace(qr)
	if qr == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code is required")
	}
	t, err := s.repo.FindByQR(ctx, qr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load ticket")
	}
	return t, nil
}

// pdfPayload checks a PDF data URI and returns its base64 body.
func pdfPayload(uri string) (string, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, pdfDataURIPrefix) {
		return "", ErrInvalidAttachment
	}
	body := strings.TrimPrefix(uri, pdfDataURIPrefix)
	if body == "" {
		return "", ErrInvalidAttachment
	}
	if _, err := base64.StdEncoding.DecodeString(body); err != nil {
		return "", ErrInvalidAttachment
	}
	return body, nil
}
