package tickets

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/api/middleware"
	"github.com/angelmondragon/ticketing-backend/api/responses"
	"github.com/angelmondragon/ticketing-backend/api/validators"
	ticketsvc "github.com/angelmondragon/ticketing-backend/internal/tickets"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
	"github.com/angelmondragon/ticketing-backend/pkg/qrcode"
)

const (
	minQRSize = 128
	maxQRSize = 1024
)

type validateRequest struct {
	QRCode string `json:"qr_code" validate:"required,max=128"`
}

type transferRequest struct {
	Name       string `json:"name" validate:"notblank,max=160"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Document   string `json:"document" validate:"notblank,max=32"`
	Message    string `json:"message" validate:"max=2000"`
	Attachment string `json:"attachment" validate:"required"`
}

type specialRequest struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	EventID    uuid.UUID `json:"event_id" validate:"required"`
	TicketType string    `json:"ticket_type" validate:"required,max=64"`
}

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "ticket service unavailable")

// TicketList serves the caller's tickets narrowed by filter.
func TicketList(svc ticketsvc.Service, filter ticketsvc.Filter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		page, err := svc.List(r.Context(), userID, filter, pagination.ParseParams(q.Get("page"), q.Get("limit")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// TicketByQR looks a ticket up at the door without consuming it.
func TicketByQR(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		view, err := svc.FindByQR(r.Context(), validators.SanitizeString(chi.URLParam(r, "qrCode"), 128))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// TicketValidate admits a ticket. A second scan is rejected.
func TicketValidate(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		var payload validateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Validate(r.Context(), payload.QRCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func TicketTransfer(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Transfer(r.Context(), userID, ticketID, ticketsvc.Transferee{
			Name:             payload.Name,
			Email:            validators.NormalizeEmail(payload.Email),
			Document:         payload.Document,
			Message:          payload.Message,
			AttachmentBase64: payload.Attachment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// TicketQRImage renders the caller's ticket QR as a PNG.
func TicketQRImage(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		userID, err := middleware.UserUUID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ticketID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", qrcode.DefaultSize, minQRSize, maxQRSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		png, err := svc.RenderQR(r.Context(), userID, ticketID, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

// TicketSpecial issues a courtesy ticket to a user.
func TicketSpecial(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		var payload specialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.IssueSpecialTicket(r.Context(), payload.UserID, payload.EventID, payload.TicketType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// TicketSpecialList pages the courtesy tickets of the events named by the
// repeated event_id query parameter.
func TicketSpecialList(svc ticketsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, errServiceUnavailable)
			return
		}
		q := r.URL.Query()
		eventIDs := make([]uuid.UUID, 0, len(q["event_id"]))
		for _, raw := range q["event_id"] {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid event id"))
				return
			}
			eventIDs = append(eventIDs, id)
		}

		page, err := svc.ListSpecial(r.Context(), eventIDs, pagination.ParseParams(q.Get("page"), q.Get("limit")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
