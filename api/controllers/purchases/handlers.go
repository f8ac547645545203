package purchases

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/api/middleware"
	"github.com/angelmondragon/ticketing-backend/api/responses"
	"github.com/angelmondragon/ticketing-backend/api/validators"
	purchasesvc "github.com/angelmondragon/ticketing-backend/internal/purchases"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

type buyerRequest struct {
	FirstName string `json:"first_name" validate:"max=120"`
	LastName  string `json:"last_name" validate:"max=120"`
	Document  string `json:"document" validate:"max=32"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
}

type createPurchaseRequest struct {
	CartID uuid.UUID    `json:"cart_id" validate:"required"`
	Buyer  buyerRequest `json:"buyer"`
}

func (b buyerRequest) toBuyer() purchasesvc.Buyer {
	return purchasesvc.Buyer{
		FirstName: validators.SanitizeString(b.FirstName, 120),
		LastName:  validators.SanitizeString(b.LastName, 120),
		Document:  validators.SanitizeString(b.Document, 32),
		Email:     validators.NormalizeEmail(b.Email),
	}
}

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable")

// PurchaseCreate snapshots the cart into a pending purchase and returns the
// checkout preference the client redirects to.
func PurchaseCreate(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload createPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.CreatePurchase(r.Context(), userID, payload.CartID, payload.Buyer.toBuyer())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkout)
	}
}

func PurchaseList(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		page, err := svc.ListPurchases(r.Context(), userID, pagination.ParseParams(q.Get("page"), q.Get("limit")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func PurchaseDetail(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		purchaseID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetPurchase(r.Context(), userID, purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// PurchaseStatus is polled by the client after returning from checkout.
func PurchaseStatus(svc purchasesvc.Service, logg *logger.Logger) http.HandlerFunc {
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
		purchaseID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.GetPurchaseStatus(r.Context(), userID, purchaseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
