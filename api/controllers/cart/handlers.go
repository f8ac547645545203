package cart

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/api/middleware"
	"github.com/angelmondragon/ticketing-backend/api/responses"
	"github.com/angelmondragon/ticketing-backend/api/validators"
	cartsvc "github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

var errServiceUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")

// cartAction runs against the caller's cart and returns its new state.
type cartAction func(ctx context.Context, userID uuid.UUID, r *http.Request) (*models.Cart, error)

// cartHandler resolves the caller, runs action and renders the cart view.
func cartHandler(svc cartsvc.Service, logg *logger.Logger, status int, action cartAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errServiceUnavailable)
			return
		}
		userID, err := middleware.UserUUID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		c, err := action(ctx, userID, r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if c == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		responses.WriteSuccessStatus(w, status, cartsvc.NewView(c))
	}
}

// CartFetch returns the caller's open cart, creating it on first access.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusOK, func(ctx context.Context, userID uuid.UUID, _ *http.Request) (*models.Cart, error) {
		return svc.GetOrCreateCart(ctx, userID)
	})
}

// CartAddLine prices and appends a line. Prices in the body are rejected.
func CartAddLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusCreated, func(ctx context.Context, userID uuid.UUID, r *http.Request) (*models.Cart, error) {
		var payload addLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddLine(ctx, userID, payload.toInput())
	})
}

func CartUpdateLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusOK, func(ctx context.Context, userID uuid.UUID, r *http.Request) (*models.Cart, error) {
		lineID, err := validators.PathUUID(r, "lineId")
		if err != nil {
			return nil, err
		}
		var payload updateLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateLine(ctx, userID, lineID, payload.Quantity)
	})
}

func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusOK, func(ctx context.Context, userID uuid.UUID, r *http.Request) (*models.Cart, error) {
		lineID, err := validators.PathUUID(r, "lineId")
		if err != nil {
			return nil, err
		}
		return svc.RemoveLine(ctx, userID, lineID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusOK, func(ctx context.Context, userID uuid.UUID, _ *http.Request) (*models.Cart, error) {
		return svc.ClearCart(ctx, userID)
	})
}

// CartRecompute re-prices every line against current stage and package prices.
func CartRecompute(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusOK, func(ctx context.Context, userID uuid.UUID, _ *http.Request) (*models.Cart, error) {
		return svc.RecomputeTotals(ctx, userID)
	})
}

// CartAbandon closes the active cart. The next fetch opens a fresh one.
func CartAbandon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, http.StatusNoContent, func(ctx context.Context, userID uuid.UUID, _ *http.Request) (*models.Cart, error) {
		return nil, svc.MarkAbandoned(ctx, userID)
	})
}
