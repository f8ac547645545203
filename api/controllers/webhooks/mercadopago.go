package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/ticketing-backend/api/responses"
	mpwebhook "github.com/angelmondragon/ticketing-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
)

const maxWebhookBody = 64 << 10

type MercadoPagoWebhookService interface {
	HandleNotification(ctx context.Context, n mpwebhook.Notification) (mpwebhook.Outcome, error)
}

// notificationID accepts the numeric and string ids the provider mixes.
type notificationID string

func (n *notificationID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = notificationID(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = notificationID(num.String())
	return nil
}

type notificationBody struct {
	ID     notificationID `json:"id"`
	Type   string         `json:"type"`
	Action string         `json:"action"`
	Data   struct {
		ID notificationID `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook receives payment notifications. When a webhook secret
// is configured the x-signature header must match before anything is read
// from the provider.
func MercadoPagoWebhook(svc MercadoPagoWebhookService, webhookSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var body notificationBody
		if len(bytes.TrimSpace(payload)) > 0 {
			if err := json.Unmarshal(payload, &body); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification body"))
				return
			}
		}

		q := r.URL.Query()
		n := mpwebhook.Notification{
			ID:     string(body.ID),
			Type:   firstNonEmpty(body.Type, q.Get("type"), q.Get("topic")),
			Action: body.Action,
			DataID: firstNonEmpty(q.Get("data.id"), string(body.Data.ID), q.Get("id")),
		}

		if webhookSecret != "" {
			err := mercadopago.VerifySignature(webhookSecret, r.Header.Get("x-signature"), r.Header.Get("x-request-id"), n.DataID)
			if err != nil {
				code := pkgerrors.CodeUnauthorized
				if errors.Is(err, mercadopago.ErrSignatureMissing) {
					code = pkgerrors.CodeValidation
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(code, err, "verify signature"))
				return
			}
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"notification_id":   n.ID,
				"notification_type": n.Type,
				"action":            n.Action,
			})
		}

		outcome, err := svc.HandleNotification(ctx, n)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", string(outcome)), "mercadopago notification handled")
		}
		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
