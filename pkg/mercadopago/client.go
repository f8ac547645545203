package mercadopago

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"

	tixconfig "github.com/angelmondragon/ticketing-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

const autoReturnApproved = "approved"

type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// Client creates checkout preferences and fetches payments through the MercadoPago SDK.
type Client struct {
	preferences preferenceAPI
	payments    paymentAPI
	cfg         tixconfig.MercadoPagoConfig
	logg        *logger.Logger
}

// NewClient builds an SDK-backed client from the configured access token.
func NewClient(cfg tixconfig.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("mercadopago access token is required")
	}
	sdkCfg, err := config.New(cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return &Client{
		preferences: preference.NewClient(sdkCfg),
		payments:    payment.NewClient(sdkCfg),
		cfg:         cfg,
		logg:        logg,
	}, nil
}

// CreatePreference registers a hosted checkout and returns its handle.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference requires at least one item")
	}

	items := make([]preference.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		price, _ := item.UnitPrice.Round(2).Float64()
		items = append(items, preference.ItemRequest{
			ID:         item.ID,
			Title:      item.Title,
			CurrencyID: item.CurrencyID,
			Quantity:   item.Quantity,
			UnitPrice:  price,
		})
	}

	request := preference.Request{
		Items:             items,
		ExternalReference: req.ExternalReference,
		NotificationURL:   firstNonEmpty(req.NotificationURL, c.cfg.NotificationURL),
		BackURLs: &preference.BackURLsRequest{
			Success: firstNonEmpty(req.SuccessURL, c.cfg.SuccessURL),
			Pending: firstNonEmpty(req.PendingURL, c.cfg.PendingURL),
			Failure: firstNonEmpty(req.FailureURL, c.cfg.FailureURL),
		},
		AutoReturn: autoReturnApproved,
		Payer: &preference.PayerRequest{
			Name:    req.Payer.FirstName,
			Surname: req.Payer.LastName,
			Email:   req.Payer.Email,
		},
	}
	if !req.ExpiresTo.IsZero() {
		from := req.ExpiresFrom
		to := req.ExpiresTo
		request.Expires = true
		request.ExpirationDateFrom = &from
		request.ExpirationDateTo = &to
	}

	resp, err := c.preferences.Create(ctx, request)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment preference")
	}
	if resp == nil || resp.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider returned an empty preference")
	}

	if c.logg != nil {
		ctx = c.logg.WithFields(ctx, map[string]any{
			"preference_id":      resp.ID,
			"external_reference": req.ExternalReference,
		})
		c.logg.Info(ctx, "payment preference created")
	}

	return &Preference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

// GetPayment fetches the authoritative state of a payment by its provider id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	id, err := strconv.Atoi(strings.TrimSpace(paymentID))
	if err != nil || id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment id")
	}

	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch payment")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment provider returned no payment")
	}

	return &Payment{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
		PaymentTypeID:     resp.PaymentTypeID,
		PaymentMethodID:   resp.PaymentMethodID,
		TransactionAmount: decimal.NewFromFloat(resp.TransactionAmount).Round(2),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
