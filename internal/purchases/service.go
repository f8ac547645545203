package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/ticketing-backend/pkg/pagination"
)

const (
	// PaymentMethodMercadoPago is recorded on purchases until the provider reports the payment type.
	PaymentMethodMercadoPago = "mercado_pago"

	// CancelReasonExpired marks purchases cancelled because the payment window closed.
	CancelReasonExpired = "expired"

	defaultCurrency = "COP"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Buyer is the contact data captured at checkout.
type Buyer struct {
	FirstName string
	LastName  string
	Document  string
	Email     string
}

// Checkout is the result of a successful CreatePurchase.
type Checkout struct {
	PurchaseID   uuid.UUID `json:"purchase_id"`
	PreferenceID string    `json:"preference_id"`
	InitPoint    string    `json:"init_point"`
}

// Status is the compact polling view of a purchase.
type Status struct {
	ID         uuid.UUID            `json:"id"`
	Status     enums.PurchaseStatus `json:"status"`
	CreatedAt  time.Time            `json:"created_at"`
	PaidAt     *time.Time           `json:"paid_at,omitempty"`
	TotalPrice string               `json:"total_price"`
}

// Service turns carts into purchases and answers purchase queries.
type Service interface {
	CreatePurchase(ctx context.Context, userID, cartID uuid.UUID, buyer Buyer) (*Checkout, error)
	ListPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[PurchaseView], error)
	GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*PurchaseView, error)
	GetPurchaseStatus(ctx context.Context, userID, purchaseID uuid.UUID) (*Status, error)
	ExpireOverdue(ctx context.Context, userID *uuid.UUID, limit int) (int64, error)
}

// Options carries the checkout settings read from config.
type Options struct {
	PurchaseWindow time.Duration
	Currency       string
}

type service struct {
	repo     Repository
	tx       txRunner
	provider PaymentProvider
	outbox   outbox.Emitter
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	opts     Options
	now      func() time.Time
}

// NewService wires the purchase orchestrator.
func NewService(repo Repository, tx txRunner, provider PaymentProvider, emitter outbox.Emitter, m *metrics.CheckoutMetrics, logg *logger.Logger, opts Options, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if provider == nil {
		return nil, fmt.Errorf("payment provider required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if opts.PurchaseWindow <= 0 {
		return nil, fmt.Errorf("purchase window must be positive")
	}
	if strings.TrimSpace(opts.Currency) == "" {
		opts.Currency = defaultCurrency
	}
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     repo,
		tx:       tx,
		provider: provider,
		outbox:   emitter,
		metrics:  m,
		logg:     logg,
		opts:     opts,
		now:      now,
	}, nil
}

// CreatePurchase snapshots the cart into a pending purchase and opens a
// provider checkout for it. Nothing is committed unless the provider call succeeds.
func (s *service) CreatePurchase(ctx context.Context, userID, cartID uuid.UUID, buyer Buyer) (*Checkout, error) {
	if err := buyer.validate(); err != nil {
		return nil, err
	}

	var out *Checkout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := cart.NewRepository(tx)
		c, err := carts.FindByIDForUser(ctx, cartID, userID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return cart.ErrCartNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if c.Status != enums.CartStatusActive {
			return cart.ErrCartNotActive
		}
		if len(c.Lines) == 0 {
			return cart.ErrCartEmpty
		}

		now := s.now().UTC()
		purchase := &models.Purchase{
			ID:              uuid.New(),
			UserID:          userID,
			CartID:          c.ID,
			Status:          enums.PurchaseStatusPending,
			PaymentMethod:   PaymentMethodMercadoPago,
			Subtotal:        c.Subtotal,
			ServiceFee:      c.ServiceFee,
			TotalPrice:      c.Total,
			TicketCount:     c.TicketCount,
			PaymentDeadline: now.Add(s.opts.PurchaseWindow),
			BuyerFirstName:  strings.TrimSpace(buyer.FirstName),
			BuyerLastName:   strings.TrimSpace(buyer.LastName),
			BuyerDocument:   strings.TrimSpace(buyer.Document),
			BuyerEmail:      strings.TrimSpace(buyer.Email),
		}
		lines := snapshotLines(purchase.ID, c.Lines)
		purchase.ContentHash = SnapshotHash(lines)

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create purchase")
		}
		if err := repo.CreateLines(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "snapshot purchase lines")
		}

		pref, err := s.provider.CreatePreference(ctx, s.preferenceFor(purchase, now))
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment preference")
		}
		if err := repo.SetPreferenceID(ctx, purchase.ID, pref.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store preference id")
		}
		if err := carts.Transition(ctx, c.ID, c.Status, enums.CartStatusProcessingPayment); err != nil {
			if errors.Is(err, cart.ErrCartStatusChanged) {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock cart for payment")
		}

		out = &Checkout{PurchaseID: purchase.ID, PreferenceID: pref.ID, InitPoint: pref.InitPoint}
		return nil
	})
	if err != nil {
		s.metrics.IncPurchase("failed")
		return nil, err
	}

	s.metrics.IncPurchase("created")
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"purchase_id":   out.PurchaseID.String(),
			"cart_id":       cartID.String(),
			"preference_id": out.PreferenceID,
		})
		s.logg.Info(logCtx, "purchase created")
	}
	return out, nil
}

func (s *service) preferenceFor(p *models.Purchase, now time.Time) mercadopago.PreferenceRequest {
	return mercadopago.PreferenceRequest{
		Items: []mercadopago.Item{{
			ID:         p.ID.String(),
			Title:      "Cart of " + p.BuyerFirstName,
			CurrencyID: s.opts.Currency,
			Quantity:   1,
			UnitPrice:  p.TotalPrice.Round(0),
		}},
		Payer: mercadopago.Payer{
			FirstName: p.BuyerFirstName,
			LastName:  p.BuyerLastName,
			Email:     p.BuyerEmail,
		},
		ExternalReference: p.ID.String(),
		ExpiresFrom:       now,
		ExpiresTo:         p.PaymentDeadline,
	}
}

func (s *service) ListPurchases(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[PurchaseView], error) {
	params = params.Normalize()
	if _, err := s.ExpireOverdue(ctx, &userID, 0); err != nil {
		return pagination.Page[PurchaseView]{}, err
	}
	rows, total, err := s.repo.ListForUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[PurchaseView]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list purchases")
	}
	items := make([]PurchaseView, 0, len(rows))
	for i := range rows {
		items = append(items, NewPurchaseView(&rows[i]))
	}
	return pagination.NewPage(params, total, items), nil
}

func (s *service) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (*PurchaseView, error) {
	p, err := s.load(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	view := NewPurchaseView(p)
	return &view, nil
}

func (s *service) GetPurchaseStatus(ctx context.Context, userID, purchaseID uuid.UUID) (*Status, error) {
	p, err := s.load(ctx, userID, purchaseID)
	if err != nil {
		return nil, err
	}
	return &Status{
		ID:         p.ID,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
		PaidAt:     p.PaidAt,
		TotalPrice: p.TotalPrice.StringFixed(2),
	}, nil
}

func (s *service) load(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	p, err := s.repo.FindForUser(ctx, purchaseID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase")
	}
	return p, nil
}

// ExpireOverdue cancels pending purchases past their deadline, returns their
// carts to active and queues a purchase_cancelled event for each. A nil userID
// sweeps every user; limit <= 0 means no limit.
func (s *service) ExpireOverdue(ctx context.Context, userID *uuid.UUID, limit int) (int64, error) {
	var cancelled int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		overdue, err := repo.ListOverdue(ctx, userID, s.now().UTC(), limit)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list overdue purchases")
		}
		if len(overdue) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(overdue))
		for _, p := range overdue {
			ids = append(ids, p.ID)
		}

		done, err := repo.CancelPending(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel overdue purchases")
		}
		if len(done) == 0 {
			return nil
		}
		cancelled = int64(len(done))

		wasCancelled := make(map[uuid.UUID]struct{}, len(done))
		for _, id := range done {
			wasCancelled[id] = struct{}{}
		}
		expired := make([]models.Purchase, 0, len(done))
		cartIDs := make([]uuid.UUID, 0, len(done))
		for _, p := range overdue {
			if _, ok := wasCancelled[p.ID]; !ok {
				continue
			}
			expired = append(expired, p)
			cartIDs = append(cartIDs, p.CartID)
		}
		if _, err := cart.NewRepository(tx).ReactivateProcessing(ctx, cartIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reactivate carts")
		}

		for _, p := range expired {
			event := outbox.DomainEvent{
				EventType:     enums.EventPurchaseCancelled,
				AggregateType: enums.AggregatePurchase,
				AggregateID:   p.ID,
				Data: payloads.PurchaseCancelledEvent{
					PurchaseID: p.ID,
					UserID:     p.UserID,
					Reason:     CancelReasonExpired,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit purchase cancelled")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		s.metrics.AddExpired(cancelled)
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "cancelled", cancelled), "expired overdue purchases")
		}
	}
	return cancelled, nil
}

func (b Buyer) validate() error {
	missing := []string{}
	if strings.TrimSpace(b.FirstName) == "" {
		missing = append(missing, "first_name")
	}
	if strings.TrimSpace(b.LastName) == "" {
		missing = append(missing, "last_name")
	}
	if strings.TrimSpace(b.Document) == "" {
		missing = append(missing, "document")
	}
	if strings.TrimSpace(b.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer data incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func snapshotLines(purchaseID uuid.UUID, lines []models.CartLine) []models.PurchaseLine {
	out := make([]models.PurchaseLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.PurchaseLine{
			ID:           uuid.New(),
			PurchaseID:   purchaseID,
			Kind:         l.Kind,
			EventID:      l.EventID,
			StageID:      l.StageID,
			PackageID:    l.PackageID,
			BoxID:        l.BoxID,
			TicketType:   l.TicketType,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			UnitsPerLine: l.UnitsPerLine,
			TicketCount:  l.TicketCount,
		})
	}
	return out
}
