package mercadopagowebhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/internal/purchases"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/mercadopago"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox/payloads"
)

// NotificationTypePayment is the only notification type that is reconciled.
const NotificationTypePayment = "payment"

// ErrContentTampered means the purchase lines no longer match the hash taken at checkout.
var ErrContentTampered = pkgerrors.New(pkgerrors.CodeIntegrity, "purchase content hash mismatch")

// Outcome describes what a notification did.
type Outcome string

const (
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeAlreadyPaid   Outcome = "already_paid"
	OutcomePaid          Outcome = "paid"
	OutcomeCancelled     Outcome = "cancelled"
	OutcomePending       Outcome = "pending"
	OutcomeLateApproval  Outcome = "late_approval"
	OutcomeUnknownStatus Outcome = "unknown_status"
)

// Notification is the body MercadoPago posts to the webhook.
type Notification struct {
	ID     string
	Type   string
	Action string
	DataID string
}

type paymentGetter interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type ticketIssuer interface {
	IssueForPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase, lines []models.PurchaseLine) ([]models.Ticket, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Purchases         purchases.Repository
	Payments          paymentGetter
	Issuer            ticketIssuer
	Outbox            outbox.Emitter
	TransactionRunner txRunner
	Guard             *Guard
	Metrics           *metrics.CheckoutMetrics
	Logger            *logger.Logger
	Now               func() time.Time
}

type Service struct {
	purchases purchases.Repository
	payments  paymentGetter
	issuer    ticketIssuer
	outbox    outbox.Emitter
	txRunner  txRunner
	guard     *Guard
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Purchases == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "purchases repo required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment client required")
	}
	if params.Issuer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ticket issuer required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox emitter required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		purchases: params.Purchases,
		payments:  params.Payments,
		issuer:    params.Issuer,
		outbox:    params.Outbox,
		txRunner:  params.TransactionRunner,
		guard:     params.Guard,
		metrics:   params.Metrics,
		logg:      params.Logger,
		now:       now,
	}, nil
}

// HandleNotification reconciles a purchase with the provider's view of a payment.
// Repeated deliveries of a settled payment are no-ops.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (Outcome, error) {
	if n.Type != NotificationTypePayment {
		return OutcomeIgnored, nil
	}
	paymentID := strings.TrimSpace(n.DataID)
	if paymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "payment id missing")
	}
	if s.logg != nil {
		ctx = s.logg.WithPaymentID(ctx, paymentID)
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return "", err
	}

	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, paymentID, payment.Status)
		if err != nil {
			s.warn(ctx, "webhook guard unavailable, continuing", err)
		} else if !claimed {
			s.metrics.IncWebhook(string(OutcomeDuplicate))
			return OutcomeDuplicate, nil
		}
	}

	outcome, err := s.reconcile(ctx, paymentID, payment)
	if err != nil {
		if s.guard != nil {
			if relErr := s.guard.Release(ctx, paymentID, payment.Status); relErr != nil {
				s.warn(ctx, "release webhook guard", relErr)
			}
		}
		return "", err
	}
	s.metrics.IncWebhook(string(outcome))
	return outcome, nil
}

func (s *Service) reconcile(ctx context.Context, paymentID string, payment *mercadopago.Payment) (Outcome, error) {
	purchaseID, err := uuid.Parse(strings.TrimSpace(payment.ExternalReference))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payment external reference is not a purchase id")
	}
	if s.logg != nil {
		ctx = s.logg.WithPurchaseID(ctx, purchaseID.String())
	}

	var outcome Outcome
	var paidEvent *payloads.PurchasePaidEvent
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.purchases.WithTx(tx)
		purchase, err := repo.FindForSettlement(ctx, purchaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return purchases.ErrPurchaseNotFound
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load purchase")
		}

		// Checked under the row lock so a concurrent delivery cannot settle twice.
		if purchase.Status == enums.PurchaseStatusPaid {
			outcome = OutcomeAlreadyPaid
			return nil
		}
		if purchases.SnapshotHash(purchase.Lines) != purchase.ContentHash {
			return ErrContentTampered
		}

		switch payment.Status {
		case mercadopago.StatusApproved:
			now := s.now().UTC()
			if purchase.Status == enums.PurchaseStatusCancelled && now.After(purchase.PaymentDeadline) {
				outcome = OutcomeLateApproval
				return repo.StampPaymentID(ctx, purchase.ID, paymentID)
			}
			paidEvent, err = s.settle(ctx, tx, repo, purchase, paymentID, payment, now)
			if err != nil {
				return err
			}
			outcome = OutcomePaid
			return nil

		case mercadopago.StatusCancelled, mercadopago.StatusRejected:
			outcome = OutcomeCancelled
			return s.cancel(ctx, tx, repo, purchase, paymentID, payment.Status)

		case mercadopago.StatusPending:
			outcome = OutcomePending
			return repo.StampPaymentID(ctx, purchase.ID, paymentID)

		default:
			outcome = OutcomeUnknownStatus
			return nil
		}
	})
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeIntegrity) {
			s.warn(ctx, "purchase content changed after checkout", err)
		}
		return "", err
	}

	s.log(ctx, outcome, payment, paidEvent)
	return outcome, nil
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, repo purchases.Repository, purchase *models.Purchase, paymentID string, payment *mercadopago.Payment, now time.Time) (*payloads.PurchasePaidEvent, error) {
	method := payment.PaymentTypeID
	if method == "" {
		method = purchase.PaymentMethod
	}
	total := payment.TransactionAmount
	if total.IsZero() {
		total = purchase.TotalPrice
	}
	if err := repo.MarkPaid(ctx, purchase.ID, purchases.Settlement{
		ProviderPaymentID: paymentID,
		PaymentMethod:     method,
		TotalPrice:        total,
		PaidAt:            now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark purchase paid")
	}

	issued, err := s.issuer.IssueForPurchase(ctx, tx, purchase, purchase.Lines)
	if err != nil {
		return nil, err
	}

	if err := cart.NewRepository(tx).MarkPaidAndEmpty(ctx, purchase.CartID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "empty cart")
	}

	event := payloads.PurchasePaidEvent{
		PurchaseID:        purchase.ID,
		UserID:            purchase.UserID,
		BuyerName:         strings.TrimSpace(purchase.BuyerFirstName + " " + purchase.BuyerLastName),
		BuyerEmail:        purchase.BuyerEmail,
		TotalPrice:        total.StringFixed(2),
		PaymentMethod:     method,
		ProviderPaymentID: paymentID,
		PaidAt:            now,
		Tickets:           make([]payloads.IssuedTicket, 0, len(issued)),
	}
	for _, t := range issued {
		summary := payloads.IssuedTicket{TicketID: t.ID, TicketType: t.TicketType, QRCode: t.QRCode}
		if t.Event != nil {
			summary.EventName = t.Event.Name
		}
		event.Tickets = append(event.Tickets, summary)
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchasePaid,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   purchase.ID,
		Actor:         &outbox.ActorRef{UserID: purchase.UserID},
		Data:          event,
		OccurredAt:    now,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit purchase paid")
	}
	return &event, nil
}

func (s *Service) cancel(ctx context.Context, tx *gorm.DB, repo purchases.Repository, purchase *models.Purchase, paymentID, status string) error {
	if err := repo.MarkCancelled(ctx, purchase.ID, paymentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel purchase")
	}
	if _, err := cart.NewRepository(tx).ReactivateProcessing(ctx, []uuid.UUID{purchase.CartID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reactivate cart")
	}
	if purchase.Status == enums.PurchaseStatusCancelled {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseCancelled,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   purchase.ID,
		Data: payloads.PurchaseCancelledEvent{
			PurchaseID: purchase.ID,
			UserID:     purchase.UserID,
			Reason:     status,
		},
	})
}

func (s *Service) log(ctx context.Context, outcome Outcome, payment *mercadopago.Payment, paid *payloads.PurchasePaidEvent) {
	if outcome == OutcomeLateApproval {
		s.metrics.IncLateApproval()
	}
	if s.logg == nil {
		return
	}
	fields := map[string]any{
		"outcome":        outcome,
		"payment_status": payment.Status,
		"status_detail":  payment.StatusDetail,
	}
	if paid != nil {
		fields["tickets_issued"] = len(paid.Tickets)
	}
	logCtx := s.logg.WithFields(ctx, fields)
	switch outcome {
	case OutcomeLateApproval:
		s.logg.Warn(logCtx, "approval arrived after the purchase expired; not honored")
	case OutcomeUnknownStatus:
		s.logg.Warn(logCtx, "unhandled payment status")
	default:
		s.logg.Info(logCtx, "payment notification reconciled")
	}
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}
