package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/ticketing-backend/pkg/email"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/metrics"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox/payloads"
)

const emailConsumer = "email-notifications"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

type processedTracker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer turns domain events into customer emails.
type Consumer struct {
	subscription receiver
	idempotency  processedTracker
	mailer       *Mailer
	sender       email.Sender
	logg         *logger.Logger
	metrics      *metrics.NotificationMetrics
}

// NewConsumer builds the email consumer.
func NewConsumer(subscription receiver, tracker processedTracker, mailer *Mailer, sender email.Sender, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		idempotency:  tracker,
		mailer:       mailer,
		sender:       sender,
		logg:         logg,
	}, nil
}

// WithMetrics attaches delivery counters. A nil value disables them.
func (c *Consumer) WithMetrics(m *metrics.NotificationMetrics) *Consumer {
	c.metrics = m
	return c
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process handles one delivery and reports whether it should be redelivered.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := enums.OutboxEventType(attrs["event_type"])
	outcome := c.handle(ctx, messageID, eventType, data)
	c.metrics.IncDelivery(string(eventType), outcome)
	return outcome == metrics.NotificationRetry
}

func (c *Consumer) handle(ctx context.Context, messageID string, eventType enums.OutboxEventType, data []byte) string {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	switch eventType {
	case enums.EventPurchasePaid, enums.EventTicketTransferred:
	default:
		c.logg.Debug(logCtx, "skipping event without email")
		return metrics.NotificationSkipped
	}

	envelope, err := outbox.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return metrics.NotificationDropped
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return metrics.NotificationDropped
	}
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, emailConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return metrics.NotificationRetry
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return metrics.NotificationDuplicate
	}

	msg, err := c.render(eventType, envelope.Data)
	if err == nil {
		err = c.sender.Send(ctx, msg)
	}
	if err != nil {
		c.logg.Error(logCtx, "notification email failed", err)
		if delErr := c.idempotency.Delete(ctx, emailConsumer, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency key", delErr)
		}
		return metrics.NotificationRetry
	}

	c.logg.Info(c.logg.WithField(logCtx, "attachments", len(msg.Attachments)), "notification email sent")
	return metrics.NotificationSent
}

func (c *Consumer) render(eventType enums.OutboxEventType, data json.RawMessage) (email.Message, error) {
	switch eventType {
	case enums.EventPurchasePaid:
		var evt payloads.PurchasePaidEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return email.Message{}, fmt.Errorf("decode purchase paid: %w", err)
		}
		return c.mailer.PurchaseConfirmation(evt)
	case enums.EventTicketTransferred:
		var evt payloads.TicketTransferredEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			return email.Message{}, fmt.Errorf("decode ticket transferred: %w", err)
		}
		return c.mailer.TicketTransferred(evt)
	default:
		return email.Message{}, fmt.Errorf("no email for %s", eventType)
	}
}
