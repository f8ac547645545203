package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
)

// DomainEvent is what services hand to Emit. AggregateType may be left empty;
// it is derived from EventType.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

// Emitter is the narrow surface services use to queue events inside their transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo     *Repository
	logg     *logger.Logger
	producer string
	now      func() time.Time
}

// NewService builds the emitter. producer is stamped on every envelope so
// consumers can tell which process queued an event.
func NewService(repo *Repository, logg *logger.Logger, producer string) *Service {
	return &Service{repo: repo, logg: logg, producer: producer, now: time.Now}
}

// Emit stores event in tx. Nothing is published until tx commits and the
// outbox publisher picks the row up.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	row, env, err := s.build(event)
	if err != nil {
		return err
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":       env.EventID,
			"event_type":     event.EventType,
			"aggregate_type": row.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
		}), "outbox event queued")
	}
	return nil
}

func (s *Service) build(event DomainEvent) (models.OutboxEvent, PayloadEnvelope, error) {
	want := event.EventType.Aggregate()
	switch {
	case !event.EventType.IsValid():
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("unknown outbox event type %q", event.EventType)
	case event.AggregateID == uuid.Nil:
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("%s: aggregate id required", event.EventType)
	case event.AggregateType == "":
		event.AggregateType = want
	case event.AggregateType != want:
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("%s belongs to %s aggregates, not %s", event.EventType, want, event.AggregateType)
	}

	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, fmt.Errorf("encode %s data: %w", event.EventType, err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = s.now()
	}
	id := uuid.New()
	env := PayloadEnvelope{
		Version:     envelopeVersion,
		EventID:     id.String(),
		EventType:   event.EventType,
		AggregateID: event.AggregateID,
		OccurredAt:  occurred.UTC(),
		Producer:    s.producer,
		Actor:       event.Actor,
		Data:        data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return models.OutboxEvent{}, PayloadEnvelope{}, err
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, env, nil
}
