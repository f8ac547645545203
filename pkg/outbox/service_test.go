package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

func TestEmitStoresEnvelopeInCallerTransaction(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil, "api-1")
	fixed := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ticketID := uuid.New()
	actor := uuid.New()
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:   enums.EventTicketTransferred,
			AggregateID: ticketID,
			Actor:       &ActorRef{UserID: actor, Role: enums.RoleCustomer},
			Data:        map[string]string{"recipient_email": "b@example.com"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, conn.First(&row, "aggregate_id = ?", ticketID).Error)
	assert.Equal(t, enums.EventTicketTransferred, row.EventType)
	assert.Equal(t, enums.AggregateTicket, row.AggregateType)
	assert.True(t, row.Pending())
	assert.Zero(t, row.AttemptCount)

	env, err := DecodeEnvelope(row.Payload)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, enums.EventTicketTransferred, env.EventType)
	assert.Equal(t, ticketID, env.AggregateID)
	assert.Equal(t, "api-1", env.Producer)
	assert.Equal(t, row.ID.String(), env.EventID)
	assert.True(t, env.OccurredAt.Equal(fixed))
	require.NotNil(t, env.Actor)
	assert.Equal(t, actor, env.Actor.UserID)
	assert.JSONEq(t, `{"recipient_email":"b@example.com"}`, string(env.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	client, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil, "api-1")

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPurchaseCancelled,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   uuid.New(),
			Data:          map[string]string{"reason": "expired"},
		}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.ErrorIs(t, err, gorm.ErrInvalidTransaction)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitRejectsUnknownTypeAndMissingTx(t *testing.T) {
	_, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil, "api-1")

	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventPurchasePaid})
	assert.EqualError(t, err, "transaction required")

	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: "order_created"})
	assert.ErrorContains(t, err, "unknown outbox event type")
}

func TestEmitRejectsAggregateMismatchAndMissingID(t *testing.T) {
	_, conn := dbtest.Client(t)
	svc := NewService(NewRepository(conn), nil, "api-1")

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventPurchasePaid,
		AggregateType: enums.AggregateTicket,
		AggregateID:   uuid.New(),
	})
	assert.ErrorContains(t, err, "belongs to purchase aggregates")

	err = svc.Emit(context.Background(), conn, DomainEvent{EventType: enums.EventPurchasePaid})
	assert.ErrorContains(t, err, "aggregate id required")
}

func TestDecodeEnvelopeRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"version":2,"eventId":"x","data":{}}`))
	assert.ErrorContains(t, err, "unsupported envelope version 2")

	_, err = DecodeEnvelope([]byte(`not json`))
	assert.ErrorContains(t, err, "decode envelope")
}

func TestDeletePublishedBeforeKeepsPendingRows(t *testing.T) {
	_, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-time.Hour)

	published := models.OutboxEvent{EventType: enums.EventPurchasePaid, AggregateType: enums.AggregatePurchase, AggregateID: uuid.New(), Payload: []byte(`{}`), PublishedAt: &old}
	pending := models.OutboxEvent{EventType: enums.EventPurchasePaid, AggregateType: enums.AggregatePurchase, AggregateID: uuid.New(), Payload: []byte(`{}`)}
	require.NoError(t, repo.Insert(conn, published))
	require.NoError(t, repo.Insert(conn, pending))

	n, err := repo.DeletePublishedBefore(context.Background(), conn, cutoff, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left []models.OutboxEvent
	require.NoError(t, conn.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, pending.AggregateID, left[0].AggregateID)
}

func TestDeletePublishedBeforeHonorsLimitOldestFirst(t *testing.T) {
	_, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 3; i > 0; i-- {
		at := cutoff.Add(-time.Duration(i) * time.Hour)
		row := models.OutboxEvent{EventType: enums.EventPurchasePaid, AggregateType: enums.AggregatePurchase, AggregateID: uuid.New(), Payload: []byte(`{}`), PublishedAt: &at}
		require.NoError(t, repo.Insert(conn, row))
		ids = append(ids, row.AggregateID)
	}

	n, err := repo.DeletePublishedBefore(context.Background(), conn, cutoff, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var left []models.OutboxEvent
	require.NoError(t, conn.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, ids[2], left[0].AggregateID)
}

func TestParkKeepsFirstEntryPerEvent(t *testing.T) {
	_, conn := dbtest.Client(t)
	dlq := NewDLQRepository(conn)
	at := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	event := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPurchasePaid, AggregateType: enums.AggregatePurchase, AggregateID: uuid.New(), Payload: []byte(`{}`)}

	require.NoError(t, dlq.Park(conn, event, enums.OutboxDLQReasonNonRetryable, errors.New("bad payload"), 1, at))
	require.NoError(t, dlq.Park(conn, event, enums.OutboxDLQReasonMaxAttempts, errors.New("later"), 5, at.Add(time.Hour)))

	parked, err := dlq.ListByAggregate(nil, event.AggregateID)
	require.NoError(t, err)
	require.Len(t, parked, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, parked[0].ErrorReason)
	assert.True(t, parked[0].FailedAt.Equal(at))

	err = dlq.Park(conn, event, "gave_up", nil, 1, at)
	assert.ErrorContains(t, err, "unknown dlq reason")
}
