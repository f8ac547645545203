package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ticketing-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

func TestFinishEndedOnlyTouchesPublishedPastEvents(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := func(name string, status enums.EventStatus, ends time.Time) uuid.UUID {
		e := models.Event{
			ID:       uuid.New(),
			Name:     name,
			Trigram:  "EVT",
			Status:   status,
			StartsAt: ends.Add(-6 * time.Hour),
			EndsAt:   ends,
		}
		require.NoError(t, conn.Create(&e).Error)
		return e.ID
	}
	ended := seed("ended", enums.EventStatusPublished, now.Add(-time.Minute))
	upcoming := seed("upcoming", enums.EventStatusPublished, now.Add(time.Hour))
	draft := seed("draft", enums.EventStatusDraft, now.Add(-48*time.Hour))

	repo := NewRepository(conn)
	n, err := repo.FinishEnded(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	statusOf := func(id uuid.UUID) enums.EventStatus {
		var e models.Event
		require.NoError(t, conn.First(&e, "id = ?", id).Error)
		return e.Status
	}
	assert.Equal(t, enums.EventStatusFinished, statusOf(ended))
	assert.Equal(t, enums.EventStatusPublished, statusOf(upcoming))
	assert.Equal(t, enums.EventStatusDraft, statusOf(draft))

	n, err = repo.FinishEnded(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
