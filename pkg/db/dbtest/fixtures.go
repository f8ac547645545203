package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

// Catalog is a small published event with one open stage, one package and one box.
type Catalog struct {
	Event   models.Event
	Stage   models.Stage
	Package models.TicketPackage
	Box     models.Box
}

// SeedCatalog inserts a Catalog whose stage stays open for a week after now.
// The stage sells "general" at 50000 (100 left) and "vip" at 120000 (sold out).
func SeedCatalog(t *testing.T, conn *gorm.DB, now time.Time) Catalog {
	t.Helper()

	event := models.Event{
		ID:       uuid.New(),
		Name:     "Festival Hardcode",
		Trigram:  "FST",
		Status:   enums.EventStatusPublished,
		StartsAt: now.Add(14 * 24 * time.Hour),
		EndsAt:   now.Add(15 * 24 * time.Hour),
		Location: "Bogota",
	}
	require.NoError(t, conn.Create(&event).Error)

	stage := models.Stage{
		ID:       uuid.New(),
		EventID:  event.ID,
		Name:     "Early",
		StartsAt: now.Add(-24 * time.Hour),
		EndsAt:   now.Add(7 * 24 * time.Hour),
		PricesByType: map[string]decimal.Decimal{
			"general": decimal.NewFromInt(50000),
			"vip":     decimal.NewFromInt(120000),
		},
		AvailableByType: map[string]int{"general": 100, "vip": 0},
	}
	require.NoError(t, conn.Create(&stage).Error)

	pkg := models.TicketPackage{
		ID:                uuid.New(),
		EventID:           event.ID,
		StageID:           stage.ID,
		Name:              "Squad x4",
		TicketType:        "general",
		TicketsPerPackage: 4,
		Discount:          decimal.RequireFromString("0.1"),
		Price:             decimal.NewFromInt(180000),
		Available:         true,
	}
	require.NoError(t, conn.Create(&pkg).Error)

	stageID := stage.ID
	box := models.Box{
		ID:            uuid.New(),
		EventID:       event.ID,
		StageID:       &stageID,
		Name:          "Palco A1",
		Location:      "North",
		TicketsPerBox: 10,
		Price:         decimal.NewFromInt(900000),
		Available:     true,
	}
	require.NoError(t, conn.Create(&box).Error)

	return Catalog{Event: event, Stage: stage, Package: pkg, Box: box}
}

// SeedEndedStage adds a stage of the catalog event that closed an hour before now.
func SeedEndedStage(t *testing.T, conn *gorm.DB, eventID uuid.UUID, now time.Time) models.Stage {
	t.Helper()
	stage := models.Stage{
		ID:              uuid.New(),
		EventID:         eventID,
		Name:            "Presale",
		StartsAt:        now.Add(-72 * time.Hour),
		EndsAt:          now.Add(-time.Hour),
		PricesByType:    map[string]decimal.Decimal{"general": decimal.NewFromInt(40000)},
		AvailableByType: map[string]int{"general": 10},
	}
	require.NoError(t, conn.Create(&stage).Error)
	return stage
}
