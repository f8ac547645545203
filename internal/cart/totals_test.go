package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

func TestServiceFee(t *testing.T) {
	cases := map[string]string{
		"100000": "7080.5",
		"50000":  "4105.5",
		"0":      "0",
	}
	for subtotal, want := range cases {
		got := ServiceFee(decimal.RequireFromString(subtotal))
		assert.True(t, decimal.RequireFromString(want).Equal(got), "subtotal %s: got %s", subtotal, got)
	}
}

func TestComputeTotalsEmptyCart(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.ServiceFee.IsZero())
	assert.True(t, totals.Total.IsZero())
	assert.Zero(t, totals.TicketCount)
	assert.Nil(t, totals.ContentHash)
}

func TestComputeTotalsIsIdempotent(t *testing.T) {
	lines := []models.CartLine{
		{ID: uuid.New(), Kind: enums.CartLineKindTicket, Quantity: 2, UnitPrice: decimal.NewFromInt(50000), LineTotal: decimal.NewFromInt(100000), TicketCount: 2},
		{ID: uuid.New(), Kind: enums.CartLineKindPackage, Quantity: 1, UnitPrice: decimal.NewFromInt(180000), LineTotal: decimal.NewFromInt(180000), TicketCount: 4},
	}

	first := ComputeTotals(lines)
	second := ComputeTotals(lines)

	require.NotNil(t, first.ContentHash)
	assert.Equal(t, *first.ContentHash, *second.ContentHash)
	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, decimal.NewFromInt(280000).Equal(first.Subtotal))
	assert.Equal(t, 6, first.TicketCount)
	assert.True(t, first.Subtotal.Add(first.ServiceFee).Equal(first.Total))
}

func TestContentHashIgnoresOrderButTracksChanges(t *testing.T) {
	a := models.CartLine{ID: uuid.New(), Kind: enums.CartLineKindTicket, Quantity: 1, UnitPrice: decimal.NewFromInt(50000)}
	b := models.CartLine{ID: uuid.New(), Kind: enums.CartLineKindBox, Quantity: 1, UnitPrice: decimal.NewFromInt(900000)}

	assert.Equal(t, ContentHash([]models.CartLine{a, b}), ContentHash([]models.CartLine{b, a}))

	changed := a
	changed.Quantity = 2
	assert.NotEqual(t, ContentHash([]models.CartLine{a, b}), ContentHash([]models.CartLine{changed, b}))
	assert.Len(t, ContentHash([]models.CartLine{a}), 64)
}
