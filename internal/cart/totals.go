package cart

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
)

var (
	feeVariableRate = decimal.RequireFromString("0.035")
	feeGatewayRate  = decimal.RequireFromString("0.015")
	feeFlat         = decimal.NewFromInt(950)
	feeTaxMarkup    = decimal.RequireFromString("1.19")
)

// Totals are the aggregate fields of a cart.
type Totals struct {
	Subtotal    decimal.Decimal
	ServiceFee  decimal.Decimal
	Total       decimal.Decimal
	TicketCount int
	ContentHash *string
}

// ServiceFee applies (3.5% + 950 + 1.5%) plus 19% tax over the subtotal.
// An empty subtotal carries no fee.
func ServiceFee(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	base := subtotal.Mul(feeVariableRate).Add(feeFlat).Add(subtotal.Mul(feeGatewayRate))
	return base.Mul(feeTaxMarkup).Round(2)
}

// ComputeTotals derives every aggregate field from lines. It is pure, so
// calling it twice over the same lines yields identical totals and hash.
func ComputeTotals(lines []models.CartLine) Totals {
	if len(lines) == 0 {
		return Totals{Subtotal: decimal.Zero, ServiceFee: decimal.Zero, Total: decimal.Zero}
	}

	subtotal := decimal.Zero
	tickets := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
		tickets += line.TicketCount
	}
	subtotal = subtotal.Round(2)
	fee := ServiceFee(subtotal)
	hash := ContentHash(lines)

	return Totals{
		Subtotal:    subtotal,
		ServiceFee:  fee,
		Total:       subtotal.Add(fee),
		TicketCount: tickets,
		ContentHash: &hash,
	}
}

type hashedLine struct {
	ID        string             `json:"id"`
	Kind      enums.CartLineKind `json:"kind"`
	Quantity  int                `json:"quantity"`
	UnitPrice string             `json:"unit_price"`
}

// ContentHash is the hex SHA-256 of (id, kind, quantity, unit price) tuples ordered by line id.
func ContentHash(lines []models.CartLine) string {
	tuples := make([]hashedLine, 0, len(lines))
	for _, line := range lines {
		tuples = append(tuples, hashedLine{
			ID:        line.ID.String(),
			Kind:      line.Kind,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
		})
	}
	sort.Slice(tuples, func(i, j int) bool { return tuples[i].ID < tuples[j].ID })

	payload, _ := json.Marshal(tuples)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func applyTotals(c *models.Cart, totals Totals) {
	c.Subtotal = totals.Subtotal
	c.ServiceFee = totals.ServiceFee
	c.Total = totals.Total
	c.TicketCount = totals.TicketCount
	c.ContentHash = totals.ContentHash
}
