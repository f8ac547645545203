package tickets

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/ticketing-backend/pkg/db"
	"github.com/angelmondragon/ticketing-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ticketing-backend/pkg/db/models"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ticketing-backend/pkg/errors"
)

func seedPurchase(t *testing.T, conn *gorm.DB, userID uuid.UUID, lines []models.PurchaseLine) *models.Purchase {
	t.Helper()
	p := &models.Purchase{
		ID:              uuid.New(),
		UserID:          userID,
		CartID:          uuid.New(),
		Status:          enums.PurchaseStatusPending,
		PaymentMethod:   "mercado_pago",
		Subtotal:        decimal.Zero,
		ServiceFee:      decimal.Zero,
		TotalPrice:      decimal.Zero,
		PaymentDeadline: time.Now().UTC().Add(45 * time.Minute),
		ContentHash:     "hash",
		BuyerFirstName:  "Ana",
		BuyerLastName:   "Rojas",
		BuyerDocument:   "1020304050",
		BuyerEmail:      "ana@example.com",
	}
	require.NoError(t, conn.Create(p).Error)
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].PurchaseID = p.ID
		p.TicketCount += lines[i].TicketCount
	}
	if len(lines) > 0 {
		require.NoError(t, conn.Create(&lines).Error)
	}
	p.Lines = lines
	return p
}

func issue(t *testing.T, conn *gorm.DB, issuer *Issuer, p *models.Purchase) ([]models.Ticket, error) {
	t.Helper()
	var out []models.Ticket
	err := db.Wrap(conn).WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		out, err = issuer.IssueForPurchase(context.Background(), tx, p, p.Lines)
		return err
	})
	return out, err
}

func TestIssueForPurchaseMintsOneTicketPerUnit(t *testing.T) {
	conn := dbtest.Open(t)
	cat := dbtest.SeedCatalog(t, conn, time.Now().UTC())
	user := uuid.New()
	stageID := cat.Stage.ID
	pkgID := cat.Package.ID
	boxID := cat.Box.ID

	p := seedPurchase(t, conn, user, []models.PurchaseLine{
		{Kind: enums.CartLineKindTicket, EventID: cat.Event.ID, StageID: &stageID, TicketType: "general", Quantity: 2, UnitPrice: decimal.NewFromInt(50000), UnitsPerLine: 1, TicketCount: 2},
		{Kind: enums.CartLineKindPackage, EventID: cat.Event.ID, StageID: &stageID, PackageID: &pkgID, TicketType: "general", Quantity: 1, UnitPrice: decimal.NewFromInt(180000), UnitsPerLine: 4, TicketCount: 4},
		{Kind: enums.CartLineKindBox, EventID: cat.Event.ID, BoxID: &boxID, Quantity: 1, UnitPrice: decimal.NewFromInt(900000), UnitsPerLine: 10, TicketCount: 10},
		{Kind: enums.CartLineKindTicket, EventID: cat.Event.ID, TicketType: "general", Quantity: 3, UnitPrice: decimal.NewFromInt(50000), UnitsPerLine: 1, TicketCount: 3},
	})

	issued, err := issue(t, conn, NewIssuer(nil, nil), p)
	require.NoError(t, err)
	assert.Len(t, issued, 16)

	var rows []models.Ticket
	require.NoError(t, conn.Where("purchase_id = ?", p.ID).Find(&rows).Error)
	require.Len(t, rows, 16)

	seen := map[string]bool{}
	byKind := map[string]int{}
	for _, tk := range rows {
		assert.Equal(t, user, tk.UserID)
		assert.False(t, tk.Used)
		assert.False(t, tk.Transferred)
		assert.False(t, seen[tk.QRCode], "duplicate qr %s", tk.QRCode)
		seen[tk.QRCode] = true

		parts := strings.Split(tk.QRCode, "-")
		assert.Equal(t, "FST", parts[0])
		switch {
		case tk.BoxID != nil:
			byKind["box"]++
			assert.Equal(t, "box", tk.TicketType)
			assert.True(t, strings.Contains(tk.QRCode, boxID.String()))
		case tk.PackageID != nil:
			byKind["package"]++
			assert.True(t, strings.HasPrefix(tk.QRCode, "FST-"+stageID.String()+"-"+pkgID.String()+"-0-"))
		default:
			byKind["ticket"]++
			assert.True(t, strings.HasPrefix(tk.QRCode, "FST-"+stageID.String()+"-0-0-"))
		}
	}
	assert.Equal(t, map[string]int{"ticket": 2, "package": 4, "box": 10}, byKind)
}

func TestIssueForPurchaseRetriesQRCollisions(t *testing.T) {
	conn := dbtest.Open(t)
	cat := dbtest.SeedCatalog(t, conn, time.Now().UTC())
	stageID := cat.Stage.ID

	taken := models.Ticket{ID: uuid.New(), EventID: cat.Event.ID, UserID: uuid.New(), TicketType: "general", QRCode: "FST-taken"}
	require.NoError(t, conn.Create(&taken).Error)

	p := seedPurchase(t, conn, uuid.New(), []models.PurchaseLine{
		{Kind: enums.CartLineKindTicket, EventID: cat.Event.ID, StageID: &stageID, TicketType: "general", Quantity: 1, UnitPrice: decimal.NewFromInt(50000), UnitsPerLine: 1, TicketCount: 1},
	})

	codes := []string{"FST-taken", "FST-taken", "FST-fresh"}
	issuer := NewIssuer(nil, nil)
	issuer.payload = func(string, *uuid.UUID, *uuid.UUID, *uuid.UUID) (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	issued, err := issue(t, conn, issuer, p)
	require.NoError(t, err)
	require.Len(t, issued, 1)
	assert.Equal(t, "FST-fresh", issued[0].QRCode)
}

func TestIssueForPurchaseGivesUpAfterMaxAttempts(t *testing.T) {
	conn := dbtest.Open(t)
	cat := dbtest.SeedCatalog(t, conn, time.Now().UTC())
	stageID := cat.Stage.ID

	taken := models.Ticket{ID: uuid.New(), EventID: cat.Event.ID, UserID: uuid.New(), TicketType: "general", QRCode: "FST-taken"}
	require.NoError(t, conn.Create(&taken).Error)

	p := seedPurchase(t, conn, uuid.New(), []models.PurchaseLine{
		{Kind: enums.CartLineKindTicket, EventID: cat.Event.ID, StageID: &stageID, TicketType: "general", Quantity: 1, UnitPrice: decimal.NewFromInt(50000), UnitsPerLine: 1, TicketCount: 1},
	})

	calls := 0
	issuer := NewIssuer(nil, nil)
	issuer.payload = func(string, *uuid.UUID, *uuid.UUID, *uuid.UUID) (string, error) {
		calls++
		return "FST-taken", nil
	}

	_, err := issue(t, conn, issuer, p)
	require.ErrorIs(t, err, ErrQRCollision)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, MaxQRAttempts, calls)

	var count int64
	require.NoError(t, conn.Model(&models.Ticket{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
