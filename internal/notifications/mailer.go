package notifications

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/ticketing-backend/pkg/email"
	"github.com/angelmondragon/ticketing-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/ticketing-backend/pkg/qrcode"
)

const (
	purchaseConfirmationSubject = "Your purchase is confirmed"
	ticketTransferredSubject    = "You received a ticket"
)

// Mailer renders domain events into email messages.
type Mailer struct {
	qrSize int
	loc    *time.Location
}

func NewMailer(qrSize int, loc *time.Location) *Mailer {
	if qrSize <= 0 {
		qrSize = qrcode.DefaultSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Mailer{qrSize: qrSize, loc: loc}
}

type purchaseConfirmationData struct {
	BuyerName     string
	PurchaseID    string
	PaidAt        string
	PaymentMethod string
	TotalPrice    string
	Tickets       []payloads.IssuedTicket
}

// PurchaseConfirmation builds the receipt with one QR PNG per ticket attached.
func (m *Mailer) PurchaseConfirmation(evt payloads.PurchasePaidEvent) (email.Message, error) {
	if strings.TrimSpace(evt.BuyerEmail) == "" {
		return email.Message{}, fmt.Errorf("buyer email missing")
	}
	var body bytes.Buffer
	err := purchaseConfirmationTmpl.Execute(&body, purchaseConfirmationData{
		BuyerName:     evt.BuyerName,
		PurchaseID:    evt.PurchaseID.String(),
		PaidAt:        evt.PaidAt.In(m.loc).Format("2006-01-02 15:04"),
		PaymentMethod: evt.PaymentMethod,
		TotalPrice:    evt.TotalPrice,
		Tickets:       evt.Tickets,
	})
	if err != nil {
		return email.Message{}, fmt.Errorf("render purchase confirmation: %w", err)
	}

	attachments := make([]email.Attachment, 0, len(evt.Tickets))
	for i, t := range evt.Tickets {
		png, err := qrcode.PNG(t.QRCode, m.qrSize)
		if err != nil {
			return email.Message{}, fmt.Errorf("render ticket %s qr: %w", t.TicketID, err)
		}
		attachments = append(attachments, email.Attachment{
			Name:        fmt.Sprintf("ticket-%02d.png", i+1),
			ContentType: "image/png",
			Data:        png,
		})
	}

	return email.Message{
		To:          []string{evt.BuyerEmail},
		Subject:     purchaseConfirmationSubject,
		HTML:        body.String(),
		Text:        fmt.Sprintf("Purchase %s confirmed. Total paid: %s COP. Tickets: %d.", evt.PurchaseID, evt.TotalPrice, len(evt.Tickets)),
		Attachments: attachments,
	}, nil
}

// TicketTransferred builds the email sent to a ticket's new holder.
func (m *Mailer) TicketTransferred(evt payloads.TicketTransferredEvent) (email.Message, error) {
	if strings.TrimSpace(evt.RecipientEmail) == "" {
		return email.Message{}, fmt.Errorf("recipient email missing")
	}
	pdf, err := base64.StdEncoding.DecodeString(evt.AttachmentBase64)
	if err != nil {
		return email.Message{}, fmt.Errorf("decode ticket attachment: %w", err)
	}
	var body bytes.Buffer
	if err := ticketTransferredTmpl.Execute(&body, evt); err != nil {
		return email.Message{}, fmt.Errorf("render ticket transfer: %w", err)
	}
	return email.Message{
		To:      []string{evt.RecipientEmail},
		Subject: ticketTransferredSubject,
		HTML:    body.String(),
		Text:    fmt.Sprintf("A ticket for %s was transferred to you.", evt.EventName),
		Attachments: []email.Attachment{{
			Name:        "ticket.pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}, nil
}
