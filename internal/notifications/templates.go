package notifications

import "html/template"

var purchaseConfirmationTmpl = template.Must(template.New("purchase_confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 20px auto;">
  <h1>Purchase confirmed</h1>
  <p>Hi <strong>{{.BuyerName}}</strong>,</p>
  <p>Your payment was processed successfully.</p>
  <p><strong>Purchase:</strong> {{.PurchaseID}}<br>
  <strong>Paid at:</strong> {{.PaidAt}}<br>
  <strong>Payment method:</strong> {{.PaymentMethod}}</p>
  <p style="font-size: 20px; font-weight: bold;">Total paid: ${{.TotalPrice}} COP</p>
  <h2>Tickets</h2>
  <ul>
  {{- range .Tickets}}
    <li>{{.EventName}} ({{.TicketType}}) - {{.QRCode}}</li>
  {{- end}}
  </ul>
  <p>Each ticket's QR code is attached to this email.</p>
</div>`))

var ticketTransferredTmpl = template.Must(template.New("ticket_transferred").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 20px auto;">
  <h1>You received a ticket</h1>
  <p>Hi <strong>{{.RecipientName}}</strong>,</p>
  <p>A ticket for <strong>{{.EventName}}</strong> was transferred to you. It is attached to this email.</p>
  {{- if .Message}}
  <blockquote>{{.Message}}</blockquote>
  {{- end}}
</div>`))
