package mercadopago

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses reported by the provider.
const (
	StatusApproved   = "approved"
	StatusPending    = "pending"
	StatusInProcess  = "in_process"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
	StatusChargeBack = "charged_back"
)

// Item is a single line of a checkout preference.
type Item struct {
	ID         string
	Title      string
	CurrencyID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Payer identifies the buyer on the checkout page.
type Payer struct {
	FirstName string
	LastName  string
	Email     string
}

// PreferenceRequest describes a hosted checkout to create.
type PreferenceRequest struct {
	Items             []Item
	Payer             Payer
	ExternalReference string
	NotificationURL   string
	SuccessURL        string
	PendingURL        string
	FailureURL        string
	ExpiresFrom       time.Time
	ExpiresTo         time.Time
}

// Preference is the handle returned after creating a checkout.
type Preference struct {
	ID               string `json:"preference_id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

// Payment is the authoritative payment state fetched from the provider.
type Payment struct {
	ID                string
	Status            string
	StatusDetail      string
	ExternalReference string
	PaymentTypeID     string
	PaymentMethodID   string
	TransactionAmount decimal.Decimal
}
