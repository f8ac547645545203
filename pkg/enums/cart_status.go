package enums

import (
	"fmt"
	"slices"
)

// CartStatus tracks where a cart sits in the checkout flow.
type CartStatus string

const (
	CartStatusActive            CartStatus = "active"
	CartStatusAbandoned         CartStatus = "abandoned"
	CartStatusProcessingPayment CartStatus = "processing_payment"
	CartStatusPaid              CartStatus = "paid"
)

var validCartStatuses = []CartStatus{
	CartStatusActive,
	CartStatusAbandoned,
	CartStatusProcessingPayment,
	CartStatusPaid,
}

// String implements fmt.Stringer.
func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStatus.
func (c CartStatus) IsValid() bool {
	for _, candidate := range validCartStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStatus converts raw input into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	for _, candidate := range validCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}

// cartTransitions lists the statuses each status may move to. Abandoned carts
// are terminal; a paid cart is reopened as active for the next checkout.
var cartTransitions = map[CartStatus][]CartStatus{
	CartStatusActive:            {CartStatusProcessingPayment, CartStatusAbandoned},
	CartStatusProcessingPayment: {CartStatusActive, CartStatusPaid},
	CartStatusPaid:              {CartStatusActive},
}

// CanTransitionTo reports whether a cart in c may move to next.
func (c CartStatus) CanTransitionTo(next CartStatus) bool {
	return slices.Contains(cartTransitions[c], next)
}

// AcceptsMutation reports whether lines may still be added, changed or removed.
func (c CartStatus) AcceptsMutation() bool {
	return c == CartStatusActive
}
