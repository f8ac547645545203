package enums

import "fmt"

// CartLineKind identifies what a cart or purchase line sells.
type CartLineKind string

const (
	CartLineKindTicket  CartLineKind = "ticket"
	CartLineKindPackage CartLineKind = "package"
	CartLineKindBox     CartLineKind = "box"
	CartLineKindMerch   CartLineKind = "merch"
)

var validCartLineKinds = []CartLineKind{
	CartLineKindTicket,
	CartLineKindPackage,
	CartLineKindBox,
	CartLineKindMerch,
}

// String implements fmt.Stringer.
func (c CartLineKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartLineKind.
func (c CartLineKind) IsValid() bool {
	for _, candidate := range validCartLineKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartLineKind converts raw input into a CartLineKind.
func ParseCartLineKind(value string) (CartLineKind, error) {
	for _, candidate := range validCartLineKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart line kind %q", value)
}
