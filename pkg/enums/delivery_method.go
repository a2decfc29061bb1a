package enums

// DeliveryMethod selects how the shopper receives the order.
type DeliveryMethod string

const (
	DeliveryMethodShipping DeliveryMethod = "shipping"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

// Valid reports whether the value is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryMethodShipping || m == DeliveryMethodPickup
}

// RequiresAddress reports whether address fields must accompany the method.
func (m DeliveryMethod) RequiresAddress() bool {
	return m == DeliveryMethodShipping
}
