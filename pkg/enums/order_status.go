package enums

import "fmt"

// OrderStatus is the fulfillment lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Ordered by fulfillment progress; cancelled sits outside the sequence.
var orderStatusSequence = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	return o == OrderStatusCancelled || o.rank() >= 0
}

// IsTerminal reports whether no further transitions are possible.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}

// CanBeCancelled reports whether the buyer may still cancel.
func (o OrderStatus) CanBeCancelled() bool {
	return o == OrderStatusPending || o == OrderStatusConfirmed
}

// CanAdvanceTo reports whether a seller may move the order to next.
// Transitions only move forward; skipping steps is allowed.
func (o OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	if o.IsTerminal() || next == OrderStatusCancelled {
		return false
	}
	from, to := o.rank(), next.rank()
	return from >= 0 && to > from
}

func (o OrderStatus) rank() int {
	for i, candidate := range orderStatusSequence {
		if candidate == o {
			return i
		}
	}
	return -1
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(value)
	if status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
