package order

import "time"

// OrderPlacedEvent is a domain event emitted when a customer confirms
// checkout. The automation webhook worker forwards it to the external
// workflow tool.
type OrderPlacedEvent struct {
	OrderID     string
	OrderNumber string
	Lines       []Line
	TotalAmount int64
	PlacedAt    time.Time
	OccurredAt  time.Time
}

func (OrderPlacedEvent) EventName() string { return "order.placed" }

func NewOrderPlacedEvent(o *Order) OrderPlacedEvent {
	clone := o.Clone()
	return OrderPlacedEvent{
		OrderID:     clone.ID,
		OrderNumber: clone.Number,
		Lines:       clone.Lines,
		TotalAmount: clone.TotalAmount,
		PlacedAt:    clone.PlacedAt,
		OccurredAt:  time.Now().UTC(),
	}
}
