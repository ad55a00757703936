package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrEmptyOrder      = errors.New("order: at least one line is required")
	ErrInvalidQuantity = errors.New("order: quantity must be greater than zero")
	ErrAlreadyPaid     = errors.New("order: already paid")
)

type Status string

const (
	StatusPlaced        Status = "placed"
	StatusPaid          Status = "paid"
	StatusPaymentFailed Status = "payment_failed"
)

// Line is one cart position: a menu item, how many, and which ingredients the
// customer asked to leave out.
type Line struct {
	ItemID             string
	Name               string
	UnitPrice          int64
	Quantity           int
	RemovedIngredients []string
}

func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is a placed restaurant order. Number is the short customer-facing
// reference also used as the payment order reference; TotalAmount is in major
// currency units, priced server-side from the menu catalog.
type Order struct {
	ID            string
	Number        string
	Lines         []Line
	TotalAmount   int64
	Status        Status
	FailureReason string
	PlacedAt      time.Time
	UpdatedAt     time.Time
}

func New(id, number string, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	var total int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total += l.Subtotal()
	}

	now := time.Now().UTC()
	return &Order{
		ID:          id,
		Number:      number,
		Lines:       lines,
		TotalAmount: total,
		Status:      StatusPlaced,
		PlacedAt:    now,
		UpdatedAt:   now,
	}, nil
}

// TotalMinorUnits returns the order total in the currency's smallest unit.
func (o *Order) TotalMinorUnits() int64 {
	return o.TotalAmount * 100
}

func (o *Order) MarkPaid() error {
	if o.Status == StatusPaid {
		return nil
	}
	o.Status = StatusPaid
	o.FailureReason = ""
	o.touch()
	return nil
}

func (o *Order) MarkPaymentFailed(reason string) error {
	if o.Status == StatusPaid {
		return ErrAlreadyPaid
	}
	o.Status = StatusPaymentFailed
	o.FailureReason = reason
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy safe to hand across goroutines.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		clone.Lines[i] = l
		clone.Lines[i].RemovedIngredients = append([]string(nil), l.RemovedIngredients...)
	}
	return &clone
}
