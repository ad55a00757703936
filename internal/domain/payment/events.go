package payment

import "time"

// PaymentPaidEvent is emitted when a session reaches Paid. It is intended to
// be handled by other bounded contexts (e.g., the order workflow).
type PaymentPaidEvent struct {
	OrderReference   string
	GatewayOrderID   string
	QRID             string
	AmountMinorUnits int64
	OccurredAt       time.Time
}

func (PaymentPaidEvent) EventName() string { return "payment.paid" }

func NewPaymentPaidEvent(s *Session) PaymentPaidEvent {
	return PaymentPaidEvent{
		OrderReference:   s.OrderReference,
		GatewayOrderID:   s.GatewayOrderID,
		QRID:             s.QRID,
		AmountMinorUnits: s.AmountMinorUnits,
		OccurredAt:       time.Now().UTC(),
	}
}

// PaymentClosedEvent is emitted when a session reaches any non-paid terminal
// state (Rejected, Expired, Failed).
type PaymentClosedEvent struct {
	OrderReference string
	Status         Status
	ExpiryOrigin   ExpiryOrigin
	Reason         string
	OccurredAt     time.Time
}

func (PaymentClosedEvent) EventName() string { return "payment.closed" }

func NewPaymentClosedEvent(s *Session) PaymentClosedEvent {
	return PaymentClosedEvent{
		OrderReference: s.OrderReference,
		Status:         s.Status,
		ExpiryOrigin:   s.ExpiryOrigin,
		Reason:         s.FailureReason,
		OccurredAt:     time.Now().UTC(),
	}
}
