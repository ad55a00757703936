package payment

// Status is the lifecycle state of a payment session.
type Status string

const (
	// StatusInitiating covers order registration and QR creation in flight.
	StatusInitiating Status = "initiating"
	// StatusAwaitingScan means a QR code was issued and the customer has not paid yet.
	StatusAwaitingScan Status = "awaiting_scan"

	StatusPaid     Status = "paid"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusFailed   Status = "failed"
)

// IsTerminal reports whether no further transition leaves this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPaid, StatusRejected, StatusExpired, StatusFailed:
		return true
	default:
		return false
	}
}

// ExpiryOrigin records whether an expired session was reported expired by the
// gateway or inferred locally from the polling timeout.
type ExpiryOrigin string

const (
	ExpiryOriginNone    ExpiryOrigin = ""
	ExpiryOriginGateway ExpiryOrigin = "gateway"
	ExpiryOriginLocal   ExpiryOrigin = "local"
)
