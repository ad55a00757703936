package payment

import (
	"errors"
	"time"
)

var (
	ErrNotFound               = errors.New("payment: session not found")
	ErrInvalidAmount          = errors.New("payment: amount must be greater than zero")
	ErrEmptyOrderReference    = errors.New("payment: order reference is required")
	ErrSessionTerminal        = errors.New("payment: session already in a terminal state")
	ErrInvalidStateTransition = errors.New("payment: invalid state transition")
	ErrRetryNotAllowed        = errors.New("payment: retry is only allowed after failure or expiry")
	ErrSessionActive          = errors.New("payment: session already active for this order")
)

// Session is one attempt to collect an SBP payment for an order.
// GatewayOrderID and QRID stay empty until the respective gateway calls
// succeed; AmountMinorUnits never changes for the life of the session.
type Session struct {
	OrderReference   string
	GatewayOrderID   string
	QRID             string
	AmountMinorUnits int64
	CurrencyCode     int
	Description      string
	ReturnURL        string

	QRImage   string
	QRURL     string
	ExpiresAt *time.Time

	Status        Status
	ExpiryOrigin  ExpiryOrigin
	FailureReason string

	CreatedAt time.Time
	UpdatedAt time.Time

	state sessionState
}

// New creates a session in the Initiating state.
func New(orderReference string, amountMinorUnits int64, currencyCode int, returnURL, description string) (*Session, error) {
	if orderReference == "" {
		return nil, ErrEmptyOrderReference
	}
	if amountMinorUnits <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now().UTC()
	return &Session{
		OrderReference:   orderReference,
		AmountMinorUnits: amountMinorUnits,
		CurrencyCode:     currencyCode,
		ReturnURL:        returnURL,
		Description:      description,
		Status:           StatusInitiating,
		CreatedAt:        now,
		UpdatedAt:        now,
		state:            initiatingState{},
	}, nil
}

// RegisterGatewayOrder records the gateway-assigned order id. It is only
// meaningful while the session is still initiating.
func (s *Session) RegisterGatewayOrder(gatewayOrderID string) error {
	if s.Status != StatusInitiating {
		return ErrInvalidStateTransition
	}
	s.GatewayOrderID = gatewayOrderID
	s.touch()
	return nil
}

// QRIssued transitions the session to AwaitingScan once a renderable QR code
// exists. expiresAt is optional.
func (s *Session) QRIssued(qrID, qrImage, qrURL string, expiresAt *time.Time) error {
	return s.apply(func(st sessionState) (sessionState, error) {
		next, err := st.onQRIssued(s)
		if err != nil {
			return nil, err
		}
		s.QRID = qrID
		s.QRImage = qrImage
		s.QRURL = qrURL
		s.ExpiresAt = expiresAt
		return next, nil
	})
}

func (s *Session) MarkPaid() error {
	return s.apply(func(st sessionState) (sessionState, error) {
		return st.onPaid(s)
	})
}

func (s *Session) MarkRejected(reason string) error {
	return s.apply(func(st sessionState) (sessionState, error) {
		return st.onRejected(s, reason)
	})
}

func (s *Session) MarkExpired(origin ExpiryOrigin, reason string) error {
	return s.apply(func(st sessionState) (sessionState, error) {
		return st.onExpired(s, origin, reason)
	})
}

func (s *Session) MarkFailed(reason string) error {
	return s.apply(func(st sessionState) (sessionState, error) {
		return st.onFailed(s, reason)
	})
}

// ResetForRetry discards the gateway identifiers and returns the session to
// Initiating, keeping the amount and order reference. Only valid from Failed
// or Expired.
func (s *Session) ResetForRetry() error {
	return s.apply(func(st sessionState) (sessionState, error) {
		next, err := st.onRetry(s)
		if err != nil {
			return nil, err
		}
		s.GatewayOrderID = ""
		s.QRID = ""
		s.QRImage = ""
		s.QRURL = ""
		s.ExpiresAt = nil
		s.ExpiryOrigin = ExpiryOriginNone
		s.FailureReason = ""
		return next, nil
	})
}

func (s *Session) apply(transition func(sessionState) (sessionState, error)) error {
	next, err := transition(s.currentState())
	if err != nil {
		return err
	}
	s.state = next
	s.Status = next.status()
	s.touch()
	return nil
}

func (s *Session) currentState() sessionState {
	if s.state == nil {
		s.state = stateFor(s.Status)
	}
	return s.state
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Clone returns a copy that is safe to hand to other goroutines.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	clone.state = stateFor(s.Status)
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		clone.ExpiresAt = &t
	}
	return &clone
}
