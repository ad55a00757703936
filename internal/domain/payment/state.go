package payment

// sessionState implements the state pattern for the payment session lifecycle.
// Terminal states absorb their own outcome idempotently and reject everything
// else, so a late poll tick or gateway response can never move a finished
// session.
type sessionState interface {
	status() Status
	onQRIssued(s *Session) (sessionState, error)
	onPaid(s *Session) (sessionState, error)
	onRejected(s *Session, reason string) (sessionState, error)
	onExpired(s *Session, origin ExpiryOrigin, reason string) (sessionState, error)
	onFailed(s *Session, reason string) (sessionState, error)
	onRetry(s *Session) (sessionState, error)
}

func stateFor(status Status) sessionState {
	switch status {
	case StatusAwaitingScan:
		return awaitingScanState{}
	case StatusPaid:
		return paidState{}
	case StatusRejected:
		return rejectedState{}
	case StatusExpired:
		return expiredState{}
	case StatusFailed:
		return failedState{}
	default:
		return initiatingState{}
	}
}

type initiatingState struct{}

func (initiatingState) status() Status { return StatusInitiating }

func (initiatingState) onQRIssued(s *Session) (sessionState, error) {
	s.FailureReason = ""
	return awaitingScanState{}, nil
}

func (initiatingState) onPaid(*Session) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (initiatingState) onRejected(*Session, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (initiatingState) onExpired(*Session, ExpiryOrigin, string) (sessionState, error) {
	return nil, ErrInvalidStateTransition
}

func (initiatingState) onFailed(s *Session, reason string) (sessionState, error) {
	s.FailureReason = reason
	return failedState{}, nil
}

func (initiatingState) onRetry(*Session) (sessionState, error) {
	return nil, ErrRetryNotAllowed
}

type awaitingScanState struct{}

func (awaitingScanState) status() Status { return StatusAwaitingScan }

func (awaitingScanState) onQRIssued(*Session) (sessionState, error) {
	return awaitingScanState{}, nil
}

func (awaitingScanState) onPaid(s *Session) (sessionState, error) {
	s.FailureReason = ""
	return paidState{}, nil
}

func (awaitingScanState) onRejected(s *Session, reason string) (sessionState, error) {
	s.FailureReason = reason
	return rejectedState{}, nil
}

func (awaitingScanState) onExpired(s *Session, origin ExpiryOrigin, reason string) (sessionState, error) {
	s.ExpiryOrigin = origin
	s.FailureReason = reason
	return expiredState{}, nil
}

func (awaitingScanState) onFailed(s *Session, reason string) (sessionState, error) {
	s.FailureReason = reason
	return failedState{}, nil
}

func (awaitingScanState) onRetry(*Session) (sessionState, error) {
	return nil, ErrRetryNotAllowed
}

type paidState struct{}

func (paidState) status() Status { return StatusPaid }

func (paidState) onQRIssued(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (paidState) onPaid(*Session) (sessionState, error) {
	return paidState{}, nil
}

func (paidState) onRejected(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (paidState) onExpired(*Session, ExpiryOrigin, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (paidState) onFailed(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (paidState) onRetry(*Session) (sessionState, error) {
	return nil, ErrRetryNotAllowed
}

type rejectedState struct{}

func (rejectedState) status() Status { return StatusRejected }

func (rejectedState) onQRIssued(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (rejectedState) onPaid(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (rejectedState) onRejected(*Session, string) (sessionState, error) {
	return rejectedState{}, nil
}

func (rejectedState) onExpired(*Session, ExpiryOrigin, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (rejectedState) onFailed(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (rejectedState) onRetry(*Session) (sessionState, error) {
	return nil, ErrRetryNotAllowed
}

type expiredState struct{}

func (expiredState) status() Status { return StatusExpired }

func (expiredState) onQRIssued(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (expiredState) onPaid(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (expiredState) onRejected(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (expiredState) onExpired(*Session, ExpiryOrigin, string) (sessionState, error) {
	return expiredState{}, nil
}

func (expiredState) onFailed(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (expiredState) onRetry(s *Session) (sessionState, error) {
	return initiatingState{}, nil
}

type failedState struct{}

func (failedState) status() Status { return StatusFailed }

func (failedState) onQRIssued(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (failedState) onPaid(*Session) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (failedState) onRejected(*Session, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (failedState) onExpired(*Session, ExpiryOrigin, string) (sessionState, error) {
	return nil, ErrSessionTerminal
}

func (failedState) onFailed(*Session, string) (sessionState, error) {
	return failedState{}, nil
}

func (failedState) onRetry(s *Session) (sessionState, error) {
	return initiatingState{}, nil
}
