package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New("1234", 185000, 643, "https://kiosk.local/return", "Оплата заказа №1234")
	require.NoError(t, err)
	return s
}

func awaitingSession(t *testing.T) *Session {
	t.Helper()
	s := newSession(t)
	require.NoError(t, s.RegisterGatewayOrder("gw-1"))
	require.NoError(t, s.QRIssued("qr-1", "base64png", "https://qr.nspk.ru/x", nil))
	return s
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		amount    int64
		wantErr   error
	}{
		{name: "valid", reference: "1234", amount: 100},
		{name: "empty reference", reference: "", amount: 100, wantErr: ErrEmptyOrderReference},
		{name: "zero amount", reference: "1234", amount: 0, wantErr: ErrInvalidAmount},
		{name: "negative amount", reference: "1234", amount: -5, wantErr: ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.reference, tt.amount, 643, "https://r", "desc")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusInitiating, s.Status)
			assert.Equal(t, tt.amount, s.AmountMinorUnits)
		})
	}
}

func TestSession_HappyPath(t *testing.T) {
	s := newSession(t)

	require.NoError(t, s.RegisterGatewayOrder("gw-1"))
	assert.Equal(t, StatusInitiating, s.Status)
	assert.Equal(t, "gw-1", s.GatewayOrderID)

	require.NoError(t, s.QRIssued("qr-1", "img", "url", nil))
	assert.Equal(t, StatusAwaitingScan, s.Status)
	assert.Equal(t, "qr-1", s.QRID)

	require.NoError(t, s.MarkPaid())
	assert.Equal(t, StatusPaid, s.Status)
	assert.True(t, s.Status.IsTerminal())
}

func TestSession_QRIssuedCarriesExpiry(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.RegisterGatewayOrder("gw-1"))

	expiry := time.Now().Add(5 * time.Minute).UTC()
	require.NoError(t, s.QRIssued("qr-1", "img", "url", &expiry))
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, expiry, *s.ExpiresAt)
}

func TestSession_RegisterGatewayOrderOnlyWhileInitiating(t *testing.T) {
	s := awaitingSession(t)
	assert.ErrorIs(t, s.RegisterGatewayOrder("gw-2"), ErrInvalidStateTransition)
}

func TestSession_PaidBeforeQRIsRejected(t *testing.T) {
	s := newSession(t)
	assert.ErrorIs(t, s.MarkPaid(), ErrInvalidStateTransition)
}

func TestSession_RejectedBeforeQRIsInvalid(t *testing.T) {
	s := newSession(t)
	assert.ErrorIs(t, s.MarkRejected("nothing to reject yet"), ErrInvalidStateTransition)
}

func TestSession_TerminalStatesAbsorbOwnOutcome(t *testing.T) {
	t.Run("paid stays paid", func(t *testing.T) {
		s := awaitingSession(t)
		require.NoError(t, s.MarkPaid())
		require.NoError(t, s.MarkPaid())
		assert.Equal(t, StatusPaid, s.Status)
	})

	t.Run("paid rejects other outcomes", func(t *testing.T) {
		s := awaitingSession(t)
		require.NoError(t, s.MarkPaid())
		assert.ErrorIs(t, s.MarkRejected("late"), ErrSessionTerminal)
		assert.ErrorIs(t, s.MarkExpired(ExpiryOriginGateway, "late"), ErrSessionTerminal)
		assert.ErrorIs(t, s.MarkFailed("late"), ErrSessionTerminal)
		assert.Equal(t, StatusPaid, s.Status)
	})

	t.Run("expired rejects paid", func(t *testing.T) {
		s := awaitingSession(t)
		require.NoError(t, s.MarkExpired(ExpiryOriginLocal, "deadline"))
		assert.ErrorIs(t, s.MarkPaid(), ErrSessionTerminal)
		assert.Equal(t, StatusExpired, s.Status)
		assert.Equal(t, ExpiryOriginLocal, s.ExpiryOrigin)
	})
}

func TestSession_ExpiryOrigin(t *testing.T) {
	s := awaitingSession(t)
	require.NoError(t, s.MarkExpired(ExpiryOriginGateway, "qr code expired"))
	assert.Equal(t, ExpiryOriginGateway, s.ExpiryOrigin)
}

func TestSession_ResetForRetry(t *testing.T) {
	t.Run("allowed from failed", func(t *testing.T) {
		s := newSession(t)
		require.NoError(t, s.MarkFailed("order registration failed"))

		require.NoError(t, s.ResetForRetry())
		assert.Equal(t, StatusInitiating, s.Status)
		assert.Empty(t, s.GatewayOrderID)
		assert.Empty(t, s.QRID)
		assert.Empty(t, s.FailureReason)
		assert.Equal(t, int64(185000), s.AmountMinorUnits)
	})

	t.Run("allowed from expired", func(t *testing.T) {
		s := awaitingSession(t)
		require.NoError(t, s.MarkExpired(ExpiryOriginLocal, "deadline"))

		require.NoError(t, s.ResetForRetry())
		assert.Equal(t, StatusInitiating, s.Status)
		assert.Equal(t, ExpiryOriginNone, s.ExpiryOrigin)
	})

	t.Run("rejected elsewhere", func(t *testing.T) {
		for _, s := range []*Session{newSession(t), awaitingSession(t)} {
			assert.ErrorIs(t, s.ResetForRetry(), ErrRetryNotAllowed)
		}

		paid := awaitingSession(t)
		require.NoError(t, paid.MarkPaid())
		assert.ErrorIs(t, paid.ResetForRetry(), ErrRetryNotAllowed)
	})
}

func TestSession_Clone(t *testing.T) {
	s := awaitingSession(t)
	clone := s.Clone()

	require.NoError(t, clone.MarkPaid())
	assert.Equal(t, StatusAwaitingScan, s.Status)
	assert.Equal(t, StatusPaid, clone.Status)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusInitiating.IsTerminal())
	assert.False(t, StatusAwaitingScan.IsTerminal())
	assert.True(t, StatusPaid.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}
