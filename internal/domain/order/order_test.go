package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLines() []Line {
	return []Line{
		{ItemID: "1", Name: "Стейк Рибай", UnitPrice: 1850, Quantity: 1},
		{ItemID: "7", Name: "Тирамису", UnitPrice: 490, Quantity: 2, RemovedIngredients: []string{"Какао"}},
	}
}

func TestNew(t *testing.T) {
	t.Run("totals are summed server-side", func(t *testing.T) {
		o, err := New("id-1", "1234", sampleLines())
		require.NoError(t, err)
		assert.Equal(t, int64(1850+2*490), o.TotalAmount)
		assert.Equal(t, StatusPlaced, o.Status)
	})

	t.Run("empty order", func(t *testing.T) {
		_, err := New("id-1", "1234", nil)
		assert.ErrorIs(t, err, ErrEmptyOrder)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := New("id-1", "1234", []Line{{ItemID: "1", UnitPrice: 100, Quantity: 0}})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestOrder_TotalMinorUnits(t *testing.T) {
	o, err := New("id-1", "1234", []Line{{ItemID: "1", UnitPrice: 1850, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(185000), o.TotalMinorUnits())
}

func TestOrder_MarkPaid(t *testing.T) {
	o, err := New("id-1", "1234", sampleLines())
	require.NoError(t, err)

	require.NoError(t, o.MarkPaid())
	assert.Equal(t, StatusPaid, o.Status)

	// idempotent
	require.NoError(t, o.MarkPaid())
	assert.Equal(t, StatusPaid, o.Status)
}

func TestOrder_MarkPaymentFailed(t *testing.T) {
	o, err := New("id-1", "1234", sampleLines())
	require.NoError(t, err)

	require.NoError(t, o.MarkPaymentFailed("qr code expired"))
	assert.Equal(t, StatusPaymentFailed, o.Status)
	assert.Equal(t, "qr code expired", o.FailureReason)

	// A failed payment can still succeed on retry.
	require.NoError(t, o.MarkPaid())
	assert.Equal(t, StatusPaid, o.Status)
	assert.Empty(t, o.FailureReason)

	// But a paid order never becomes failed.
	assert.ErrorIs(t, o.MarkPaymentFailed("late rejection"), ErrAlreadyPaid)
	assert.Equal(t, StatusPaid, o.Status)
}

func TestOrder_Clone(t *testing.T) {
	o, err := New("id-1", "1234", sampleLines())
	require.NoError(t, err)

	clone := o.Clone()
	clone.Lines[1].RemovedIngredients[0] = "changed"
	require.NoError(t, clone.MarkPaid())

	assert.Equal(t, "Какао", o.Lines[1].RemovedIngredients[0])
	assert.Equal(t, StatusPlaced, o.Status)
}
