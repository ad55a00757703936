package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domorder "github.com/zakazhi/orderpay/internal/domain/order"
	dompayment "github.com/zakazhi/orderpay/internal/domain/payment"
	"github.com/zakazhi/orderpay/internal/infrastructure/memory"
	"github.com/zakazhi/orderpay/internal/infrastructure/outbox"
)

func seedOrder(t *testing.T, repo *memory.OrderRepository, number string) {
	t.Helper()
	o, err := domorder.New("id-"+number, number, []domorder.Line{
		{ItemID: "1", Name: "Стейк Рибай", UnitPrice: 1850, Quantity: 1},
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), o))
}

func startWorker(t *testing.T) (*memory.OrderRepository, *outbox.Bus) {
	t.Helper()
	repo := memory.NewOrderRepository()
	bus := outbox.NewBus(zap.NewNop())
	bus.Start(context.Background())
	t.Cleanup(func() { bus.Stop(context.Background()) })

	w := New(repo, bus, zap.NewNop())
	w.Start()
	return repo, bus
}

func TestWorker_PaymentPaidSettlesOrder(t *testing.T) {
	repo, bus := startWorker(t)
	seedOrder(t, repo, "1234")

	require.NoError(t, bus.Publish(context.Background(), dompayment.PaymentPaidEvent{
		OrderReference:   "1234",
		GatewayOrderID:   "gw-1",
		QRID:             "qr-1",
		AmountMinorUnits: 185000,
		OccurredAt:       time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		o, err := repo.FindByNumber(context.Background(), "1234")
		return err == nil && o.Status == domorder.StatusPaid
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorker_PaymentClosedMarksFailure(t *testing.T) {
	repo, bus := startWorker(t)
	seedOrder(t, repo, "1234")

	require.NoError(t, bus.Publish(context.Background(), dompayment.PaymentClosedEvent{
		OrderReference: "1234",
		Status:         dompayment.StatusExpired,
		ExpiryOrigin:   dompayment.ExpiryOriginLocal,
		Reason:         "status polling deadline reached",
		OccurredAt:     time.Now().UTC(),
	}))

	require.Eventually(t, func() bool {
		o, err := repo.FindByNumber(context.Background(), "1234")
		return err == nil && o.Status == domorder.StatusPaymentFailed
	}, 2*time.Second, 5*time.Millisecond)

	o, err := repo.FindByNumber(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "status polling deadline reached", o.FailureReason)
}

func TestWorker_PaidOrderIgnoresLateClose(t *testing.T) {
	repo, bus := startWorker(t)
	seedOrder(t, repo, "1234")

	require.NoError(t, bus.Publish(context.Background(), dompayment.PaymentPaidEvent{
		OrderReference: "1234",
	}))
	require.Eventually(t, func() bool {
		o, err := repo.FindByNumber(context.Background(), "1234")
		return err == nil && o.Status == domorder.StatusPaid
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(context.Background(), dompayment.PaymentClosedEvent{
		OrderReference: "1234",
		Status:         dompayment.StatusRejected,
		Reason:         "late",
	}))

	// The close event is rejected by the order aggregate; the order stays paid.
	time.Sleep(50 * time.Millisecond)
	o, err := repo.FindByNumber(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, o.Status)
}
