package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domorder "github.com/zakazhi/orderpay/internal/domain/order"
	domoutbox "github.com/zakazhi/orderpay/internal/domain/outbox"
)

func placedEvent(t *testing.T) domorder.OrderPlacedEvent {
	t.Helper()
	o, err := domorder.New("id-1", "1234", []domorder.Line{
		{ItemID: "1", Name: "Стейк Рибай", UnitPrice: 1850, Quantity: 1},
		{ItemID: "7", Name: "Тирамису", UnitPrice: 490, Quantity: 2, RemovedIngredients: []string{"Какао"}},
	})
	require.NoError(t, err)
	o.PlacedAt = time.Date(2026, 8, 30, 18, 45, 0, 0, time.UTC)
	return domorder.NewOrderPlacedEvent(o)
}

func TestNotifier_Notify(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "rest-42", zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), placedEvent(t)))

	assert.Equal(t, "1234", got["orderNumber"])
	assert.Equal(t, float64(1850+2*490), got["totalAmount"])
	assert.Equal(t, "18:45", got["time"])
	assert.Equal(t, "30.08.2026", got["date"])
	assert.Equal(t, "rest-42", got["restaurantId"])

	items, ok := got["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Стейк Рибай", first["name"])
	assert.Equal(t, float64(1), first["quantity"])
	assert.Equal(t, float64(1850), first["price"])
}

func TestNotifier_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, "", zap.NewNop())
	err := n.Notify(context.Background(), placedEvent(t))
	assert.ErrorContains(t, err, "unexpected status 500")
}

func TestNotifier_HandlerSwallowsDeliveryErrors(t *testing.T) {
	// Checkout never fails because the webhook is down.
	n := NewNotifier("http://127.0.0.1:1", "", zap.NewNop())
	err := n.handleOrderPlaced(context.Background(), placedEvent(t))
	assert.NoError(t, err)
}

func TestNotifier_StartWithoutURLStaysDormant(t *testing.T) {
	sub := &recordingSubscriber{}
	n := NewNotifier("", "", zap.NewNop())
	n.Start(sub)
	assert.Empty(t, sub.subscribed)

	n = NewNotifier("http://example.com/webhook/order", "", zap.NewNop())
	n.Start(sub)
	assert.Equal(t, []string{"order.placed"}, sub.subscribed)
}

type recordingSubscriber struct {
	subscribed []string
}

func (s *recordingSubscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.subscribed = append(s.subscribed, eventName)
}
