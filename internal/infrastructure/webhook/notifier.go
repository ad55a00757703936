// Package webhook forwards placed orders to an external automation workflow.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	domorder "github.com/zakazhi/orderpay/internal/domain/order"
	"github.com/zakazhi/orderpay/internal/domain/outbox"
	"github.com/zakazhi/orderpay/internal/pkg/logging"
)

const defaultTimeout = 10 * time.Second

type orderItem struct {
	Name               string   `json:"name"`
	Quantity           int      `json:"quantity"`
	Price              int64    `json:"price"`
	RemovedIngredients []string `json:"removedIngredients,omitempty"`
}

type orderPayload struct {
	OrderNumber  string      `json:"orderNumber"`
	Items        []orderItem `json:"items"`
	TotalAmount  int64       `json:"totalAmount"`
	Time         string      `json:"time"`
	Date         string      `json:"date"`
	RestaurantID string      `json:"restaurantId,omitempty"`
}

// Notifier posts placed orders to the workflow endpoint. Delivery is best
// effort: a failed post is logged and dropped, never surfaced to the
// customer flow.
type Notifier struct {
	url          string
	restaurantID string
	client       *http.Client
	log          *zap.Logger
}

func NewNotifier(url, restaurantID string, logger *zap.Logger) *Notifier {
	return &Notifier{
		url:          url,
		restaurantID: restaurantID,
		client:       &http.Client{Timeout: defaultTimeout},
		log:          logger.With(zap.String("component", "order_webhook")),
	}
}

// Start registers the notifier on the event bus. With no URL configured the
// notifier stays dormant.
func (n *Notifier) Start(subscriber outbox.Subscriber) {
	if subscriber == nil || n.url == "" {
		return
	}
	subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), n.handleOrderPlaced)
}

func (n *Notifier) handleOrderPlaced(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(domorder.OrderPlacedEvent)
	if !ok {
		return nil
	}

	if err := n.Notify(ctx, evt); err != nil {
		logging.FromContext(ctx).Warn("order_webhook_delivery_failed",
			zap.String("order_number", evt.OrderNumber),
			zap.Error(err),
		)
	}
	// Webhook failures never fail the checkout flow.
	return nil
}

func (n *Notifier) Notify(ctx context.Context, evt domorder.OrderPlacedEvent) error {
	items := make([]orderItem, 0, len(evt.Lines))
	for _, l := range evt.Lines {
		items = append(items, orderItem{
			Name:               l.Name,
			Quantity:           l.Quantity,
			Price:              l.UnitPrice,
			RemovedIngredients: l.RemovedIngredients,
		})
	}

	placedAt := evt.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}

	payload := orderPayload{
		OrderNumber:  evt.OrderNumber,
		Items:        items,
		TotalAmount:  evt.TotalAmount,
		Time:         placedAt.Format("15:04"),
		Date:         placedAt.Format("02.01.2006"),
		RestaurantID: n.restaurantID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}

	n.log.Info("order_webhook_delivered",
		zap.String("order_number", evt.OrderNumber),
		zap.Int64("total_amount", evt.TotalAmount),
	)
	return nil
}
