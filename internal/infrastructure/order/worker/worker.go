// Package worker reacts to payment lifecycle events and settles orders.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domorder "github.com/zakazhi/orderpay/internal/domain/order"
	"github.com/zakazhi/orderpay/internal/domain/outbox"
	dompayment "github.com/zakazhi/orderpay/internal/domain/payment"
)

type Worker struct {
	repo       domorder.Repository
	subscriber outbox.Subscriber
	log        *zap.Logger
}

func New(repo domorder.Repository, subscriber outbox.Subscriber, logger *zap.Logger) *Worker {
	return &Worker{
		repo:       repo,
		subscriber: subscriber,
		log:        logger,
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.repo == nil {
		return
	}
	w.subscriber.Subscribe(dompayment.PaymentPaidEvent{}.EventName(), w.handlePaymentPaid)
	w.subscriber.Subscribe(dompayment.PaymentClosedEvent{}.EventName(), w.handlePaymentClosed)
}

func (w *Worker) handlePaymentPaid(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(dompayment.PaymentPaidEvent)
	if !ok {
		return nil
	}

	order, err := w.repo.FindByNumber(ctx, evt.OrderReference)
	if err != nil {
		w.logError("order_load_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: find order: %w", err)
	}

	if err := order.MarkPaid(); err != nil {
		w.logError("order_state_transition_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: mark paid: %w", err)
	}

	if err := w.repo.Update(ctx, order); err != nil {
		w.logError("order_update_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: update order: %w", err)
	}

	w.log.Info("order_paid",
		zap.String("order_number", order.Number),
		zap.Int64("total_amount", order.TotalAmount),
	)
	return nil
}

func (w *Worker) handlePaymentClosed(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(dompayment.PaymentClosedEvent)
	if !ok {
		return nil
	}

	order, err := w.repo.FindByNumber(ctx, evt.OrderReference)
	if err != nil {
		w.logError("order_load_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: find order: %w", err)
	}

	reason := evt.Reason
	if reason == "" {
		reason = string(evt.Status)
	}
	if err := order.MarkPaymentFailed(reason); err != nil {
		// A paid order stays paid even if a stale close event arrives late.
		w.logError("order_state_transition_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: mark payment failed: %w", err)
	}

	if err := w.repo.Update(ctx, order); err != nil {
		w.logError("order_update_failed", evt.OrderReference, err)
		return fmt.Errorf("order worker: update order: %w", err)
	}

	w.log.Warn("order_payment_closed",
		zap.String("order_number", order.Number),
		zap.String("status", string(evt.Status)),
		zap.String("reason", reason),
	)
	return nil
}

func (w *Worker) logError(msg string, orderNumber string, err error) {
	w.log.Error(msg, zap.String("order_number", orderNumber), zap.Error(err))
}
