// Package payment drives SBP payment sessions: gateway activation, status
// polling, and terminal-state fanout.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domoutbox "github.com/zakazhi/orderpay/internal/domain/outbox"
	domain "github.com/zakazhi/orderpay/internal/domain/payment"
	"github.com/zakazhi/orderpay/internal/gateway/sbp"
	"github.com/zakazhi/orderpay/internal/pkg/logging"
	"github.com/zakazhi/orderpay/internal/pkg/poll"
)

const (
	tracerName = "orderpay/payment"

	confirmTimeout = 15 * time.Second
	rejectTimeout  = 10 * time.Second
)

type Config struct {
	CurrencyCode int
	ReturnURL    string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Listener receives a session snapshot on every observable change. Snapshots
// are private copies; listeners may keep them.
type Listener func(s *domain.Session)

// sessionRuntime pairs a session with its activation goroutine's lifecycle.
// All fields are guarded by Manager.mu.
type sessionRuntime struct {
	session      *domain.Session
	cancel       context.CancelFunc
	poller       *poll.Handle
	cancelled    bool
	terminalSent bool
	startedAt    time.Time
}

// Manager owns all live payment sessions, keyed by order reference. Starting
// a payment kicks off an activation goroutine (order registration, QR
// creation) followed by a status poll loop; every session reaches exactly one
// terminal status and emits exactly one terminal event.
type Manager struct {
	gateway Gateway
	bus     domoutbox.Publisher
	cfg     Config
	metrics *Metrics
	log     *zap.Logger
	tracer  trace.Tracer

	mu       sync.Mutex
	sessions map[string]*sessionRuntime

	lmu       sync.RWMutex
	listeners []Listener
}

func NewManager(gateway Gateway, bus domoutbox.Publisher, cfg Config, metrics *Metrics, logger *zap.Logger) *Manager {
	return &Manager{
		gateway:  gateway,
		bus:      bus,
		cfg:      cfg,
		metrics:  metrics,
		log:      logger.With(zap.String("component", "payment_manager")),
		tracer:   otel.Tracer(tracerName),
		sessions: make(map[string]*sessionRuntime),
	}
}

// Subscribe registers a listener for session snapshots.
func (m *Manager) Subscribe(l Listener) {
	if l == nil {
		return
	}
	m.lmu.Lock()
	defer m.lmu.Unlock()
	m.listeners = append(m.listeners, l)
}

// StartPayment creates a session for the order and begins activation in the
// background. A second start for the same reference while a session is live
// returns ErrSessionActive; a finished session is replaced by a fresh attempt.
func (m *Manager) StartPayment(ctx context.Context, orderReference string, amountMinorUnits int64, description string) (*domain.Session, error) {
	session, err := domain.New(orderReference, amountMinorUnits, m.cfg.CurrencyCode, m.cfg.ReturnURL, description)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[orderReference]; ok &&
		!existing.session.Status.IsTerminal() && !existing.cancelled {
		m.mu.Unlock()
		return nil, domain.ErrSessionActive
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt := &sessionRuntime{
		session:   session,
		cancel:    cancel,
		startedAt: time.Now(),
	}
	m.sessions[orderReference] = rt
	snap := session.Clone()
	m.mu.Unlock()

	m.metrics.started()
	logging.FromContext(ctx).Info("payment_session_started",
		zap.String("order_reference", orderReference),
		zap.Int64("amount_minor_units", amountMinorUnits),
	)

	go m.activate(runCtx, rt)
	return snap, nil
}

// Snapshot returns the current state of the session for the given order.
func (m *Manager) Snapshot(ctx context.Context, orderReference string) (*domain.Session, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.sessions[orderReference]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rt.session.Clone(), nil
}

// Cancel stops activation and polling for a live session. It is idempotent
// and does not force a terminal transition: the session keeps whatever status
// it had, and any gateway result still in flight is discarded on arrival.
// The issued QR, if any, is revoked best effort.
func (m *Manager) Cancel(ctx context.Context, orderReference string) (*domain.Session, error) {
	m.mu.Lock()
	rt, ok := m.sessions[orderReference]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if rt.session.Status.IsTerminal() || rt.cancelled {
		snap := rt.session.Clone()
		m.mu.Unlock()
		return snap, nil
	}

	rt.cancelled = true
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.poller != nil {
		rt.poller.Stop()
	}
	gatewayOrderID, qrID := rt.session.GatewayOrderID, rt.session.QRID
	snap := rt.session.Clone()
	m.mu.Unlock()

	logging.FromContext(ctx).Info("payment_session_cancelled",
		zap.String("order_reference", orderReference),
		zap.String("status", string(snap.Status)),
	)

	if gatewayOrderID != "" && qrID != "" {
		go m.rejectQR(orderReference, gatewayOrderID, qrID)
	}
	return snap, nil
}

// Retry restarts a failed or expired session with the same order reference
// and amount. The gateway identifiers from the previous attempt are dropped.
func (m *Manager) Retry(ctx context.Context, orderReference string) (*domain.Session, error) {
	m.mu.Lock()
	rt, ok := m.sessions[orderReference]
	if !ok {
		m.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	if err := rt.session.ResetForRetry(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if rt.cancel != nil {
		rt.cancel()
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt.cancel = cancel
	rt.cancelled = false
	rt.terminalSent = false
	rt.poller = nil
	rt.startedAt = time.Now()
	snap := rt.session.Clone()
	m.mu.Unlock()

	m.metrics.started()
	logging.FromContext(ctx).Info("payment_session_retry",
		zap.String("order_reference", orderReference),
	)

	go m.activate(runCtx, rt)
	return snap, nil
}

// Shutdown stops all activation goroutines and poll loops. Sessions are left
// in whatever state they were in; nothing is marked terminal.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.sessions {
		if rt.cancel != nil {
			rt.cancel()
		}
		if rt.poller != nil {
			rt.poller.Stop()
		}
	}
}

// activate runs the two gateway calls that turn a fresh session into a
// scannable QR, then hands off to the poll loop. Credentials never leave
// this process: callers only ever see the resulting QR payload.
func (m *Manager) activate(ctx context.Context, rt *sessionRuntime) {
	m.mu.Lock()
	ref := rt.session.OrderReference
	amount := rt.session.AmountMinorUnits
	currency := rt.session.CurrencyCode
	returnURL := rt.session.ReturnURL
	description := rt.session.Description
	m.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, "Payment.Activate", trace.WithAttributes(
		attribute.String("payment.order_reference", ref),
		attribute.Int64("payment.amount_minor_units", amount),
	))
	defer span.End()

	gatewayOrderID, err := m.gateway.RegisterOrder(ctx, sbp.RegisterOrderParams{
		AmountMinorUnits: amount,
		OrderNumber:      ref,
		ReturnURL:        returnURL,
		Description:      description,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order registration failed")
		reason := failureReason(err, "order registration failed")
		m.resolve(rt, func(s *domain.Session) error {
			return s.MarkFailed(reason)
		})
		return
	}

	m.mu.Lock()
	if rt.cancelled {
		m.mu.Unlock()
		return
	}
	if err := rt.session.RegisterGatewayOrder(gatewayOrderID); err != nil {
		m.mu.Unlock()
		m.log.Error("payment_state_transition_failed",
			zap.String("order_reference", ref), zap.Error(err))
		return
	}
	m.mu.Unlock()

	qr, err := m.gateway.CreateDynamicQR(ctx, sbp.CreateQRParams{
		GatewayOrderID:   gatewayOrderID,
		AmountMinorUnits: amount,
		CurrencyCode:     currency,
		Description:      description,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "qr creation failed")
		reason := failureReason(err, "qr creation failed")
		m.resolve(rt, func(s *domain.Session) error {
			return s.MarkFailed(reason)
		})
		return
	}

	m.mu.Lock()
	if rt.cancelled {
		m.mu.Unlock()
		return
	}
	if err := rt.session.QRIssued(qr.ID, qr.Image, qr.URL, nil); err != nil {
		m.mu.Unlock()
		m.log.Error("payment_state_transition_failed",
			zap.String("order_reference", ref), zap.Error(err))
		return
	}
	rt.poller = poll.Start(ctx, poll.Config{
		Interval: m.cfg.PollInterval,
		Timeout:  m.cfg.PollTimeout,
	}, m.checkFunc(rt))
	handle := rt.poller
	snap := rt.session.Clone()
	m.mu.Unlock()

	span.SetStatus(codes.Ok, "qr issued")
	m.log.Info("payment_qr_issued",
		zap.String("order_reference", ref),
		zap.String("qr_id", qr.ID),
	)
	m.notify(snap)

	go m.awaitPollOutcome(rt, handle)
}

// checkFunc builds the poll closure. It treats gateway failures as transient
// and keeps polling; only a terminal gateway status (or a prior local
// resolution) ends the loop.
func (m *Manager) checkFunc(rt *sessionRuntime) poll.CheckFunc {
	return func(ctx context.Context) bool {
		m.mu.Lock()
		if rt.cancelled || rt.terminalSent {
			m.mu.Unlock()
			return true
		}
		gatewayOrderID, qrID := rt.session.GatewayOrderID, rt.session.QRID
		ref := rt.session.OrderReference
		m.mu.Unlock()

		m.metrics.pollCheck()
		status, err := m.gateway.QRStatus(ctx, gatewayOrderID, qrID)
		if err != nil {
			m.log.Warn("payment_status_check_failed",
				zap.String("order_reference", ref),
				zap.Error(err),
			)
			return false
		}
		return m.applyGatewayStatus(rt, status)
	}
}

func (m *Manager) awaitPollOutcome(rt *sessionRuntime, handle *poll.Handle) {
	outcome := <-handle.Outcome()
	if outcome != poll.OutcomeTimeout {
		return
	}

	// The local deadline passed without a terminal answer. Ask the gateway
	// one last time so a payment landing right at the boundary is not lost,
	// then give up and expire locally.
	m.mu.Lock()
	if rt.cancelled || rt.terminalSent {
		m.mu.Unlock()
		return
	}
	gatewayOrderID, qrID := rt.session.GatewayOrderID, rt.session.QRID
	ref := rt.session.OrderReference
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
	defer cancel()
	status, err := m.gateway.QRStatus(ctx, gatewayOrderID, qrID)
	if err == nil && m.applyGatewayStatus(rt, status) {
		return
	}
	if err != nil {
		m.log.Warn("payment_final_status_check_failed",
			zap.String("order_reference", ref),
			zap.Error(err),
		)
	}
	m.resolve(rt, func(s *domain.Session) error {
		return s.MarkExpired(domain.ExpiryOriginLocal, "status polling deadline reached")
	})
}

// applyGatewayStatus maps a gateway QR status onto the session. It returns
// true when the status was terminal.
func (m *Manager) applyGatewayStatus(rt *sessionRuntime, status sbp.Status) bool {
	switch status {
	case sbp.StatusPaid:
		m.resolve(rt, func(s *domain.Session) error { return s.MarkPaid() })
		return true
	case sbp.StatusRejectedByUser:
		m.resolve(rt, func(s *domain.Session) error { return s.MarkRejected("rejected by payer") })
		return true
	case sbp.StatusCancelled:
		m.resolve(rt, func(s *domain.Session) error { return s.MarkRejected("cancelled on gateway side") })
		return true
	case sbp.StatusExpired:
		m.resolve(rt, func(s *domain.Session) error { return s.MarkExpired(domain.ExpiryOriginGateway, "qr code expired") })
		return true
	default:
		return false
	}
}

// resolve applies a terminal transition exactly once. Late results after
// cancellation or a prior terminal are silently dropped.
func (m *Manager) resolve(rt *sessionRuntime, transition func(*domain.Session) error) {
	m.mu.Lock()
	if rt.cancelled || rt.terminalSent {
		m.mu.Unlock()
		return
	}
	if err := transition(rt.session); err != nil {
		ref := rt.session.OrderReference
		m.mu.Unlock()
		m.log.Error("payment_state_transition_failed",
			zap.String("order_reference", ref), zap.Error(err))
		return
	}
	rt.terminalSent = true
	if rt.cancel != nil {
		rt.cancel()
	}
	if rt.poller != nil {
		rt.poller.Stop()
	}
	snap := rt.session.Clone()
	elapsed := time.Since(rt.startedAt).Seconds()
	m.mu.Unlock()

	m.metrics.closed(string(snap.Status), elapsed)
	m.log.Info("payment_session_closed",
		zap.String("order_reference", snap.OrderReference),
		zap.String("status", string(snap.Status)),
		zap.String("reason", snap.FailureReason),
	)

	if snap.Status == domain.StatusPaid {
		m.publish(domain.NewPaymentPaidEvent(snap))
	} else {
		m.publish(domain.NewPaymentClosedEvent(snap))
	}
	m.notify(snap)
}

func (m *Manager) publish(e domoutbox.Event) {
	if m.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.bus.Publish(ctx, e); err != nil {
		m.log.Warn("payment_event_publish_failed",
			zap.String("event", e.EventName()), zap.Error(err))
	}
}

func (m *Manager) notify(snap *domain.Session) {
	m.lmu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.lmu.RUnlock()
	for _, l := range listeners {
		l(snap.Clone())
	}
}

// failureReason surfaces the gateway's own message verbatim when it reported
// one, falling back to a generic reason with the underlying error.
func failureReason(err error, fallback string) string {
	var gwErr *sbp.Error
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return fmt.Sprintf("%s: %v", fallback, err)
}

func (m *Manager) rejectQR(ref, gatewayOrderID, qrID string) {
	ctx, cancel := context.WithTimeout(context.Background(), rejectTimeout)
	defer cancel()
	if _, err := m.gateway.RejectQR(ctx, gatewayOrderID, qrID); err != nil {
		m.log.Warn("payment_qr_reject_failed",
			zap.String("order_reference", ref),
			zap.Error(err),
		)
	}
}
