// Package httptransport exposes the kiosk API over HTTP. Gateway credentials
// never cross this boundary: responses carry only the QR payload and session
// state.
package httptransport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apporder "github.com/zakazhi/orderpay/internal/application/order"
	apppayment "github.com/zakazhi/orderpay/internal/application/payment"
	"github.com/zakazhi/orderpay/internal/domain/menu"
	domorder "github.com/zakazhi/orderpay/internal/domain/order"
	dompayment "github.com/zakazhi/orderpay/internal/domain/payment"
)

type Handler struct {
	orders   *apporder.Service
	payments *apppayment.Manager
	menuRepo menu.Repository
}

func NewHandler(orders *apporder.Service, payments *apppayment.Manager, menuRepo menu.Repository) *Handler {
	return &Handler{
		orders:   orders,
		payments: payments,
		menuRepo: menuRepo,
	}
}

// NewRouter builds the gin engine with recovery, observability, and CORS for
// the kiosk frontend.
func NewRouter(h *Handler, logger *zap.Logger, metrics *Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ObservabilityMiddleware(logger, metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:       12 * time.Hour,
	}))
	h.register(r)
	return r
}

func (h *Handler) register(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/menu", h.listMenu)
	r.POST("/orders", h.placeOrder)
	r.POST("/payments", h.startPayment)
	r.GET("/payments/:reference", h.paymentStatus)
	r.POST("/payments/:reference/cancel", h.cancelPayment)
	r.POST("/payments/:reference/retry", h.retryPayment)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type menuItemView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
	Available   bool     `json:"available"`
}

func (h *Handler) listMenu(c *gin.Context) {
	items, err := h.menuRepo.List(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	views := make([]menuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, menuItemView{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Category:    item.Category,
			Ingredients: item.Ingredients,
			Available:   item.Available,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": views})
}

type placeOrderRequest struct {
	Items []struct {
		ItemID             string   `json:"item_id" binding:"required"`
		Quantity           int      `json:"quantity" binding:"required"`
		RemovedIngredients []string `json:"removed_ingredients"`
	} `json:"items" binding:"required"`
}

type orderLineView struct {
	ItemID             string   `json:"item_id"`
	Name               string   `json:"name"`
	UnitPrice          int64    `json:"unit_price"`
	Quantity           int      `json:"quantity"`
	RemovedIngredients []string `json:"removed_ingredients,omitempty"`
}

type orderView struct {
	OrderNumber   string          `json:"order_number"`
	Lines         []orderLineView `json:"lines"`
	TotalAmount   int64           `json:"total_amount"`
	Status        string          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	PlacedAt      time.Time       `json:"placed_at"`
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	lines := make([]apporder.CheckoutLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, apporder.CheckoutLine{
			ItemID:             item.ItemID,
			Quantity:           item.Quantity,
			RemovedIngredients: item.RemovedIngredients,
		})
	}

	placed, err := h.orders.Checkout(c.Request.Context(), lines)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderView(placed))
}

type startPaymentRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
}

type paymentView struct {
	OrderReference   string     `json:"order_reference"`
	Status           string     `json:"status"`
	AmountMinorUnits int64      `json:"amount_minor_units"`
	QRImage          string     `json:"qr_image,omitempty"`
	QRURL            string     `json:"qr_url,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	ExpiryOrigin     string     `json:"expiry_origin,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (h *Handler) startPayment(c *gin.Context) {
	var req startPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	placed, err := h.orders.Get(c.Request.Context(), req.OrderNumber)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	description := fmt.Sprintf("Оплата заказа №%s", placed.Number)
	session, err := h.payments.StartPayment(c.Request.Context(), placed.Number, placed.TotalMinorUnits(), description)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toPaymentView(session))
}

func (h *Handler) paymentStatus(c *gin.Context) {
	session, err := h.payments.Snapshot(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(session))
}

func (h *Handler) cancelPayment(c *gin.Context) {
	session, err := h.payments.Cancel(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentView(session))
}

func (h *Handler) retryPayment(c *gin.Context) {
	session, err := h.payments.Retry(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toPaymentView(session))
}

func toOrderView(o *domorder.Order) orderView {
	lines := make([]orderLineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineView{
			ItemID:             l.ItemID,
			Name:               l.Name,
			UnitPrice:          l.UnitPrice,
			Quantity:           l.Quantity,
			RemovedIngredients: l.RemovedIngredients,
		})
	}
	return orderView{
		OrderNumber:   o.Number,
		Lines:         lines,
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		FailureReason: o.FailureReason,
		PlacedAt:      o.PlacedAt,
	}
}

func toPaymentView(s *dompayment.Session) paymentView {
	return paymentView{
		OrderReference:   s.OrderReference,
		Status:           string(s.Status),
		AmountMinorUnits: s.AmountMinorUnits,
		QRImage:          s.QRImage,
		QRURL:            s.QRURL,
		ExpiresAt:        s.ExpiresAt,
		ExpiryOrigin:     string(s.ExpiryOrigin),
		FailureReason:    s.FailureReason,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func writeError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domorder.ErrNotFound),
		errors.Is(err, dompayment.ErrNotFound),
		errors.Is(err, menu.ErrNotFound):
		writeError(c, http.StatusNotFound, err)
	case errors.Is(err, dompayment.ErrSessionActive),
		errors.Is(err, dompayment.ErrSessionTerminal),
		errors.Is(err, dompayment.ErrRetryNotAllowed):
		writeError(c, http.StatusConflict, err)
	case errors.Is(err, domorder.ErrEmptyOrder),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, dompayment.ErrInvalidAmount),
		errors.Is(err, dompayment.ErrEmptyOrderReference),
		errors.Is(err, menu.ErrUnavailable):
		writeError(c, http.StatusBadRequest, err)
	default:
		writeError(c, http.StatusInternalServerError, err)
	}
}
