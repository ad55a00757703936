package sbp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	endpointRegisterOrder = "register.do"
	endpointCreateQR      = "sbp/c2b/qr/dynamic/create.do"
	endpointQRStatus      = "sbp/c2b/qr/dynamic/status.do"
	endpointRejectQR      = "sbp/c2b/qr/dynamic/reject.do"
	endpointOrderStatus   = "getOrderStatus.do"

	defaultCurrencyRUB = 643
	defaultTimeout     = 15 * time.Second
)

// Config configures the gateway client. BaseURL is injected (sandbox vs
// production is a deployment concern, not a code path). Credentials are
// attached to every request body per the gateway's REST contract.
type Config struct {
	BaseURL  string
	UserName string
	Password string
	Language string
	Timeout  time.Duration
}

// Client is a stateless SBP gateway client. All operations are form-encoded
// POSTs returning JSON; transport errors and gateway-reported logical errors
// both surface as errors, so callers treat any error as "no usable data".
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With(zap.String("component", "sbp_client")),
	}
}

// RegisterOrder registers an order with the gateway and returns the
// gateway-assigned order id.
func (c *Client) RegisterOrder(ctx context.Context, p RegisterOrderParams) (string, error) {
	params := url.Values{}
	params.Set("amount", strconv.FormatInt(p.AmountMinorUnits, 10))
	params.Set("returnUrl", p.ReturnURL)
	params.Set("orderNumber", p.OrderNumber)
	if p.Description != "" {
		params.Set("description", p.Description)
	}
	if c.cfg.Language != "" {
		params.Set("language", c.cfg.Language)
	}

	var resp registerOrderResponse
	if err := c.postForm(ctx, endpointRegisterOrder, params, &resp); err != nil {
		return "", fmt.Errorf("sbp: register order: %w", err)
	}
	if err := gatewayErr(resp.ErrorCode, resp.ErrorMessage); err != nil {
		return "", err
	}
	if resp.OrderID == "" {
		return "", fmt.Errorf("sbp: register order: response missing order id")
	}
	return resp.OrderID, nil
}

// CreateDynamicQR creates a dynamic QR code for a registered order.
func (c *Client) CreateDynamicQR(ctx context.Context, p CreateQRParams) (QR, error) {
	currency := p.CurrencyCode
	if currency == 0 {
		currency = defaultCurrencyRUB
	}

	params := url.Values{}
	params.Set("mdOrder", p.GatewayOrderID)
	params.Set("amount", strconv.FormatInt(p.AmountMinorUnits, 10))
	params.Set("currency", strconv.Itoa(currency))
	if p.Description != "" {
		params.Set("orderDescription", p.Description)
	}
	if c.cfg.Language != "" {
		params.Set("language", c.cfg.Language)
	}

	var resp createQRResponse
	if err := c.postForm(ctx, endpointCreateQR, params, &resp); err != nil {
		return QR{}, fmt.Errorf("sbp: create qr: %w", err)
	}
	if err := gatewayErr(resp.ErrorCode, resp.ErrorMessage); err != nil {
		return QR{}, err
	}
	// A success-shaped response without a renderable image is not actionable.
	if resp.QRID == "" || resp.QRImage == "" {
		return QR{}, fmt.Errorf("sbp: create qr: response missing qr payload")
	}
	return QR{ID: resp.QRID, Image: resp.QRImage, URL: resp.QRURL}, nil
}

// QRStatus queries the payment status of a dynamic QR. An empty status in a
// well-formed response is reported as NEW (the gateway omits the field until
// the customer interacts with the QR).
func (c *Client) QRStatus(ctx context.Context, gatewayOrderID, qrID string) (Status, error) {
	params := url.Values{}
	params.Set("mdOrder", gatewayOrderID)
	params.Set("qrId", qrID)

	var resp qrStatusResponse
	if err := c.postForm(ctx, endpointQRStatus, params, &resp); err != nil {
		return "", fmt.Errorf("sbp: qr status: %w", err)
	}
	if err := gatewayErr(resp.ErrorCode, resp.ErrorMessage); err != nil {
		return "", err
	}
	if resp.Status == "" {
		return StatusNew, nil
	}
	return Status(resp.Status), nil
}

// RejectQR asks the gateway to reject an outstanding QR payment.
func (c *Client) RejectQR(ctx context.Context, gatewayOrderID, qrID string) (bool, error) {
	params := url.Values{}
	params.Set("mdOrder", gatewayOrderID)
	params.Set("qrId", qrID)

	var resp rejectQRResponse
	if err := c.postForm(ctx, endpointRejectQR, params, &resp); err != nil {
		return false, fmt.Errorf("sbp: reject qr: %w", err)
	}
	if err := gatewayErr(resp.ErrorCode, resp.ErrorMessage); err != nil {
		return false, err
	}
	return resp.Rejected, nil
}

// OrderStatus returns the numeric gateway order status code
// (0 registered, 2 paid, 6 cancelled).
func (c *Client) OrderStatus(ctx context.Context, gatewayOrderID string) (int, error) {
	params := url.Values{}
	params.Set("orderId", gatewayOrderID)

	var resp orderStatusResponse
	if err := c.postForm(ctx, endpointOrderStatus, params, &resp); err != nil {
		return 0, fmt.Errorf("sbp: order status: %w", err)
	}
	if err := gatewayErr(resp.ErrorCode, resp.ErrorMessage); err != nil {
		return 0, err
	}
	if resp.OrderStatus == nil {
		return 0, fmt.Errorf("sbp: order status: response missing status code")
	}
	return *resp.OrderStatus, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, params url.Values, dst any) error {
	params.Set("userName", c.cfg.UserName)
	params.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("gateway_call",
		zap.String("endpoint", endpoint),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// gatewayErr normalizes the errorCode/errorMessage pair. Some deployments
// report success as errorCode "0", so only a non-zero code is an error.
func gatewayErr(code, message string) error {
	if code == "" || code == "0" {
		return nil
	}
	return &Error{Code: code, Message: message}
}
