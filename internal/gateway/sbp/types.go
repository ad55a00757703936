package sbp

import "fmt"

// Status is a QR payment status as reported by the gateway.
type Status string

const (
	StatusNew            Status = "NEW"
	StatusPaid           Status = "PAID"
	StatusRejectedByUser Status = "REJECTED_BY_USER"
	StatusExpired        Status = "EXPIRED"
	StatusCancelled      Status = "CANCELLED"
)

// Terminal reports whether the gateway will never move the payment out of
// this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusPaid, StatusRejectedByUser, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// QR is a dynamic QR code issued by the gateway. Image is a base64-encoded
// PNG; URL is the payment link variant and may be empty.
type QR struct {
	ID    string
	Image string
	URL   string
}

// RegisterOrderParams are the inputs for order registration. Amount is in
// minor currency units.
type RegisterOrderParams struct {
	AmountMinorUnits int64
	OrderNumber      string
	ReturnURL        string
	Description      string
}

// CreateQRParams are the inputs for dynamic QR creation. CurrencyCode is an
// ISO 4217 numeric code; zero means RUB (643).
type CreateQRParams struct {
	GatewayOrderID   string
	AmountMinorUnits int64
	CurrencyCode     int
	Description      string
}

// Error is a logical error reported by the gateway in an otherwise
// well-formed response body.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sbp: gateway error %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("sbp: gateway error %s", e.Code)
}

type registerOrderResponse struct {
	OrderID      string `json:"orderId"`
	FormURL      string `json:"formUrl"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type createQRResponse struct {
	QRID         string `json:"qrId"`
	QRURL        string `json:"qrUrl"`
	QRImage      string `json:"qrImage"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type qrStatusResponse struct {
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     int    `json:"currency"`
	OrderNumber  string `json:"orderNumber"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type rejectQRResponse struct {
	Rejected     bool   `json:"rejected"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// getOrderStatus.do uses capitalized keys, unlike the other endpoints.
type orderStatusResponse struct {
	OrderStatus  *int   `json:"OrderStatus"`
	ErrorCode    string `json:"ErrorCode"`
	ErrorMessage string `json:"ErrorMessage"`
}
