package payment

import (
	"context"

	"github.com/zakazhi/orderpay/internal/gateway/sbp"
)

// Gateway is the slice of the acquiring API the session manager needs.
type Gateway interface {
	RegisterOrder(ctx context.Context, p sbp.RegisterOrderParams) (string, error)
	CreateDynamicQR(ctx context.Context, p sbp.CreateQRParams) (sbp.QR, error)
	QRStatus(ctx context.Context, gatewayOrderID, qrID string) (sbp.Status, error)
	RejectQR(ctx context.Context, gatewayOrderID, qrID string) (bool, error)
}
