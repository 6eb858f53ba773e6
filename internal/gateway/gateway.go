package gateway

import (
	"context"
	"fmt"
)

// PaymentGateway is the external payment provider as seen by settlement.
type PaymentGateway interface {
	// GenerateRedirectURL returns the URL the payer is sent to. paymentID
	// is echoed back by the provider as out_trade_no.
	GenerateRedirectURL(ctx context.Context, paymentID string, amountCents int64, subject string) (string, error)

	// VerifySignature checks that a callback form was signed by the provider.
	VerifySignature(form map[string]string) bool
}

// Callback form fields and the settled trade status.
const (
	FieldOutTradeNo    = "out_trade_no"
	FieldTradeStatus   = "trade_status"
	FieldTotalAmount   = "total_amount"
	FieldSign          = "sign"
	FieldSignType      = "sign_type"
	TradeStatusSuccess = "TRADE_SUCCESS"
)

// Gateway backends accepted by New.
const (
	TypeMock   = "mock"
	TypeAlipay = "alipay"
)

// Config selects and configures a gateway backend.
type Config struct {
	Type               string // "mock" or "alipay"
	AppID              string
	MerchantPrivateKey string // PEM or bare base64 DER
	AlipayPublicKey    string // PEM or bare base64 DER
	NotifyURL          string
	ReturnURL          string
	GatewayURL         string
	Sandbox            bool // alipay only: use the sandbox environment
}

// New builds the gateway named by cfg.Type.
func New(cfg Config) (PaymentGateway, error) {
	switch cfg.Type {
	case TypeMock:
		return NewMockGateway(cfg.GatewayURL), nil
	case TypeAlipay:
		return NewAlipayGateway(cfg)
	case "":
		return nil, fmt.Errorf("gateway type is required")
	default:
		return nil, fmt.Errorf("unknown gateway type %q", cfg.Type)
	}
}
