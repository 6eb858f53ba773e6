package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/logger"

	"github.com/smartwalle/alipay/v3"
)

const (
	signTypeRSA2     = "RSA2"
	productCodePage  = "FAST_INSTANT_TRADE_PAY"
	alipayTimeOffset = 8 * 60 * 60
)

// AlipayGateway builds signed page-pay URLs and verifies asynchronous
// notifications with the Alipay open-platform client.
type AlipayGateway struct {
	client    *alipay.Client
	notifyURL string
	returnURL string
}

func NewAlipayGateway(cfg Config) (*AlipayGateway, error) {
	if cfg.AppID == "" {
		return nil, errors.New("alipay app id is required")
	}
	if cfg.AlipayPublicKey == "" {
		return nil, errors.New("alipay public key is required")
	}

	// Alipay expects request timestamps in China Standard Time.
	opts := []alipay.OptionFunc{
		alipay.WithTimeLocation(time.FixedZone("CST", alipayTimeOffset)),
	}
	if cfg.GatewayURL != "" {
		opts = append(opts, alipay.WithProductionGateway(cfg.GatewayURL), alipay.WithSandboxGateway(cfg.GatewayURL))
	}

	client, err := alipay.New(cfg.AppID, cfg.MerchantPrivateKey, !cfg.Sandbox, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid merchant private key: %w", err)
	}
	if err := client.LoadAliPayPublicKey(cfg.AlipayPublicKey); err != nil {
		return nil, fmt.Errorf("invalid alipay public key: %w", err)
	}
	return &AlipayGateway{client: client, notifyURL: cfg.NotifyURL, returnURL: cfg.ReturnURL}, nil
}

func (g *AlipayGateway) GenerateRedirectURL(ctx context.Context, paymentID string, amountCents int64, subject string) (string, error) {
	logger.ExternalServiceCall("alipay", "trade.page.pay", "paymentID", paymentID)

	var p alipay.TradePagePay
	p.NotifyURL = g.notifyURL
	p.ReturnURL = g.returnURL
	p.Subject = subject
	p.OutTradeNo = paymentID
	p.TotalAmount = domain.FormatAmount(amountCents)
	p.ProductCode = productCodePage

	u, err := g.client.TradePagePay(p)
	logger.ExternalServiceResult("alipay", "trade.page.pay", err, "paymentID", paymentID)
	if err != nil {
		return "", fmt.Errorf("failed to build alipay page-pay url: %w", err)
	}
	return u.String(), nil
}

// VerifySignature checks a notification form signed with the Alipay key.
func (g *AlipayGateway) VerifySignature(form map[string]string) bool {
	if form[FieldSign] == "" {
		return false
	}
	if st, ok := form[FieldSignType]; ok && st != signTypeRSA2 {
		logger.Warn("Rejecting notification with unsupported sign type", "signType", st)
		return false
	}

	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	if err := g.client.VerifySign(values); err != nil {
		logger.Warn("Alipay signature verification failed", "error", err)
		return false
	}
	return true
}
