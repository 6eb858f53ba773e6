package gateway

import (
	"context"
	"fmt"
	"net/url"

	"farmgear-backend/internal/domain"
)

// MockSignature is the sign value MockGateway accepts.
const MockSignature = "mock-signature"

// MockGateway is a local stand-in for the provider. Its URLs point to a
// fake checkout and it trusts any callback carrying MockSignature.
type MockGateway struct {
	baseURL string
}

func NewMockGateway(baseURL string) *MockGateway {
	if baseURL == "" {
		baseURL = "http://localhost:8080/mock-pay"
	}
	return &MockGateway{baseURL: baseURL}
}

func (g *MockGateway) GenerateRedirectURL(ctx context.Context, paymentID string, amountCents int64, subject string) (string, error) {
	q := url.Values{}
	q.Set(FieldOutTradeNo, paymentID)
	q.Set(FieldTotalAmount, domain.FormatAmount(amountCents))
	q.Set("subject", subject)
	return fmt.Sprintf("%s?%s", g.baseURL, q.Encode()), nil
}

func (g *MockGateway) VerifySignature(form map[string]string) bool {
	return form[FieldSign] == MockSignature
}
