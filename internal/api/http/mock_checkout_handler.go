package http

import (
	"net/http"

	"farmgear-backend/internal/gateway"
)

// MockCheckoutHandler stands in for the provider's checkout page when the
// mock gateway is configured: visiting a generated payment URL delivers a
// signed notification to the regular callback path.
type MockCheckoutHandler struct {
	payments *PaymentHandler
}

func NewMockCheckoutHandler(payments *PaymentHandler) *MockCheckoutHandler {
	return &MockCheckoutHandler{payments: payments}
}

// Pay handles GET requests to mock payment URLs
func (h *MockCheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tradeNo := q.Get(gateway.FieldOutTradeNo)
	if tradeNo == "" {
		http.Error(w, "Missing out_trade_no parameter", http.StatusBadRequest)
		return
	}

	status := q.Get(gateway.FieldTradeStatus)
	if status == "" {
		status = gateway.TradeStatusSuccess
	}
	form := map[string]string{
		gateway.FieldOutTradeNo:  tradeNo,
		gateway.FieldTotalAmount: q.Get(gateway.FieldTotalAmount),
		gateway.FieldTradeStatus: status,
		gateway.FieldSign:        gateway.MockSignature,
	}

	reply := h.payments.handleNotification(r.Context(), form)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reply))
}
