package http

import (
	"context"
	"net/http"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/metrics"
	"farmgear-backend/internal/service"

	"github.com/google/uuid"
)

// Gateway callback replies. The provider retries until it reads "success".
const (
	callbackSuccess = "success"
	callbackFail    = "fail"
)

// PaymentHandler serves the payment endpoints and the gateway callback.
type PaymentHandler struct {
	booking service.BookingService
	gateway gateway.PaymentGateway
	metrics *metrics.Metrics
}

func NewPaymentHandler(booking service.BookingService, gw gateway.PaymentGateway, m *metrics.Metrics) *PaymentHandler {
	return &PaymentHandler{booking: booking, gateway: gw, metrics: m}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req paymentIntentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeError(w, domain.Validation("invalid order_id"))
		return
	}

	intent, err := h.booking.CreatePaymentIntent(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "payment intent created", paymentIntentView{
		Payment:    toPaymentView(intent.Payment),
		PaymentURL: intent.RedirectURL,
	})
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.booking.GetPaymentStatus(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", toPaymentView(p))
}

func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.booking.CompletePayment(r.Context(), actor, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "payment completed", toPaymentView(p))
}

// Callback receives the provider's asynchronous notification. It always
// answers 200 with a plain "success" or "fail" body.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var reply string
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(r.Context(), "Unreadable payment callback", "error", err)
		h.metrics.CallbackHandled("malformed")
		reply = callbackFail
	} else {
		form := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		reply = h.handleNotification(r.Context(), form)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(reply))
}

func (h *PaymentHandler) handleNotification(ctx context.Context, form map[string]string) string {
	if !h.gateway.VerifySignature(form) {
		logger.WarnContext(ctx, "Invalid payment callback signature")
		h.metrics.CallbackHandled("invalid_signature")
		return callbackFail
	}

	paymentID, okID := form[gateway.FieldOutTradeNo]
	tradeStatus, okStatus := form[gateway.FieldTradeStatus]
	totalAmount, okAmount := form[gateway.FieldTotalAmount]
	if !okID || !okStatus || !okAmount {
		logger.WarnContext(ctx, "Missing required parameters in payment callback")
		h.metrics.CallbackHandled("missing_fields")
		return callbackFail
	}

	if tradeStatus != gateway.TradeStatusSuccess {
		// Acknowledged so the provider stops retrying.
		logger.InfoContext(ctx, "Payment not successful", "tradeStatus", tradeStatus, "paymentID", paymentID)
		h.metrics.CallbackHandled("ignored")
		return callbackSuccess
	}

	id, err := uuid.Parse(paymentID)
	if err != nil {
		logger.WarnContext(ctx, "Payment callback with malformed trade number", "outTradeNo", paymentID)
		h.metrics.CallbackHandled("malformed")
		return callbackFail
	}
	amount, err := domain.ParseAmount(totalAmount)
	if err != nil {
		logger.WarnContext(ctx, "Payment callback with malformed amount", "totalAmount", totalAmount)
		h.metrics.CallbackHandled("malformed")
		return callbackFail
	}

	if _, err := h.booking.MarkPaymentSucceeded(ctx, id, &amount); err != nil {
		logger.ErrorContext(ctx, "Failed to mark payment as succeeded", "paymentID", id, "error", err)
		h.metrics.CallbackHandled("rejected")
		return callbackFail
	}
	h.metrics.CallbackHandled("settled")
	return callbackSuccess
}
