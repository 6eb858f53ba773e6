package http

import (
	"context"
	"net/http"
	"time"

	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/metrics"
	"farmgear-backend/internal/security"
	"farmgear-backend/internal/service"

	"github.com/gorilla/mux"
)

// Pinger is satisfied by repository.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the REST surface is built from. Metrics may
// be nil. MockCheckout enables the fake checkout page used with the mock gateway.
type Deps struct {
	Booking        service.BookingService
	Equipment      service.EquipmentService
	Gateway        gateway.PaymentGateway
	Tokens         security.TokenManager
	Metrics        *metrics.Metrics
	Health         Pinger
	RequestTimeout time.Duration
	MockCheckout   bool
}

func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, recoverer, instrument(d.Metrics), timeout(d.RequestTimeout), authenticate(d.Tokens))

	orders := NewOrderHandler(d.Booking)
	payments := NewPaymentHandler(d.Booking, d.Gateway, d.Metrics)
	equipment := NewEquipmentHandler(d.Equipment, d.Booking)

	r.HandleFunc("/healthz", healthz(d.Health)).Methods(http.MethodGet).Name("healthz")
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/orders", orders.Create).Methods(http.MethodPost).Name("createOrder")
	api.HandleFunc("/orders", orders.List).Methods(http.MethodGet).Name("listOrders")
	api.HandleFunc("/orders/{id}", orders.Get).Methods(http.MethodGet).Name("getOrder")
	api.HandleFunc("/orders/{id}/status", orders.UpdateStatus).Methods(http.MethodPut).Name("updateOrderStatus")
	api.HandleFunc("/orders/{id}/cancel", orders.Cancel).Methods(http.MethodPut).Name("cancelOrder")
	api.HandleFunc("/admin/orders/expire-stale", orders.ExpireStale).Methods(http.MethodPost).Name("expireStaleOrders")

	api.HandleFunc("/payment/intent", payments.CreateIntent).Methods(http.MethodPost).Name("createPaymentIntent")
	api.HandleFunc("/payment/status/{orderId}", payments.Status).Methods(http.MethodGet).Name("getPaymentStatus")
	api.HandleFunc("/payment/complete/{orderId}", payments.Complete).Methods(http.MethodPost).Name("completePayment")
	api.HandleFunc("/payment/callback", payments.Callback).Methods(http.MethodPost).Name("paymentCallback")

	api.HandleFunc("/equipment", equipment.Create).Methods(http.MethodPost).Name("createEquipment")
	api.HandleFunc("/equipment/{id}", equipment.Get).Methods(http.MethodGet).Name("getEquipment")
	api.HandleFunc("/equipment/{id}", equipment.Update).Methods(http.MethodPut).Name("updateEquipment")
	api.HandleFunc("/equipment/{id}/availability", equipment.Availability).Methods(http.MethodGet).Name("equipmentAvailability")

	if d.MockCheckout {
		r.HandleFunc("/mock-pay", NewMockCheckoutHandler(payments).Pay).Methods(http.MethodGet).Name("mockCheckout")
		logger.Warn("Mock checkout enabled: payment URLs settle without a real provider")
	}
	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.WarnContext(r.Context(), "Health check failed", "error", err)
				writeFail(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeOK(w, http.StatusOK, "ok", nil)
	}
}
