package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// OrderHandler serves the order endpoints.
type OrderHandler struct {
	booking service.BookingService
}

func NewOrderHandler(booking service.BookingService) *OrderHandler {
	return &OrderHandler{booking: booking}
}

func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "failed to get user information")
	}
	return actor, ok
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, domain.Validation("invalid %s", name)
	}
	return id, nil
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	equipmentID, err := uuid.Parse(req.EquipmentID)
	if err != nil {
		writeError(w, domain.Validation("invalid equipment_id"))
		return
	}
	window, err := domain.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.booking.CreateOrder(r.Context(), actor, equipmentID, window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "order created", toOrderView(order))
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	filter, err := parseOrderFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	orders, total, err := h.booking.ListOrders(r.Context(), actor, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	filter.Normalize()
	writeOK(w, http.StatusOK, "", toOrderPage(orders, total, filter))
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.booking.GetOrder(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", toOrderView(order))
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	to := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	order, err := h.booking.TransitionOrder(r.Context(), actor, id, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "order status updated", toOrderView(order))
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.booking.CancelOrder(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "order cancelled", toOrderView(order))
}

// ExpireStale runs the stale pending order sweep on demand.
func (h *OrderHandler) ExpireStale(w http.ResponseWriter, r *http.Request) {
	n, err := h.booking.ExpireStalePendingOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", map[string]int{"expired": n})
}

// parseOrderFilter reads the listing query string. Unknown sort columns
// fall back to the default ordering.
func parseOrderFilter(q url.Values) (domain.OrderFilter, error) {
	var f domain.OrderFilter
	var err error

	if f.Page, err = queryInt32(q, "pageNumber"); err != nil {
		return f, err
	}
	if f.PageSize, err = queryInt32(q, "pageSize"); err != nil {
		return f, err
	}
	if s := q.Get("status"); s != "" {
		f.Status = domain.OrderStatus(strings.ToUpper(s))
	}
	for key, dst := range map[string]**time.Time{
		"startDateFrom": &f.StartDateFrom,
		"startDateTo":   &f.StartDateTo,
		"endDateFrom":   &f.EndDateFrom,
		"endDateTo":     &f.EndDateTo,
	} {
		if *dst, err = queryDate(q, key); err != nil {
			return f, err
		}
	}
	if f.MinTotalCents, err = queryAmount(q, "minTotalAmount"); err != nil {
		return f, err
	}
	if f.MaxTotalCents, err = queryAmount(q, "maxTotalAmount"); err != nil {
		return f, err
	}

	f.SortBy = domain.OrderSort(strings.ToLower(q.Get("sortBy")))
	f.Ascending = true
	if s := q.Get("isAscending"); s != "" {
		if f.Ascending, err = strconv.ParseBool(s); err != nil {
			return f, domain.Validation("invalid isAscending %q", s)
		}
	}
	return f, nil
}

func queryInt32(q url.Values, key string) (int32, error) {
	s := q.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, domain.Validation("invalid %s %q", key, s)
	}
	return int32(n), nil
}

func queryDate(q url.Values, key string) (*time.Time, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil, domain.Validation("invalid %s %q, expected yyyy-mm-dd", key, s)
	}
	return &t, nil
}

func queryAmount(q url.Values, key string) (*int64, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	cents, err := domain.ParseAmount(s)
	if err != nil {
		return nil, domain.Validation("invalid %s %q", key, s)
	}
	return &cents, nil
}
