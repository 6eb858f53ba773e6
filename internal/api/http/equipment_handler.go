package http

import (
	"net/http"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/service"
)

// EquipmentHandler serves equipment listing management and availability.
type EquipmentHandler struct {
	equipment service.EquipmentService
	booking   service.BookingService
}

func NewEquipmentHandler(equipment service.EquipmentService, booking service.BookingService) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, booking: booking}
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req createEquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	eq, err := h.equipment.CreateEquipment(r.Context(), actor, &domain.Equipment{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		DailyPriceCents: req.DailyPriceCents,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusCreated, "equipment created", eq)
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	eq, err := h.equipment.GetEquipment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", eq)
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateEquipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	eq, err := h.equipment.UpdateEquipment(r.Context(), actor, id, service.EquipmentUpdate{
		Name:            req.Name,
		Description:     req.Description,
		Type:            req.Type,
		DailyPriceCents: req.DailyPriceCents,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "equipment updated", eq)
}

func (h *EquipmentHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	window, err := domain.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := h.booking.IsAvailable(r.Context(), id, window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, http.StatusOK, "", map[string]bool{"available": ok})
}
