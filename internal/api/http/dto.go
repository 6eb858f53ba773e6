package http

import (
	"time"

	"farmgear-backend/internal/domain"
)

type orderView struct {
	ID               string     `json:"id"`
	EquipmentID      string     `json:"equipment_id"`
	EquipmentName    string     `json:"equipment_name"`
	RenterID         string     `json:"renter_id"`
	OwnerID          string     `json:"owner_id"`
	StartDate        string     `json:"start_date"`
	EndDate          string     `json:"end_date"`
	Status           string     `json:"status"`
	TotalAmount      string     `json:"total_amount"`
	TotalAmountCents int64      `json:"total_amount_cents"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

func toOrderView(o *domain.Order) orderView {
	return orderView{
		ID:               o.ID.String(),
		EquipmentID:      o.EquipmentID.String(),
		EquipmentName:    o.EquipmentName,
		RenterID:         o.RenterID,
		OwnerID:          o.OwnerID,
		StartDate:        o.StartDate.Format(domain.DateLayout),
		EndDate:          o.EndDate.Format(domain.DateLayout),
		Status:           string(o.Status),
		TotalAmount:      domain.FormatAmount(o.TotalAmountCents),
		TotalAmountCents: o.TotalAmountCents,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

type orderPage struct {
	Items           []orderView `json:"items"`
	PageNumber      int32       `json:"page_number"`
	PageSize        int32       `json:"page_size"`
	TotalPages      int32       `json:"total_pages"`
	TotalCount      int32       `json:"total_count"`
	HasPreviousPage bool        `json:"has_previous_page"`
	HasNextPage     bool        `json:"has_next_page"`
}

func toOrderPage(orders []domain.Order, total int32, f domain.OrderFilter) orderPage {
	items := make([]orderView, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderView(&orders[i]))
	}
	pages := (total + f.PageSize - 1) / f.PageSize
	return orderPage{
		Items:           items,
		PageNumber:      f.Page,
		PageSize:        f.PageSize,
		TotalPages:      pages,
		TotalCount:      total,
		HasPreviousPage: f.Page > 1,
		HasNextPage:     f.Page < pages,
	}
}

type paymentView struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	UserID      string     `json:"user_id"`
	Amount      string     `json:"amount"`
	AmountCents int64      `json:"amount_cents"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toPaymentView(p *domain.PaymentRecord) paymentView {
	return paymentView{
		ID:          p.ID.String(),
		OrderID:     p.OrderID.String(),
		UserID:      p.UserID,
		Amount:      domain.FormatAmount(p.AmountCents),
		AmountCents: p.AmountCents,
		Status:      string(p.Status),
		PaidAt:      p.PaidAt,
		CreatedAt:   p.CreatedAt,
	}
}

type paymentIntentView struct {
	Payment    paymentView `json:"payment"`
	PaymentURL string      `json:"payment_url"`
}

type createOrderRequest struct {
	EquipmentID string `json:"equipment_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type paymentIntentRequest struct {
	OrderID string `json:"order_id"`
}

type createEquipmentRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Type            string `json:"type"`
	DailyPriceCents int64  `json:"daily_price_cents"`
}

type updateEquipmentRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	Type            *string `json:"type"`
	DailyPriceCents *int64  `json:"daily_price_cents"`
}
