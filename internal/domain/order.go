package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// orderTransitions is the complete lattice. Anything absent is invalid.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusAccepted, OrderStatusRejected},
	OrderStatusAccepted: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransition reports whether from -> to is part of the order lattice.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible from s.
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAccepted, OrderStatusRejected, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID               uuid.UUID   `json:"id" db:"id"`
	EquipmentID      uuid.UUID   `json:"equipment_id" db:"equipment_id"`
	RenterID         string      `json:"renter_id" db:"renter_id"`
	StartDate        time.Time   `json:"start_date" db:"start_date"`
	EndDate          time.Time   `json:"end_date" db:"end_date"`
	Status           OrderStatus `json:"status" db:"status"`
	TotalAmountCents int64       `json:"total_amount_cents" db:"total_amount_cents"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        *time.Time  `json:"updated_at,omitempty" db:"updated_at"`

	// Joined from equipment on reads.
	EquipmentName string `json:"equipment_name" db:"equipment_name"`
	OwnerID       string `json:"owner_id" db:"owner_id"`
}

// Window returns the order's booked date range.
func (o *Order) Window() DateRange {
	return DateRange{Start: o.StartDate, End: o.EndDate}
}

// CanView reports whether the actor may read the order.
func (o *Order) CanView(actor Actor) bool {
	return actor.IsAdmin || o.RenterID == actor.UserID || (o.OwnerID != "" && o.OwnerID == actor.UserID)
}

// OrderSort is a whitelisted sort column for order listings.
type OrderSort string

const (
	OrderSortCreatedAt   OrderSort = "createdat"
	OrderSortStartDate   OrderSort = "startdate"
	OrderSortEndDate     OrderSort = "enddate"
	OrderSortTotalAmount OrderSort = "totalamount"
	OrderSortStatus      OrderSort = "status"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// OrderFilter narrows an order listing. Zero values mean "no filter".
type OrderFilter struct {
	// UserID scopes the listing to orders rented or owned by the user.
	// Empty means unscoped (admin).
	UserID string

	Status        OrderStatus
	StartDateFrom *time.Time
	StartDateTo   *time.Time
	EndDateFrom   *time.Time
	EndDateTo     *time.Time
	MinTotalCents *int64
	MaxTotalCents *int64
	SortBy        OrderSort
	Ascending     bool
	Page          int32
	PageSize      int32
}

// Normalize applies paging defaults and bounds.
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	switch f.SortBy {
	case OrderSortCreatedAt, OrderSortStartDate, OrderSortEndDate, OrderSortTotalAmount, OrderSortStatus:
	default:
		f.SortBy = OrderSortCreatedAt
		f.Ascending = false
	}
}
