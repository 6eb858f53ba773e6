package service

import (
	"context"

	"farmgear-backend/internal/domain"

	"github.com/google/uuid"
)

// BookingService is the booking-and-settlement core. Every mutating call
// runs in one transaction and returns a *domain.Error on failure.
type BookingService interface {
	CreateOrder(ctx context.Context, actor domain.Actor, equipmentID uuid.UUID, window domain.DateRange) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, int32, error)
	TransitionOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	IsAvailable(ctx context.Context, equipmentID uuid.UUID, window domain.DateRange) (bool, error)

	CreatePaymentIntent(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentIntent, error)
	GetPaymentStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error)
	CompletePayment(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error)
	// MarkPaymentSucceeded settles a payment on the gateway's word. It is
	// idempotent. amountCents, when non-nil, must match the recorded amount.
	MarkPaymentSucceeded(ctx context.Context, paymentID uuid.UUID, amountCents *int64) (*domain.PaymentRecord, error)

	// ExpireStalePendingOrders rejects PENDING orders whose start date has
	// passed and returns how many were rejected.
	ExpireStalePendingOrders(ctx context.Context) (int, error)
}

// EquipmentUpdate carries the owner-editable equipment fields. Nil means unchanged.
type EquipmentUpdate struct {
	Name            *string
	Description     *string
	Type            *string
	DailyPriceCents *int64
}

type EquipmentService interface {
	CreateEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) (*domain.Equipment, error)
	GetEquipment(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
	UpdateEquipment(ctx context.Context, actor domain.Actor, id uuid.UUID, update EquipmentUpdate) (*domain.Equipment, error)
}
