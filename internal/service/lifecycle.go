package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

// lifecycle is the only writer of order status and of the equipment
// status changes that follow from it. Every method expects tx-scoped repos.
type lifecycle struct {
	avail availability
	now   func() time.Time
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(format, args...)
	}
	return err
}

func (l lifecycle) create(ctx context.Context, repos repository.Repositories, renterID string, equipmentID uuid.UUID, window domain.DateRange) (*domain.Order, error) {
	eq, err := repos.Equipment.GetForUpdate(ctx, equipmentID)
	if err != nil {
		return nil, notFound(err, "equipment %s not found", equipmentID)
	}
	switch eq.Status {
	case domain.EquipmentStatusAvailable:
	case domain.EquipmentStatusRented:
		// Held by another booking: an availability conflict rather than a
		// property of the item itself.
		return nil, domain.Conflict("equipment is not available")
	default:
		return nil, domain.InvalidState("equipment is %s", strings.ToLower(string(eq.Status)))
	}

	window = domain.NewDateRange(window.Start, window.End)
	if err := window.Validate(l.now()); err != nil {
		return nil, err
	}

	ok, err := l.avail.isAvailable(ctx, repos, eq, window, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict("equipment is not available for the selected dates")
	}

	total, err := window.TotalCents(eq.DailyPriceCents)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		EquipmentID:      eq.ID,
		RenterID:         renterID,
		StartDate:        window.Start,
		EndDate:          window.End,
		Status:           domain.OrderStatusPending,
		TotalAmountCents: total,
	}
	if err := repos.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Optimistic hold: the item is reserved while the owner decides.
	if err := repos.Equipment.UpdateStatus(ctx, eq.ID, domain.EquipmentStatusRented); err != nil {
		return nil, err
	}

	order.EquipmentName = eq.Name
	order.OwnerID = eq.OwnerID
	return order, nil
}

// lock takes the equipment row lock and then the order row lock, in that
// order, and returns both freshly read.
func (l lifecycle) lock(ctx context.Context, repos repository.Repositories, orderID uuid.UUID) (*domain.Order, *domain.Equipment, error) {
	o, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, notFound(err, "order %s not found", orderID)
	}
	eq, err := repos.Equipment.GetForUpdate(ctx, o.EquipmentID)
	if err != nil {
		return nil, nil, notFound(err, "equipment %s not found", o.EquipmentID)
	}
	o, err = repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, nil, notFound(err, "order %s not found", orderID)
	}
	return o, eq, nil
}

func authorizeTransition(actor domain.Actor, o *domain.Order, to domain.OrderStatus) error {
	if actor.IsAdmin || (o.OwnerID != "" && o.OwnerID == actor.UserID) {
		return nil
	}
	if to == domain.OrderStatusCancelled && o.RenterID == actor.UserID {
		return nil
	}
	return domain.Forbidden("you are not authorized to update this order")
}

func (l lifecycle) transition(ctx context.Context, repos repository.Repositories, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	o, eq, err := l.lock(ctx, repos, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, o, to); err != nil {
		return nil, err
	}
	if !domain.CanTransition(o.Status, to) {
		return nil, domain.InvalidTransition(o.Status, to)
	}
	if err := l.apply(ctx, repos, o, eq, to); err != nil {
		return nil, err
	}
	return o, nil
}

// cancel moves a PENDING or ACCEPTED order to CANCELLED and releases the hold.
func (l lifecycle) cancel(ctx context.Context, repos repository.Repositories, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	o, eq, err := l.lock(ctx, repos, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeTransition(actor, o, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, domain.InvalidState("only pending or accepted orders can be cancelled")
	}
	if err := l.apply(ctx, repos, o, eq, domain.OrderStatusCancelled); err != nil {
		return nil, err
	}
	return o, nil
}

// complete advances an order to COMPLETED on behalf of settlement.
func (l lifecycle) complete(ctx context.Context, repos repository.Repositories, o *domain.Order, eq *domain.Equipment) error {
	if !domain.CanTransition(o.Status, domain.OrderStatusCompleted) {
		return domain.InvalidTransition(o.Status, domain.OrderStatusCompleted)
	}
	return l.apply(ctx, repos, o, eq, domain.OrderStatusCompleted)
}

// apply writes the new order status and its equipment side effect. The
// caller has already checked that the move is allowed.
func (l lifecycle) apply(ctx context.Context, repos repository.Repositories, o *domain.Order, eq *domain.Equipment, to domain.OrderStatus) error {
	if to == domain.OrderStatusAccepted {
		free, err := l.avail.windowFree(ctx, repos, eq.ID, o.Window(), &o.ID)
		if err != nil {
			return err
		}
		if !free {
			return domain.Conflict("equipment is already booked for the selected dates")
		}
	}

	t := l.now().UTC()
	if err := repos.Orders.UpdateStatus(ctx, o.ID, to, t); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return domain.Conflict("equipment is already booked for the selected dates")
		}
		return err
	}

	var next domain.EquipmentStatus
	switch to {
	case domain.OrderStatusAccepted, domain.OrderStatusCompleted:
		// COMPLETED keeps the item RENTED. Settlement does not release it.
		if eq.Status != domain.EquipmentStatusRented {
			next = domain.EquipmentStatusRented
		}
	case domain.OrderStatusRejected, domain.OrderStatusCancelled:
		// Released only when no other accepted booking keeps the item RENTED.
		if eq.Status == domain.EquipmentStatusRented {
			held, err := l.avail.heldByAccepted(ctx, repos, eq.ID, &o.ID)
			if err != nil {
				return err
			}
			if !held {
				next = domain.EquipmentStatusAvailable
			}
		}
	}
	if next != "" {
		if err := repos.Equipment.UpdateStatus(ctx, eq.ID, next); err != nil {
			return err
		}
		eq.Status = next
	}

	o.Status = to
	o.UpdatedAt = &t
	return nil
}
