package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

// settlement is the only writer of payment status and paidAt. It moves the
// order to COMPLETED through lifecycle, never directly.
type settlement struct {
	life    lifecycle
	gateway gateway.PaymentGateway
	now     func() time.Time
}

func requireRenter(actor domain.Actor, o *domain.Order) error {
	if o.RenterID != actor.UserID {
		return domain.Forbidden("you are not authorized to pay for this order")
	}
	return nil
}

func paymentSubject(o *domain.Order) string {
	if o.EquipmentName != "" {
		return fmt.Sprintf("FarmGear rental: %s", o.EquipmentName)
	}
	return fmt.Sprintf("FarmGear order %s", o.ID)
}

func (s settlement) createIntent(ctx context.Context, repos repository.Repositories, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	o, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %s not found", orderID)
	}
	if err := requireRenter(actor, o); err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusAccepted {
		return nil, domain.InvalidState("order is not in accepted status")
	}

	if _, err := repos.Payments.GetByOrderID(ctx, orderID); err == nil {
		return nil, domain.Conflict("payment already exists for this order")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	p := &domain.PaymentRecord{
		OrderID:     o.ID,
		UserID:      o.RenterID,
		AmountCents: o.TotalAmountCents,
		Status:      domain.PaymentStatusPending,
	}
	if err := repos.Payments.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflict("payment already exists for this order")
		}
		return nil, err
	}

	redirect, err := s.gateway.GenerateRedirectURL(ctx, p.ID.String(), p.AmountCents, paymentSubject(o))
	if err != nil {
		return nil, fmt.Errorf("failed to generate payment url: %w", err)
	}
	return &domain.PaymentIntent{Payment: p, RedirectURL: redirect}, nil
}

func (s settlement) status(ctx context.Context, repos repository.Repositories, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	o, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order %s not found", orderID)
	}
	if err := requireRenter(actor, o); err != nil {
		return nil, err
	}
	p, err := repos.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "no payment record for order %s", orderID)
	}
	return p, nil
}

func (s settlement) complete(ctx context.Context, repos repository.Repositories, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	o, eq, err := s.life.lock(ctx, repos, orderID)
	if err != nil {
		return nil, err
	}
	if err := requireRenter(actor, o); err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusAccepted {
		return nil, domain.InvalidState("order is not in accepted status")
	}

	p, err := repos.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "no payment record for order %s", orderID)
	}
	paymentID := p.ID
	if p, err = repos.Payments.GetForUpdate(ctx, paymentID); err != nil {
		return nil, notFound(err, "payment %s not found", paymentID)
	}
	if p.Status != domain.PaymentStatusPending {
		return nil, domain.InvalidState("payment is not in pending status")
	}

	if err := s.settle(ctx, repos, o, eq, p); err != nil {
		return nil, err
	}
	return p, nil
}

// markSucceeded settles on the gateway's word. A payment that is already
// PAID is returned untouched.
func (s settlement) markSucceeded(ctx context.Context, repos repository.Repositories, paymentID uuid.UUID, amountCents *int64) (*domain.PaymentRecord, bool, error) {
	p, err := repos.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, false, notFound(err, "payment %s not found", paymentID)
	}
	if p.Status == domain.PaymentStatusPaid {
		return p, false, nil
	}

	o, eq, err := s.life.lock(ctx, repos, p.OrderID)
	if err != nil {
		return nil, false, err
	}
	if p, err = repos.Payments.GetForUpdate(ctx, paymentID); err != nil {
		return nil, false, notFound(err, "payment %s not found", paymentID)
	}

	switch p.Status {
	case domain.PaymentStatusPaid:
		// Lost a race with a redelivered notification.
		return p, false, nil
	case domain.PaymentStatusFailed:
		return nil, false, domain.InvalidState("payment %s has been voided", paymentID)
	}
	if amountCents != nil && *amountCents != p.AmountCents {
		return nil, false, domain.Validation("paid amount %s does not match expected %s",
			domain.FormatAmount(*amountCents), domain.FormatAmount(p.AmountCents))
	}
	if o.Status == domain.OrderStatusCompleted {
		// The owner completed the order before the gateway reported. Record
		// the money so redeliveries are acknowledged; the order stays as is.
		paidAt := s.now().UTC()
		if err := repos.Payments.UpdateStatus(ctx, p.ID, domain.PaymentStatusPaid, &paidAt); err != nil {
			return nil, false, err
		}
		logger.WarnContext(ctx, "Payment settled for an order completed out of band", "paymentID", p.ID, "orderID", o.ID)
		p.Status = domain.PaymentStatusPaid
		p.PaidAt = &paidAt
		return p, false, nil
	}
	if o.Status != domain.OrderStatusAccepted {
		return nil, false, domain.InvalidState("order is not in accepted status")
	}

	if err := s.settle(ctx, repos, o, eq, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (s settlement) settle(ctx context.Context, repos repository.Repositories, o *domain.Order, eq *domain.Equipment, p *domain.PaymentRecord) error {
	paidAt := s.now().UTC()
	if err := repos.Payments.UpdateStatus(ctx, p.ID, domain.PaymentStatusPaid, &paidAt); err != nil {
		return err
	}
	if err := s.life.complete(ctx, repos, o, eq); err != nil {
		return err
	}
	p.Status = domain.PaymentStatusPaid
	p.PaidAt = &paidAt
	return nil
}

// voidPending fails the order's PENDING payment, if it has one.
func (s settlement) voidPending(ctx context.Context, repos repository.Repositories, orderID uuid.UUID) error {
	p, err := repos.Payments.GetByOrderID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p, err = repos.Payments.GetForUpdate(ctx, p.ID); err != nil {
		return err
	}
	if p.Status != domain.PaymentStatusPending {
		return nil
	}
	return repos.Payments.UpdateStatus(ctx, p.ID, domain.PaymentStatusFailed, nil)
}
