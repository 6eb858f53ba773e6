package service

import (
	"context"
	"errors"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/metrics"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

const defaultStaleBatchSize = 100

type bookingService struct {
	store      repository.Store
	avail      availability
	life       lifecycle
	settle     settlement
	metrics    *metrics.Metrics
	now        func() time.Time
	staleBatch int32
}

// NewBookingService wires the booking core. now may be nil, in which case
// time.Now is used; m may be nil to disable metrics.
func NewBookingService(store repository.Store, gw gateway.PaymentGateway, m *metrics.Metrics, now func() time.Time) BookingService {
	if now == nil {
		now = time.Now
	}
	life := lifecycle{now: now}
	return &bookingService{
		store:      store,
		life:       life,
		settle:     settlement{life: life, gateway: gw, now: now},
		metrics:    m,
		now:        now,
		staleBatch: defaultStaleBatchSize,
	}
}

// finish is the error boundary of the core: taxonomy errors pass through,
// anything else is logged and reported as INTERNAL.
func (s *bookingService) finish(ctx context.Context, method string, err error, args ...any) error {
	if err == nil {
		logger.ExitMethod(method, args...)
		return nil
	}

	switch {
	case errors.Is(err, repository.ErrOverlap):
		err = domain.Conflict("equipment is already booked for the selected dates")
	case errors.Is(err, repository.ErrDuplicate):
		err = domain.Conflict("record already exists")
	}

	var de *domain.Error
	if errors.As(err, &de) && de.Kind != domain.KindInternal {
		logger.ExitMethodRejected(method, de, args...)
		return de
	}
	logger.ExitMethodWithError(method, err, args...)
	logger.ErrorContext(ctx, "Unexpected failure in booking core", "method", method, "error", err)
	if de != nil {
		return de
	}
	return domain.Internal(err)
}

func (s *bookingService) CreateOrder(ctx context.Context, actor domain.Actor, equipmentID uuid.UUID, window domain.DateRange) (*domain.Order, error) {
	const method = "bookingService.CreateOrder"
	logger.EnterMethod(method, "renterID", actor.UserID, "equipmentID", equipmentID)

	var order *domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		order, err = s.life.create(ctx, repos, actor.UserID, equipmentID, window)
		return err
	})
	if err := s.finish(ctx, method, err, "equipmentID", equipmentID); err != nil {
		return nil, err
	}
	s.metrics.OrderCreated()
	return order, nil
}

func (s *bookingService) GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	const method = "bookingService.GetOrder"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID)

	o, err := s.store.Repos().Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, s.finish(ctx, method, notFound(err, "order %s not found", orderID), "orderID", orderID)
	}
	if !o.CanView(actor) {
		return nil, s.finish(ctx, method, domain.Forbidden("you are not authorized to view this order"), "orderID", orderID)
	}
	logger.ExitMethod(method, "orderID", orderID)
	return o, nil
}

// ListOrders scopes non-admins to orders they rent or own.
func (s *bookingService) ListOrders(ctx context.Context, actor domain.Actor, filter domain.OrderFilter) ([]domain.Order, int32, error) {
	const method = "bookingService.ListOrders"
	logger.EnterMethod(method, "userID", actor.UserID, "isAdmin", actor.IsAdmin)

	if !actor.IsAdmin {
		filter.UserID = actor.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, s.finish(ctx, method, domain.Validation("unknown order status %q", filter.Status))
	}
	filter.Normalize()

	orders, total, err := s.store.Repos().Orders.List(ctx, filter)
	if err := s.finish(ctx, method, err, "count", len(orders)); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *bookingService) TransitionOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	const method = "bookingService.TransitionOrder"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID, "to", to)

	if !to.Valid() {
		return nil, s.finish(ctx, method, domain.Validation("unknown order status %q", to))
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if order, err = s.life.transition(ctx, repos, actor, orderID, to); err != nil {
			return err
		}
		if to == domain.OrderStatusCancelled {
			return s.settle.voidPending(ctx, repos, orderID)
		}
		return nil
	})
	if err := s.finish(ctx, method, err, "orderID", orderID); err != nil {
		return nil, err
	}
	s.metrics.OrderTransitioned(string(to))
	return order, nil
}

func (s *bookingService) CancelOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	const method = "bookingService.CancelOrder"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID)

	var order *domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if order, err = s.life.cancel(ctx, repos, actor, orderID); err != nil {
			return err
		}
		return s.settle.voidPending(ctx, repos, orderID)
	})
	if err := s.finish(ctx, method, err, "orderID", orderID); err != nil {
		return nil, err
	}
	s.metrics.OrderTransitioned(string(domain.OrderStatusCancelled))
	return order, nil
}

func (s *bookingService) IsAvailable(ctx context.Context, equipmentID uuid.UUID, window domain.DateRange) (bool, error) {
	const method = "bookingService.IsAvailable"
	logger.EnterMethod(method, "equipmentID", equipmentID)

	window = domain.NewDateRange(window.Start, window.End)
	if !window.End.After(window.Start) {
		return false, s.finish(ctx, method, domain.Validation("end date must be after start date"))
	}

	repos := s.store.Repos()
	eq, err := repos.Equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return false, s.finish(ctx, method, notFound(err, "equipment %s not found", equipmentID))
	}
	ok, err := s.avail.isAvailable(ctx, repos, eq, window, nil)
	if err := s.finish(ctx, method, err, "available", ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	const method = "bookingService.CreatePaymentIntent"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID)

	var intent *domain.PaymentIntent
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		intent, err = s.settle.createIntent(ctx, repos, actor, orderID)
		return err
	})
	if err := s.finish(ctx, method, err, "orderID", orderID); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *bookingService) GetPaymentStatus(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	const method = "bookingService.GetPaymentStatus"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID)

	p, err := s.settle.status(ctx, s.store.Repos(), actor, orderID)
	if err := s.finish(ctx, method, err, "orderID", orderID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *bookingService) CompletePayment(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	const method = "bookingService.CompletePayment"
	logger.EnterMethod(method, "userID", actor.UserID, "orderID", orderID)

	var p *domain.PaymentRecord
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		p, err = s.settle.complete(ctx, repos, actor, orderID)
		return err
	})
	if err := s.finish(ctx, method, err, "orderID", orderID); err != nil {
		return nil, err
	}
	s.metrics.PaymentSettled("complete")
	s.metrics.OrderTransitioned(string(domain.OrderStatusCompleted))
	return p, nil
}

func (s *bookingService) MarkPaymentSucceeded(ctx context.Context, paymentID uuid.UUID, amountCents *int64) (*domain.PaymentRecord, error) {
	const method = "bookingService.MarkPaymentSucceeded"
	logger.EnterMethod(method, "paymentID", paymentID)

	var (
		p       *domain.PaymentRecord
		settled bool
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		p, settled, err = s.settle.markSucceeded(ctx, repos, paymentID, amountCents)
		return err
	})
	if err := s.finish(ctx, method, err, "paymentID", paymentID, "settled", settled); err != nil {
		return nil, err
	}
	if settled {
		s.metrics.PaymentSettled("callback")
		s.metrics.OrderTransitioned(string(domain.OrderStatusCompleted))
	}
	return p, nil
}

func (s *bookingService) ExpireStalePendingOrders(ctx context.Context) (int, error) {
	const method = "bookingService.ExpireStalePendingOrders"
	today := domain.TruncateDate(s.now())
	logger.EnterMethod(method, "before", today.Format(domain.DateLayout))

	stale, err := s.store.Repos().Orders.ListStalePending(ctx, today, s.staleBatch)
	if err != nil {
		return 0, s.finish(ctx, method, err)
	}

	var (
		expired int
		errs    []error
	)
	for _, o := range stale {
		err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := s.life.transition(ctx, repos, domain.SystemActor, o.ID, domain.OrderStatusRejected)
			return err
		})
		switch {
		case err == nil:
			expired++
			logger.Info("Rejected stale pending order", "orderID", o.ID, "startDate", o.StartDate.Format(domain.DateLayout))
		case domain.IsKind(err, domain.KindInvalidTransition), domain.IsKind(err, domain.KindNotFound):
			// Decided by the owner since it was listed.
		default:
			errs = append(errs, err)
		}
	}

	s.metrics.StaleOrdersExpired(expired)
	s.metrics.OrderTransitionedN(string(domain.OrderStatusRejected), expired)
	if err := s.finish(ctx, method, errors.Join(errs...), "expired", expired); err != nil {
		return expired, err
	}
	return expired, nil
}
