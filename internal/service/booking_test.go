package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/gateway"
	"farmgear-backend/internal/metrics"
	"farmgear-backend/internal/repository/memory"
	"farmgear-backend/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	owner    = domain.Actor{UserID: "owner-1"}
	renter   = domain.Actor{UserID: "renter-1"}
	stranger = domain.Actor{UserID: "stranger"}
	admin    = domain.Actor{UserID: "admin-1", IsAdmin: true}
)

type fixture struct {
	store   *memory.Store
	booking service.BookingService
	clock   *fakeClock
	eq      *domain.Equipment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &fakeClock{t: time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)}
	eq := &domain.Equipment{OwnerID: owner.UserID, Name: "Tractor", DailyPriceCents: 5000}
	require.NoError(t, store.Repos().Equipment.Create(context.Background(), eq))
	return &fixture{
		store:   store,
		booking: service.NewBookingService(store, gateway.NewMockGateway(""), metrics.New(), clock.Now),
		clock:   clock,
		eq:      eq,
	}
}

func window(start, end string) domain.DateRange {
	r, err := domain.ParseDateRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (f *fixture) equipmentStatus(t *testing.T) domain.EquipmentStatus {
	t.Helper()
	eq, err := f.store.Repos().Equipment.GetByID(context.Background(), f.eq.ID)
	require.NoError(t, err)
	return eq.Status
}

func (f *fixture) orderStatus(t *testing.T, id uuid.UUID) domain.OrderStatus {
	t.Helper()
	o, err := f.store.Repos().Orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}

// A: create order → PENDING, equipment RENTED, total = 2 × daily.
func (f *fixture) scenarioA(t *testing.T) *domain.Order {
	t.Helper()
	o, err := f.booking.CreateOrder(context.Background(), renter, f.eq.ID, window("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	return o
}

func TestScenarioA_CreateOrder(t *testing.T) {
	f := newFixture(t)
	o := f.scenarioA(t)

	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, int64(2*5000), o.TotalAmountCents)
	assert.Equal(t, owner.UserID, o.OwnerID)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))
}

func TestScenarioB_AcceptThenOverlapConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)

	accepted, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAccepted, accepted.Status)
	assert.NotNil(t, accepted.UpdatedAt)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))

	_, err = f.booking.CreateOrder(ctx, stranger, f.eq.ID, window("2025-01-11", "2025-01-13"))
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestTransition_UpdatedAtMatchesStoredValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)

	f.clock.t = time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)
	accepted, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	require.NotNil(t, accepted.UpdatedAt)
	assert.True(t, f.clock.t.Equal(*accepted.UpdatedAt))

	stored, err := f.store.Repos().Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UpdatedAt)
	assert.True(t, accepted.UpdatedAt.Equal(*stored.UpdatedAt))
}

func TestAcceptRejectsOverlapWithAcceptedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	// A competing pending request that slipped in next to the hold.
	competing := &domain.Order{
		EquipmentID: f.eq.ID,
		RenterID:    stranger.UserID,
		StartDate:   o.EndDate.AddDate(0, 0, -1),
		EndDate:     o.EndDate.AddDate(0, 0, 2),
		Status:      domain.OrderStatusPending,
	}
	require.NoError(t, f.store.Repos().Orders.Create(ctx, competing))

	_, err = f.booking.TransitionOrder(ctx, owner, competing.ID, domain.OrderStatusAccepted)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	assert.Equal(t, domain.OrderStatusPending, f.orderStatus(t, competing.ID))
}

func TestRejectKeepsHoldOfOtherAcceptedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	later := &domain.Order{
		EquipmentID: f.eq.ID,
		RenterID:    stranger.UserID,
		StartDate:   o.EndDate,
		EndDate:     o.EndDate.AddDate(0, 0, 3),
		Status:      domain.OrderStatusPending,
	}
	require.NoError(t, f.store.Repos().Orders.Create(ctx, later))

	_, err = f.booking.TransitionOrder(ctx, owner, later.ID, domain.OrderStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t), "accepted order still holds the item")

	_, err = f.booking.CancelOrder(ctx, renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))
}

func TestScenarioC_PayAndComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	intent, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, intent.Payment.Status)
	assert.Equal(t, o.TotalAmountCents, intent.Payment.AmountCents)
	assert.Contains(t, intent.RedirectURL, intent.Payment.ID.String())

	p, err := f.booking.CompletePayment(ctx, renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, p.Status)
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, f.clock.t, *p.PaidAt)
	assert.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t, o.ID))

	status, err := f.booking.GetPaymentStatus(ctx, renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, status.Status)
}

// Completing an order leaves the equipment RENTED. This pins the current
// behaviour; change it only together with a product decision.
func TestCompletedOrderKeepsEquipmentRented(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	t.Run("via CompletePayment", func(t *testing.T) {
		_, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
		require.NoError(t, err)
		_, err = f.booking.CompletePayment(ctx, renter, o.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))
	})

	t.Run("via gateway callback", func(t *testing.T) {
		g := newFixture(t)
		o := g.scenarioA(t)
		_, err := g.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
		require.NoError(t, err)
		intent, err := g.booking.CreatePaymentIntent(ctx, renter, o.ID)
		require.NoError(t, err)
		_, err = g.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, domain.EquipmentStatusRented, g.equipmentStatus(t))
		assert.Equal(t, domain.OrderStatusCompleted, g.orderStatus(t, o.ID))
	})
}

func TestScenarioD_RejectReleases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.scenarioA(t)

	rejected, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, rejected.Status)
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))

	again, err := f.booking.CreateOrder(ctx, stranger, f.eq.ID, window("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, again.Status)
}

func TestScenarioE_CancelAcceptedThenPayFails(t *testing.T) {
	for _, withIntent := range []bool{false, true} {
		name := "without intent"
		if withIntent {
			name = "with pending intent"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			o := f.scenarioA(t)
			_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
			require.NoError(t, err)

			var paymentID uuid.UUID
			if withIntent {
				intent, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
				require.NoError(t, err)
				paymentID = intent.Payment.ID
			}

			cancelled, err := f.booking.CancelOrder(ctx, renter, o.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
			assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))

			_, err = f.booking.CompletePayment(ctx, renter, o.ID)
			assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))

			if withIntent {
				p, err := f.store.Repos().Payments.GetByID(ctx, paymentID)
				require.NoError(t, err)
				assert.Equal(t, domain.PaymentStatusFailed, p.Status)

				_, err = f.booking.MarkPaymentSucceeded(ctx, paymentID, nil)
				assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
			}
		})
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("missing equipment", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.booking.CreateOrder(ctx, renter, uuid.New(), window("2025-01-10", "2025-01-12"))
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("equipment in maintenance", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Repos().Equipment.UpdateStatus(ctx, f.eq.ID, domain.EquipmentStatusMaintenance))
		_, err := f.booking.CreateOrder(ctx, renter, f.eq.ID, window("2025-01-10", "2025-01-12"))
		assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
	})

	t.Run("start in the past", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.booking.CreateOrder(ctx, renter, f.eq.ID, window("2025-01-04", "2025-01-06"))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))
	})

	t.Run("end not after start", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.booking.CreateOrder(ctx, renter, f.eq.ID, window("2025-01-10", "2025-01-10"))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("starting today is allowed", func(t *testing.T) {
		f := newFixture(t)
		o, err := f.booking.CreateOrder(ctx, renter, f.eq.ID, window("2025-01-05", "2025-01-06"))
		require.NoError(t, err)
		assert.Equal(t, int64(5000), o.TotalAmountCents)
	})

	t.Run("total overflows", func(t *testing.T) {
		f := newFixture(t)
		pricey := &domain.Equipment{OwnerID: owner.UserID, Name: "Combine", DailyPriceCents: 1 << 60}
		require.NoError(t, f.store.Repos().Equipment.Create(ctx, pricey))

		_, err := f.booking.CreateOrder(ctx, renter, pricey.ID, window("2025-01-10", "2026-01-10"))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))

		eq, err := f.store.Repos().Equipment.GetByID(ctx, pricey.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.EquipmentStatusAvailable, eq.Status)
		_, total, err := f.booking.ListOrders(ctx, admin, domain.OrderFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestCreateOrder_LongWindowTotalIsExact(t *testing.T) {
	f := newFixture(t)
	o, err := f.booking.CreateOrder(context.Background(), renter, f.eq.ID, window("2025-01-10", "2400-01-10"))
	require.NoError(t, err)
	assert.Equal(t, int64(136965), o.Window().Days())
	assert.Equal(t, int64(136965*5000), o.TotalAmountCents)
}

func TestTransition_Authorization(t *testing.T) {
	ctx := context.Background()

	t.Run("renter cannot accept", func(t *testing.T) {
		f := newFixture(t)
		o := f.scenarioA(t)
		_, err := f.booking.TransitionOrder(ctx, renter, o.ID, domain.OrderStatusAccepted)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
		assert.Equal(t, domain.OrderStatusPending, f.orderStatus(t, o.ID))
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		f := newFixture(t)
		o := f.scenarioA(t)
		_, err := f.booking.CancelOrder(ctx, stranger, o.ID)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("admin can accept", func(t *testing.T) {
		f := newFixture(t)
		o := f.scenarioA(t)
		_, err := f.booking.TransitionOrder(ctx, admin, o.ID, domain.OrderStatusAccepted)
		assert.NoError(t, err)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.booking.TransitionOrder(ctx, owner, uuid.New(), domain.OrderStatusAccepted)
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		o := f.scenarioA(t)
		_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatus("SHIPPED"))
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestTransition_InvalidNeverMutates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)

	for _, to := range []domain.OrderStatus{domain.OrderStatusCompleted, domain.OrderStatusCancelled, domain.OrderStatusPending} {
		_, err := f.booking.TransitionOrder(ctx, owner, o.ID, to)
		assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err), "PENDING -> %s", to)
		assert.Equal(t, domain.OrderStatusPending, f.orderStatus(t, o.ID))
		assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))
	}

	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	_, err = f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	for _, to := range []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusAccepted, domain.OrderStatusRejected, domain.OrderStatusCancelled, domain.OrderStatusCompleted} {
		_, err := f.booking.TransitionOrder(ctx, owner, o.ID, to)
		assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err), "COMPLETED -> %s", to)
		assert.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t, o.ID))
	}

	_, err = f.booking.CancelOrder(ctx, owner, o.ID)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err))
}

func TestCancelPendingReleasesHold(t *testing.T) {
	f := newFixture(t)
	o := f.scenarioA(t)

	cancelled, err := f.booking.CancelOrder(context.Background(), renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))
}

func TestPaymentIntent_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)

	_, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	assert.Equal(t, domain.KindInvalidState, domain.KindOf(err), "pending order")

	_, err = f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	_, err = f.booking.CreatePaymentIntent(ctx, owner, o.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = f.booking.CreatePaymentIntent(ctx, renter, uuid.New())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.booking.GetPaymentStatus(ctx, renter, o.ID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.booking.CompletePayment(ctx, renter, o.ID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "no record yet")

	_, err = f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)
	_, err = f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestPaymentIntent_GatewayFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := &fakeClock{t: time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)}
	eq := &domain.Equipment{OwnerID: owner.UserID, Name: "Seeder", DailyPriceCents: 1500}
	require.NoError(t, store.Repos().Equipment.Create(ctx, eq))

	gw := new(MockPaymentGateway)
	gw.On("GenerateRedirectURL", mock.Anything, mock.Anything, int64(3000), "FarmGear rental: Seeder").
		Return("", errors.New("gateway down")).Once()
	gw.On("GenerateRedirectURL", mock.Anything, mock.Anything, int64(3000), "FarmGear rental: Seeder").
		Return("https://pay.example/checkout", nil).Once()

	booking := service.NewBookingService(store, gw, nil, clock.Now)
	o, err := booking.CreateOrder(ctx, renter, eq.ID, window("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	_, err = booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)

	_, err = booking.CreatePaymentIntent(ctx, renter, o.ID)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	// Nothing survived, so a retry can create the record.
	intent, err := booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/checkout", intent.RedirectURL)
	gw.AssertExpectations(t)
}

func TestCompletePayment_OrderFailureRollsBackPayment(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStore()
	orders := &MockOrderUpdates{}
	store := &interceptStore{Store: base, orders: orders}
	clock := &fakeClock{t: time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)}
	eq := &domain.Equipment{OwnerID: owner.UserID, Name: "Harrow", DailyPriceCents: 2000}
	require.NoError(t, base.Repos().Equipment.Create(ctx, eq))

	booking := service.NewBookingService(store, gateway.NewMockGateway(""), nil, clock.Now)

	orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.OrderStatusAccepted).Return(nil).Once()
	orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.OrderStatusCompleted).Return(errors.New("connection reset")).Once()

	o, err := booking.CreateOrder(ctx, renter, eq.ID, window("2025-01-10", "2025-01-11"))
	require.NoError(t, err)
	_, err = booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	intent, err := booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)

	_, err = booking.CompletePayment(ctx, renter, o.ID)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	p, err := base.Repos().Payments.GetByID(ctx, intent.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Nil(t, p.PaidAt)
	got, err := base.Repos().Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAccepted, got.Status)
	orders.AssertExpectations(t)
}

func TestMarkPaymentSucceeded_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	intent, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)

	amount := o.TotalAmountCents
	first, err := f.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, &amount)
	require.NoError(t, err)

	f.clock.t = f.clock.t.Add(time.Hour)
	second, err := f.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, &amount)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	require.NotNil(t, second.PaidAt)
	assert.Equal(t, *first.PaidAt, *second.PaidAt)
	assert.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t, o.ID))
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))
}

func TestMarkPaymentSucceeded_OrderCompletedByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	intent, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)
	_, err = f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)

	amount := o.TotalAmountCents
	p, err := f.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, &amount)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, p.Status)
	require.NotNil(t, p.PaidAt)

	again, err := f.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, &amount)
	require.NoError(t, err)
	assert.Equal(t, *p.PaidAt, *again.PaidAt)
	assert.Equal(t, domain.OrderStatusCompleted, f.orderStatus(t, o.ID))
	assert.Equal(t, domain.EquipmentStatusRented, f.equipmentStatus(t))
}

func TestMarkPaymentSucceeded_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)
	_, err := f.booking.TransitionOrder(ctx, owner, o.ID, domain.OrderStatusAccepted)
	require.NoError(t, err)
	intent, err := f.booking.CreatePaymentIntent(ctx, renter, o.ID)
	require.NoError(t, err)

	_, err = f.booking.MarkPaymentSucceeded(ctx, uuid.New(), nil)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	wrong := o.TotalAmountCents - 1
	_, err = f.booking.MarkPaymentSucceeded(ctx, intent.Payment.ID, &wrong)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	p, err := f.store.Repos().Payments.GetByID(ctx, intent.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, domain.OrderStatusAccepted, f.orderStatus(t, o.ID))
}

func TestGetAndListOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)

	_, err := f.booking.GetOrder(ctx, stranger, o.ID)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	for _, a := range []domain.Actor{renter, owner, admin} {
		got, err := f.booking.GetOrder(ctx, a, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
	}

	_, err = f.booking.GetOrder(ctx, renter, uuid.New())
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	orders, total, err := f.booking.ListOrders(ctx, stranger, domain.OrderFilter{UserID: renter.UserID})
	require.NoError(t, err)
	assert.Equal(t, int32(0), total, "non-admins cannot widen their scope")
	assert.Empty(t, orders)

	orders, total, err = f.booking.ListOrders(ctx, owner, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	require.Len(t, orders, 1)

	_, total, err = f.booking.ListOrders(ctx, admin, domain.OrderFilter{Status: domain.OrderStatusAccepted})
	require.NoError(t, err)
	assert.Equal(t, int32(0), total)

	_, _, err = f.booking.ListOrders(ctx, admin, domain.OrderFilter{Status: "BOGUS"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestIsAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ok, err := f.booking.IsAvailable(ctx, f.eq.ID, window("2025-01-10", "2025-01-12"))
	require.NoError(t, err)
	assert.True(t, ok)

	f.scenarioA(t)
	ok, err = f.booking.IsAvailable(ctx, f.eq.ID, window("2025-02-10", "2025-02-12"))
	require.NoError(t, err)
	assert.False(t, ok, "held equipment is not available")

	_, err = f.booking.IsAvailable(ctx, uuid.New(), window("2025-01-10", "2025-01-12"))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = f.booking.IsAvailable(ctx, f.eq.ID, window("2025-01-12", "2025-01-10"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestExpireStalePendingOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o := f.scenarioA(t)

	n, err := f.booking.ExpireStalePendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock.t = time.Date(2025, 1, 11, 0, 30, 0, 0, time.UTC)
	n, err = f.booking.ExpireStalePendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.OrderStatusRejected, f.orderStatus(t, o.ID))
	assert.Equal(t, domain.EquipmentStatusAvailable, f.equipmentStatus(t))

	n, err = f.booking.ExpireStalePendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
