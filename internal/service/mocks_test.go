package service_test

import (
	"context"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) GenerateRedirectURL(ctx context.Context, paymentID string, amountCents int64, subject string) (string, error) {
	args := m.Called(ctx, paymentID, amountCents, subject)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentGateway) VerifySignature(form map[string]string) bool {
	args := m.Called(form)
	return args.Bool(0)
}

// MockOrderUpdates intercepts order status writes and delegates everything
// else to the wrapped repository.
type MockOrderUpdates struct {
	repository.OrderRepository
	mock.Mock
}

func (m *MockOrderUpdates) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	args := m.Called(ctx, id, status)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.OrderRepository.UpdateStatus(ctx, id, status, updatedAt)
}

// interceptStore swaps the order repository inside every transaction.
type interceptStore struct {
	repository.Store
	orders *MockOrderUpdates
}

func (s *interceptStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		s.orders.OrderRepository = repos.Orders
		repos.Orders = s.orders
		return fn(ctx, repos)
	})
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}
