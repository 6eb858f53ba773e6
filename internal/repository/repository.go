package repository

import (
	"context"
	"errors"
	"time"

	"farmgear-backend/internal/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write,
	// e.g. a second payment record for the same order.
	ErrDuplicate = errors.New("duplicate record")
	// ErrOverlap is returned when an accepted order would overlap another
	// accepted order on the same equipment.
	ErrOverlap = errors.New("overlapping accepted order")
)

type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
	// GetForUpdate reads the row and holds a write lock on it until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Equipment, error)
	Update(ctx context.Context, eq *domain.Equipment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// UpdateStatus writes status and stamps updated_at with updatedAt.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error
	// HasOverlappingAccepted reports whether an ACCEPTED order on the
	// equipment intersects window. excludeID, when non-nil, is ignored.
	HasOverlappingAccepted(ctx context.Context, equipmentID uuid.UUID, window domain.DateRange, excludeID *uuid.UUID) (bool, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int32, error)
	// ListStalePending returns PENDING orders whose start date is before the given day.
	ListStalePending(ctx context.Context, before time.Time, limit int32) ([]domain.Order, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.PaymentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, paidAt *time.Time) error
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories struct {
	Equipment EquipmentRepository
	Orders    OrderRepository
	Payments  PaymentRepository
}

// Transactor runs fn inside a single transaction. If fn returns an error
// (or panics) every write made through repos is rolled back.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is what the service layer depends on: non-transactional reads
// plus the ability to open a unit of work.
type Store interface {
	Transactor
	Repos() Repositories
	Ping(ctx context.Context) error
}
