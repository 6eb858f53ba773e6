package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const orderSelect = `SELECT o.id, o.equipment_id, o.renter_id, o.start_date, o.end_date, o.status, o.total_amount_cents,
	o.created_at, o.updated_at, e.name AS equipment_name, e.owner_id
	FROM orders o JOIN equipment e ON e.id = o.equipment_id`

var orderSortColumns = map[domain.OrderSort]string{
	domain.OrderSortCreatedAt:   "o.created_at",
	domain.OrderSortStartDate:   "o.start_date",
	domain.OrderSortEndDate:     "o.end_date",
	domain.OrderSortTotalAmount: "o.total_amount_cents",
	domain.OrderSortStatus:      "o.status",
}

type orderRepository struct {
	q sqlx.ExtContext
}

func NewOrderRepository(q sqlx.ExtContext) repository.OrderRepository {
	return &orderRepository{q: q}
}

// Create inserts the order. When it goes in as ACCEPTED and overlaps another
// accepted order the exclusion constraint yields repository.ErrOverlap.
func (r *orderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now().UTC()
	query := `INSERT INTO orders (id, equipment_id, renter_id, start_date, end_date, status, total_amount_cents, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query, o.ID, o.EquipmentID, o.RenterID, o.StartDate, o.EndDate, o.Status, o.TotalAmountCents, o.CreatedAt)
	return mapError(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, orderSelect+` WHERE o.id = $1`, id)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id)
}

func (r *orderRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Order, error) {
	o := &domain.Order{}
	if err := sqlx.GetContext(ctx, r.q, o, query, id); err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`
	return execOne(ctx, r.q, "orders.UpdateStatus", query, status, updatedAt.UTC(), id)
}

func (r *orderRepository) HasOverlappingAccepted(ctx context.Context, equipmentID uuid.UUID, window domain.DateRange, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM orders
	            WHERE equipment_id = $1 AND status = 'ACCEPTED'
	              AND start_date < $3 AND $2 < end_date
	              AND ($4::uuid IS NULL OR id <> $4::uuid))`
	var exists bool
	err := sqlx.GetContext(ctx, r.q, &exists, query, equipmentID, window.Start, window.End, excludeID)
	if err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *orderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int32, error) {
	f.Normalize()

	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("(o.renter_id = $%d OR e.owner_id = $%d)", len(args), len(args)))
	}
	if f.Status != "" {
		add("o.status = $%d", f.Status)
	}
	if f.StartDateFrom != nil {
		add("o.start_date >= $%d", *f.StartDateFrom)
	}
	if f.StartDateTo != nil {
		add("o.start_date <= $%d", *f.StartDateTo)
	}
	if f.EndDateFrom != nil {
		add("o.end_date >= $%d", *f.EndDateFrom)
	}
	if f.EndDateTo != nil {
		add("o.end_date <= $%d", *f.EndDateTo)
	}
	if f.MinTotalCents != nil {
		add("o.total_amount_cents >= $%d", *f.MinTotalCents)
	}
	if f.MaxTotalCents != nil {
		add("o.total_amount_cents <= $%d", *f.MaxTotalCents)
	}

	query := orderSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := sqlx.GetContext(ctx, r.q, &count, countQuery, args...); err != nil {
		return nil, 0, mapError(err)
	}

	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	offset := (f.Page - 1) * f.PageSize
	query += fmt.Sprintf(" ORDER BY %s %s, o.id LIMIT $%d OFFSET $%d", orderSortColumns[f.SortBy], dir, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, offset)

	orders := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.q, &orders, query, args...); err != nil {
		return nil, 0, mapError(err)
	}
	return orders, count, nil
}

func (r *orderRepository) ListStalePending(ctx context.Context, before time.Time, limit int32) ([]domain.Order, error) {
	query := orderSelect + ` WHERE o.status = 'PENDING' AND o.start_date < $1 ORDER BY o.start_date, o.id LIMIT $2`
	orders := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.q, &orders, query, before, limit); err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}
