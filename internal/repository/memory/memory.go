// Package memory is an in-process repository.Store. Transactions are
// serialised behind one mutex and applied to a copy of the data, so a
// failed unit of work leaves nothing behind. It enforces the same
// uniqueness and overlap rules as the Postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	equipment      map[uuid.UUID]domain.Equipment
	orders         map[uuid.UUID]domain.Order
	payments       map[uuid.UUID]domain.PaymentRecord
	paymentByOrder map[uuid.UUID]uuid.UUID
}

func newState() *state {
	return &state{
		equipment:      map[uuid.UUID]domain.Equipment{},
		orders:         map[uuid.UUID]domain.Order{},
		payments:       map[uuid.UUID]domain.PaymentRecord{},
		paymentByOrder: map[uuid.UUID]uuid.UUID{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.paymentByOrder {
		c.paymentByOrder[k] = v
	}
	return c
}

type Store struct {
	mu   sync.Mutex
	data *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{data: newState()}
}

// binding decides how a repository reaches the data: inside a transaction
// the copy is used directly, outside it each call takes the store lock.
type binding struct {
	store *Store
	tx    *state
}

func (b binding) do(fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	return fn(b.store.data)
}

func (b binding) repos() repository.Repositories {
	return repository.Repositories{
		Equipment: &equipmentRepo{b},
		Orders:    &orderRepo{b},
		Payments:  &paymentRepo{b},
	}
}

func (s *Store) Repos() repository.Repositories {
	return binding{store: s}.repos()
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(ctx, binding{store: s, tx: work}.repos()); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func now() time.Time {
	return time.Now().UTC()
}

type equipmentRepo struct{ b binding }

func (r *equipmentRepo) Create(ctx context.Context, eq *domain.Equipment) error {
	return r.b.do(func(st *state) error {
		if eq.ID == uuid.Nil {
			eq.ID = uuid.New()
		}
		if _, ok := st.equipment[eq.ID]; ok {
			return fmt.Errorf("%w: equipment %s", repository.ErrDuplicate, eq.ID)
		}
		if eq.Status == "" {
			eq.Status = domain.EquipmentStatusAvailable
		}
		eq.CreatedAt = now()
		st.equipment[eq.ID] = *eq
		return nil
	})
}

func (r *equipmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	var out *domain.Equipment
	err := r.b.do(func(st *state) error {
		eq, ok := st.equipment[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &eq
		return nil
	})
	return out, err
}

func (r *equipmentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	return r.GetByID(ctx, id)
}

func (r *equipmentRepo) Update(ctx context.Context, eq *domain.Equipment) error {
	return r.b.do(func(st *state) error {
		cur, ok := st.equipment[eq.ID]
		if !ok {
			return repository.ErrNotFound
		}
		t := now()
		cur.Name, cur.Description, cur.Type = eq.Name, eq.Description, eq.Type
		cur.DailyPriceCents, cur.Status, cur.UpdatedAt = eq.DailyPriceCents, eq.Status, &t
		st.equipment[eq.ID] = cur
		eq.UpdatedAt = &t
		return nil
	})
}

func (r *equipmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error {
	return r.b.do(func(st *state) error {
		cur, ok := st.equipment[id]
		if !ok {
			return repository.ErrNotFound
		}
		t := now()
		cur.Status, cur.UpdatedAt = status, &t
		st.equipment[id] = cur
		return nil
	})
}

type orderRepo struct{ b binding }

func (st *state) joined(o domain.Order) domain.Order {
	if eq, ok := st.equipment[o.EquipmentID]; ok {
		o.EquipmentName, o.OwnerID = eq.Name, eq.OwnerID
	}
	return o
}

func (st *state) overlapsAccepted(equipmentID uuid.UUID, window domain.DateRange, exclude uuid.UUID) bool {
	for id, o := range st.orders {
		if id == exclude || o.EquipmentID != equipmentID || o.Status != domain.OrderStatusAccepted {
			continue
		}
		if o.Window().Overlaps(window) {
			return true
		}
	}
	return false
}

func (r *orderRepo) Create(ctx context.Context, o *domain.Order) error {
	return r.b.do(func(st *state) error {
		if _, ok := st.equipment[o.EquipmentID]; !ok {
			return fmt.Errorf("order references unknown equipment %s", o.EquipmentID)
		}
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.Status == domain.OrderStatusAccepted && st.overlapsAccepted(o.EquipmentID, o.Window(), o.ID) {
			return repository.ErrOverlap
		}
		o.CreatedAt = now()
		stored := *o
		stored.EquipmentName, stored.OwnerID = "", ""
		st.orders[o.ID] = stored
		return nil
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var out *domain.Order
	err := r.b.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		o = st.joined(o)
		out = &o
		return nil
	})
	return out, err
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) error {
	return r.b.do(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		if status == domain.OrderStatusAccepted && st.overlapsAccepted(o.EquipmentID, o.Window(), id) {
			return repository.ErrOverlap
		}
		t := updatedAt.UTC()
		o.Status, o.UpdatedAt = status, &t
		st.orders[id] = o
		return nil
	})
}

func (r *orderRepo) HasOverlappingAccepted(ctx context.Context, equipmentID uuid.UUID, window domain.DateRange, excludeID *uuid.UUID) (bool, error) {
	exclude := uuid.Nil
	if excludeID != nil {
		exclude = *excludeID
	}
	var found bool
	err := r.b.do(func(st *state) error {
		found = st.overlapsAccepted(equipmentID, window, exclude)
		return nil
	})
	return found, err
}

func matches(o domain.Order, f domain.OrderFilter) bool {
	switch {
	case f.UserID != "" && o.RenterID != f.UserID && o.OwnerID != f.UserID:
		return false
	case f.Status != "" && o.Status != f.Status:
		return false
	case f.StartDateFrom != nil && o.StartDate.Before(*f.StartDateFrom):
		return false
	case f.StartDateTo != nil && o.StartDate.After(*f.StartDateTo):
		return false
	case f.EndDateFrom != nil && o.EndDate.Before(*f.EndDateFrom):
		return false
	case f.EndDateTo != nil && o.EndDate.After(*f.EndDateTo):
		return false
	case f.MinTotalCents != nil && o.TotalAmountCents < *f.MinTotalCents:
		return false
	case f.MaxTotalCents != nil && o.TotalAmountCents > *f.MaxTotalCents:
		return false
	}
	return true
}

func compareOrders(a, b domain.Order, by domain.OrderSort) int {
	switch by {
	case domain.OrderSortStartDate:
		return a.StartDate.Compare(b.StartDate)
	case domain.OrderSortEndDate:
		return a.EndDate.Compare(b.EndDate)
	case domain.OrderSortTotalAmount:
		switch {
		case a.TotalAmountCents < b.TotalAmountCents:
			return -1
		case a.TotalAmountCents > b.TotalAmountCents:
			return 1
		}
		return 0
	case domain.OrderSortStatus:
		switch {
		case a.Status < b.Status:
			return -1
		case a.Status > b.Status:
			return 1
		}
		return 0
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}

func (r *orderRepo) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int32, error) {
	f.Normalize()
	var all []domain.Order
	err := r.b.do(func(st *state) error {
		for _, o := range st.orders {
			o = st.joined(o)
			if matches(o, f) {
				all = append(all, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(all, func(i, j int) bool {
		c := compareOrders(all[i], all[j], f.SortBy)
		if !f.Ascending {
			c = -c
		}
		if c == 0 {
			return all[i].ID.String() < all[j].ID.String()
		}
		return c < 0
	})

	total := int32(len(all))
	from := int((f.Page - 1) * f.PageSize)
	if from > len(all) {
		from = len(all)
	}
	to := from + int(f.PageSize)
	if to > len(all) {
		to = len(all)
	}
	return append([]domain.Order{}, all[from:to]...), total, nil
}

func (r *orderRepo) ListStalePending(ctx context.Context, before time.Time, limit int32) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.b.do(func(st *state) error {
		for _, o := range st.orders {
			if o.Status == domain.OrderStatusPending && o.StartDate.Before(before) {
				out = append(out, st.joined(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > int(limit) {
		out = out[:limit]
	}
	return out, err
}

type paymentRepo struct{ b binding }

func (r *paymentRepo) Create(ctx context.Context, p *domain.PaymentRecord) error {
	return r.b.do(func(st *state) error {
		if _, ok := st.orders[p.OrderID]; !ok {
			return fmt.Errorf("payment references unknown order %s", p.OrderID)
		}
		if _, ok := st.paymentByOrder[p.OrderID]; ok {
			return fmt.Errorf("%w: payment for order %s", repository.ErrDuplicate, p.OrderID)
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.Status == "" {
			p.Status = domain.PaymentStatusPending
		}
		p.CreatedAt = now()
		st.payments[p.ID] = *p
		st.paymentByOrder[p.OrderID] = p.ID
		return nil
	})
}

func (r *paymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	var out *domain.PaymentRecord
	err := r.b.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *paymentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	var out *domain.PaymentRecord
	err := r.b.do(func(st *state) error {
		id, ok := st.paymentByOrder[orderID]
		if !ok {
			return repository.ErrNotFound
		}
		p := st.payments[id]
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, paidAt *time.Time) error {
	return r.b.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		p.Status, p.PaidAt = status, paidAt
		st.payments[id] = p
		return nil
	})
}
