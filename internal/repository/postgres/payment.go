package postgres

import (
	"context"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, order_id, user_id, amount_cents, status, paid_at, created_at`

type paymentRepository struct {
	q sqlx.ExtContext
}

func NewPaymentRepository(q sqlx.ExtContext) repository.PaymentRepository {
	return &paymentRepository{q: q}
}

// Create inserts a payment record. A second record for the same order
// fails with repository.ErrDuplicate.
func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.PaymentStatusPending
	}
	p.CreatedAt = time.Now().UTC()
	query := `INSERT INTO payment_records (id, order_id, user_id, amount_cents, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.ExecContext(ctx, query, p.ID, p.OrderID, p.UserID, p.AmountCents, p.Status, p.CreatedAt)
	return mapError(err)
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE id = $1`, id)
}

func (r *paymentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.PaymentRecord, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE id = $1 FOR UPDATE`, id)
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentRecord, error) {
	return r.get(ctx, `SELECT `+paymentColumns+` FROM payment_records WHERE order_id = $1`, orderID)
}

func (r *paymentRepository) get(ctx context.Context, query string, arg uuid.UUID) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{}
	if err := sqlx.GetContext(ctx, r.q, p, query, arg); err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, paidAt *time.Time) error {
	query := `UPDATE payment_records SET status=$1, paid_at=$2 WHERE id=$3`
	return execOne(ctx, r.q, "payment_records.UpdateStatus", query, status, paidAt, id)
}
