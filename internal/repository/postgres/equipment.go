package postgres

import (
	"context"
	"time"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const equipmentColumns = `id, owner_id, name, description, type, daily_price_cents, status, created_at, updated_at`

type equipmentRepository struct {
	q sqlx.ExtContext
}

func NewEquipmentRepository(q sqlx.ExtContext) repository.EquipmentRepository {
	return &equipmentRepository{q: q}
}

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	if eq.ID == uuid.Nil {
		eq.ID = uuid.New()
	}
	if eq.Status == "" {
		eq.Status = domain.EquipmentStatusAvailable
	}
	eq.CreatedAt = time.Now().UTC()
	query := `INSERT INTO equipment (id, owner_id, name, description, type, daily_price_cents, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.ExecContext(ctx, query, eq.ID, eq.OwnerID, eq.Name, eq.Description, eq.Type, eq.DailyPriceCents, eq.Status, eq.CreatedAt)
	return mapError(err)
}

func (r *equipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	return r.get(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id)
}

func (r *equipmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	return r.get(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1 FOR UPDATE`, id)
}

func (r *equipmentRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Equipment, error) {
	eq := &domain.Equipment{}
	if err := sqlx.GetContext(ctx, r.q, eq, query, id); err != nil {
		return nil, mapError(err)
	}
	return eq, nil
}

func (r *equipmentRepository) Update(ctx context.Context, eq *domain.Equipment) error {
	now := time.Now().UTC()
	query := `UPDATE equipment SET name=$1, description=$2, type=$3, daily_price_cents=$4, status=$5, updated_at=$6 WHERE id=$7`
	err := execOne(ctx, r.q, "equipment.Update", query, eq.Name, eq.Description, eq.Type, eq.DailyPriceCents, eq.Status, now, eq.ID)
	if err == nil {
		eq.UpdatedAt = &now
	}
	return err
}

func (r *equipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EquipmentStatus) error {
	query := `UPDATE equipment SET status=$1, updated_at=$2 WHERE id=$3`
	return execOne(ctx, r.q, "equipment.UpdateStatus", query, status, time.Now().UTC(), id)
}
