package domain

import (
	"time"

	"github.com/google/uuid"
)

type EquipmentStatus string

const (
	EquipmentStatusAvailable   EquipmentStatus = "AVAILABLE"
	EquipmentStatusRented      EquipmentStatus = "RENTED"
	EquipmentStatusMaintenance EquipmentStatus = "MAINTENANCE"
	EquipmentStatusOffline     EquipmentStatus = "OFFLINE"
)

type Equipment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OwnerID         string          `json:"owner_id" db:"owner_id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	Type            string          `json:"type" db:"type"`
	DailyPriceCents int64           `json:"daily_price_cents" db:"daily_price_cents"`
	Status          EquipmentStatus `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty" db:"updated_at"`
}

// IsOwnedBy reports whether userID owns the equipment.
func (e *Equipment) IsOwnedBy(userID string) bool {
	return e.OwnerID != "" && e.OwnerID == userID
}

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentStatusAvailable, EquipmentStatusRented, EquipmentStatusMaintenance, EquipmentStatusOffline:
		return true
	}
	return false
}
