package service

import (
	"context"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

// availability answers whether a window can still be booked. It only reads.
type availability struct{}

// isAvailable is false when the equipment is not AVAILABLE or an ACCEPTED
// order on it overlaps window. PENDING orders never conflict.
func (availability) isAvailable(ctx context.Context, repos repository.Repositories, eq *domain.Equipment, window domain.DateRange, exclude *uuid.UUID) (bool, error) {
	if eq.Status != domain.EquipmentStatusAvailable {
		return false, nil
	}
	return availability{}.windowFree(ctx, repos, eq.ID, window, exclude)
}

// heldByAccepted reports whether any ACCEPTED order other than exclude
// still books the equipment, whatever its dates.
func (availability) heldByAccepted(ctx context.Context, repos repository.Repositories, equipmentID uuid.UUID, exclude *uuid.UUID) (bool, error) {
	return repos.Orders.HasOverlappingAccepted(ctx, equipmentID, domain.AllDates, exclude)
}

// windowFree ignores equipment status and only checks accepted bookings.
func (availability) windowFree(ctx context.Context, repos repository.Repositories, equipmentID uuid.UUID, window domain.DateRange, exclude *uuid.UUID) (bool, error) {
	overlap, err := repos.Orders.HasOverlappingAccepted(ctx, equipmentID, window, exclude)
	if err != nil {
		return false, err
	}
	return !overlap, nil
}
