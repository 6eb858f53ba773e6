package service

import (
	"context"
	"strings"

	"farmgear-backend/internal/domain"
	"farmgear-backend/internal/logger"
	"farmgear-backend/internal/repository"

	"github.com/google/uuid"
)

type equipmentService struct {
	store repository.Store
}

func NewEquipmentService(store repository.Store) EquipmentService {
	return &equipmentService{store: store}
}

func validateEquipment(eq *domain.Equipment) error {
	if strings.TrimSpace(eq.Name) == "" {
		return domain.Validation("equipment name is required")
	}
	if eq.DailyPriceCents <= 0 {
		return domain.Validation("daily price must be positive")
	}
	return nil
}

// CreateEquipment lists a new item owned by the caller. It always starts AVAILABLE.
func (s *equipmentService) CreateEquipment(ctx context.Context, actor domain.Actor, eq *domain.Equipment) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.CreateEquipment", "ownerID", actor.UserID)

	eq.ID = uuid.Nil
	eq.OwnerID = actor.UserID
	eq.Status = domain.EquipmentStatusAvailable
	if err := validateEquipment(eq); err != nil {
		logger.ExitMethodRejected("equipmentService.CreateEquipment", err)
		return nil, err
	}
	if err := s.store.Repos().Equipment.Create(ctx, eq); err != nil {
		logger.ExitMethodWithError("equipmentService.CreateEquipment", err)
		return nil, domain.Internal(err)
	}

	logger.ExitMethod("equipmentService.CreateEquipment", "equipmentID", eq.ID)
	return eq, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id uuid.UUID) (*domain.Equipment, error) {
	eq, err := s.store.Repos().Equipment.GetByID(ctx, id)
	if err != nil {
		if err = notFound(err, "equipment %s not found", id); domain.KindOf(err) != domain.KindNotFound {
			logger.Error("Failed to load equipment", "equipmentID", id, "error", err)
			return nil, domain.Internal(err)
		}
		return nil, err
	}
	return eq, nil
}

// UpdateEquipment edits the descriptive fields and price. Status is never
// touched here and edits are refused while the item is booked.
func (s *equipmentService) UpdateEquipment(ctx context.Context, actor domain.Actor, id uuid.UUID, update EquipmentUpdate) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.UpdateEquipment", "userID", actor.UserID, "equipmentID", id)

	var eq *domain.Equipment
	err := s.store.WithTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		eq, err = repos.Equipment.GetForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "equipment %s not found", id)
		}
		if !actor.IsAdmin && !eq.IsOwnedBy(actor.UserID) {
			return domain.Forbidden("you are not authorized to update this equipment")
		}
		if eq.Status != domain.EquipmentStatusAvailable {
			return domain.InvalidState("equipment can only be edited while available")
		}

		if update.Name != nil {
			eq.Name = *update.Name
		}
		if update.Description != nil {
			eq.Description = *update.Description
		}
		if update.Type != nil {
			eq.Type = *update.Type
		}
		if update.DailyPriceCents != nil {
			eq.DailyPriceCents = *update.DailyPriceCents
		}
		if err := validateEquipment(eq); err != nil {
			return err
		}
		return repos.Equipment.Update(ctx, eq)
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			logger.ExitMethodWithError("equipmentService.UpdateEquipment", err)
			return nil, domain.Internal(err)
		}
		logger.ExitMethodRejected("equipmentService.UpdateEquipment", err)
		return nil, err
	}

	logger.ExitMethod("equipmentService.UpdateEquipment", "equipmentID", id)
	return eq, nil
}
