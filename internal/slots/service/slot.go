package service

import (
	"context"
	"errors"

	classtypeerrors "corealign/internal/classtypes/errors"
	classtyperepo "corealign/internal/classtypes/repository"
	sloterrors "corealign/internal/slots/errors"
	"corealign/internal/slots/repository"
	slotvalidator "corealign/internal/slots/validator"
	"corealign/pkg/config"
	apperrors "corealign/pkg/errors"
	"corealign/pkg/logger"
	"corealign/pkg/model"
	"corealign/pkg/sanitizer"
	"corealign/pkg/timegrid"
)

// CreateSlotRequest carries the admin input for a new slot.
type CreateSlotRequest struct {
	ClassTypeID string `json:"class_type_id"`
	DateKey     string `json:"date_key"`
	StartMin    int    `json:"start_min"`
	EndMin      int    `json:"end_min"`
}

// SlotService owns the admin-facing slot reads and creation. Slot
// cancellation and deletion live in the booking service because they
// cascade into bookings and lock buckets.
type SlotService interface {
	Create(ctx context.Context, req *CreateSlotRequest) (*model.Slot, error)
	GetByID(ctx context.Context, id string) (*model.Slot, error)
	ListByDate(ctx context.Context, dateKey string) ([]*model.Slot, error)
}

type slotService struct {
	slots      repository.SlotRepository
	classTypes classtyperepo.ClassTypeRepository
	validator  *slotvalidator.SlotValidator
	cfg        *config.Config
	logger     *logger.Logger
}

func NewSlotService(
	slots repository.SlotRepository,
	classTypes classtyperepo.ClassTypeRepository,
	validator *slotvalidator.SlotValidator,
	cfg *config.Config,
	log *logger.Logger,
) SlotService {
	log.Info("Slot service initialized successfully")
	return &slotService{
		slots:      slots,
		classTypes: classTypes,
		validator:  validator,
		cfg:        cfg,
		logger:     log,
	}
}

func (s *slotService) Create(ctx context.Context, req *CreateSlotRequest) (*model.Slot, error) {
	input := &slotvalidator.CreateSlotInput{
		ClassTypeID: sanitizer.TrimAndNormalize(req.ClassTypeID),
		DateKey:     sanitizer.TrimAndNormalize(req.DateKey),
		StartMin:    req.StartMin,
		EndMin:      req.EndMin,
	}
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	classType, err := s.classTypes.FindByID(ctx, input.ClassTypeID)
	if err != nil {
		if errors.Is(err, classtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class type", input.ClassTypeID)
		}
		if errors.Is(err, classtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid class type ID format")
		}
		return nil, apperrors.Internal("Failed to load class type", err)
	}

	slot := &model.Slot{
		ClassTypeID: classType.ID,
		DateKey:     input.DateKey,
		StartMin:    input.StartMin,
		EndMin:      input.EndMin,
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		if errors.Is(err, sloterrors.ErrDuplicate) {
			existing, ferr := s.slots.FindExact(ctx, classType.ID, input.DateKey, input.StartMin, input.EndMin)
			if ferr == nil && existing != nil {
				return existing, nil
			}
			return nil, apperrors.Conflict("Slot already exists for this class type and time")
		}
		return nil, apperrors.Internal("Failed to create slot", err)
	}

	s.logger.Info("slot created",
		"slot_id", slot.ID,
		"class_type_id", classType.ID,
		"date_key", slot.DateKey,
		"start_min", slot.StartMin,
		"end_min", slot.EndMin,
	)
	return slot, nil
}

func (s *slotService) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sloterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Slot", id)
		}
		if errors.Is(err, sloterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid slot ID format")
		}
		return nil, apperrors.Internal("Failed to load slot", err)
	}
	return slot, nil
}

func (s *slotService) ListByDate(ctx context.Context, dateKey string) ([]*model.Slot, error) {
	dateKey = sanitizer.TrimAndNormalize(dateKey)
	if _, err := timegrid.ParseDateKey(dateKey, s.cfg.StudioLoc); err != nil {
		return nil, apperrors.InvalidInput("date must be in YYYY-MM-DD format")
	}

	slots, err := s.slots.FindByDate(ctx, dateKey)
	if err != nil {
		return nil, apperrors.Internal("Failed to list slots", err)
	}
	return slots, nil
}
