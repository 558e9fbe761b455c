package service

import (
	"context"
	"errors"

	classtypeerrors "corealign/internal/classtypes/errors"
	"corealign/internal/classtypes/repository"
	classtypevalidator "corealign/internal/classtypes/validator"
	apperrors "corealign/pkg/errors"
	"corealign/pkg/logger"
	"corealign/pkg/model"
	"corealign/pkg/sanitizer"
)

type CreateClassTypeRequest struct {
	Name         string `json:"name"`
	Capacity     int    `json:"capacity"`
	ExclusiveKey string `json:"exclusive_key,omitempty"`
	MinBookings  int    `json:"min_bookings,omitempty"`
	CutoffHours  int    `json:"cutoff_hours,omitempty"`
	DurationMin  int    `json:"duration_min,omitempty"`
}

// UpdateClassTypeRequest deliberately has no exclusive key field: the
// key is fixed at creation because existing lock and booking documents
// reference it.
type UpdateClassTypeRequest struct {
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	MinBookings int    `json:"min_bookings,omitempty"`
	CutoffHours int    `json:"cutoff_hours,omitempty"`
	DurationMin int    `json:"duration_min,omitempty"`
}

type ClassTypeService interface {
	Create(ctx context.Context, req *CreateClassTypeRequest) (*model.ClassType, error)
	GetByID(ctx context.Context, id string) (*model.ClassType, error)
	GetAll(ctx context.Context) ([]*model.ClassType, error)
	Update(ctx context.Context, id string, req *UpdateClassTypeRequest) (*model.ClassType, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type classTypeService struct {
	classTypes repository.ClassTypeRepository
	validator  *classtypevalidator.ClassTypeValidator
	logger     *logger.Logger
}

func NewClassTypeService(
	classTypes repository.ClassTypeRepository,
	validator *classtypevalidator.ClassTypeValidator,
	log *logger.Logger,
) ClassTypeService {
	log.Info("Class type service initialized successfully")
	return &classTypeService{
		classTypes: classTypes,
		validator:  validator,
		logger:     log,
	}
}

func (s *classTypeService) Create(ctx context.Context, req *CreateClassTypeRequest) (*model.ClassType, error) {
	input := &classtypevalidator.CreateClassTypeInput{
		Name:         sanitizer.NormalizeName(req.Name),
		Capacity:     req.Capacity,
		ExclusiveKey: sanitizer.NormalizeKey(req.ExclusiveKey),
		MinBookings:  req.MinBookings,
		CutoffHours:  req.CutoffHours,
		DurationMin:  req.DurationMin,
	}
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	classType := &model.ClassType{
		Name:         input.Name,
		Capacity:     input.Capacity,
		ExclusiveKey: input.ExclusiveKey,
		Active:       true,
		MinBookings:  input.MinBookings,
		CutoffHours:  input.CutoffHours,
		DurationMin:  input.DurationMin,
	}

	if err := s.classTypes.Create(ctx, classType); err != nil {
		return nil, apperrors.Internal("Failed to create class type", err)
	}

	s.logger.Info("class type created",
		"class_type_id", classType.ID,
		"name", classType.Name,
		"exclusive_key", classType.ExclusiveKey,
	)
	return classType, nil
}

func (s *classTypeService) GetByID(ctx context.Context, id string) (*model.ClassType, error) {
	return s.load(ctx, id)
}

func (s *classTypeService) GetAll(ctx context.Context) ([]*model.ClassType, error) {
	classTypes, err := s.classTypes.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("Failed to list class types", err)
	}
	return classTypes, nil
}

func (s *classTypeService) Update(ctx context.Context, id string, req *UpdateClassTypeRequest) (*model.ClassType, error) {
	input := &classtypevalidator.UpdateClassTypeInput{
		Name:        sanitizer.NormalizeName(req.Name),
		Capacity:    req.Capacity,
		MinBookings: req.MinBookings,
		CutoffHours: req.CutoffHours,
		DurationMin: req.DurationMin,
	}
	if err := s.validator.ValidateUpdate(input); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	classType, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	classType.Name = input.Name
	classType.Capacity = input.Capacity
	classType.MinBookings = input.MinBookings
	classType.CutoffHours = input.CutoffHours
	classType.DurationMin = input.DurationMin

	if err := s.classTypes.Update(ctx, classType.ID, classType); err != nil {
		if errors.Is(err, classtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class type", id)
		}
		return nil, apperrors.Internal("Failed to update class type", err)
	}

	s.logger.Info("class type updated", "class_type_id", classType.ID, "name", classType.Name)
	return classType, nil
}

func (s *classTypeService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.classTypes.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, classtypeerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Class type", id)
		}
		if errors.Is(err, classtypeerrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid class type ID format")
		}
		return apperrors.Internal("Failed to update class type active flag", err)
	}

	s.logger.Info("class type active flag updated", "class_type_id", id, "active", active)
	return nil
}

func (s *classTypeService) load(ctx context.Context, id string) (*model.ClassType, error) {
	classType, err := s.classTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classtypeerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class type", id)
		}
		if errors.Is(err, classtypeerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid class type ID format")
		}
		return nil, apperrors.Internal("Failed to load class type", err)
	}
	return classType, nil
}
