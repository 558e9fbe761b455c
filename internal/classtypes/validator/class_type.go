package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"corealign/pkg/logger"
)

// Exclusive keys group class types sharing a physical resource. Kept
// to a small lowercase alphabet so they read well in lock documents.
var exclusiveKeyRegex = regexp.MustCompile(`^[a-z0-9_-]{1,40}$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type CreateClassTypeInput struct {
	Name         string `validate:"required,min=2,max=100"`
	Capacity     int    `validate:"required,min=1,max=500"`
	ExclusiveKey string `validate:"omitempty,exclusive_key"`
	MinBookings  int    `validate:"min=0,max=500"`
	CutoffHours  int    `validate:"min=0,max=168"`
	DurationMin  int    `validate:"min=0,max=1440"`
}

type UpdateClassTypeInput struct {
	Name        string `validate:"required,min=2,max=100"`
	Capacity    int    `validate:"required,min=1,max=500"`
	MinBookings int    `validate:"min=0,max=500"`
	CutoffHours int    `validate:"min=0,max=168"`
	DurationMin int    `validate:"min=0,max=1440"`
}

type ClassTypeValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewClassTypeValidator(log *logger.Logger) *ClassTypeValidator {
	v := validator.New()

	if err := v.RegisterValidation("exclusive_key", validateExclusiveKey); err != nil {
		log.Fatal("Failed to register 'exclusive_key' validator",
			"error", err,
		)
	}

	log.Info("Class type validator initialized successfully")

	return &ClassTypeValidator{
		validate: v,
		logger:   log,
	}
}

func validateExclusiveKey(fl validator.FieldLevel) bool {
	return exclusiveKeyRegex.MatchString(fl.Field().String())
}

func (v *ClassTypeValidator) ValidateCreate(input *CreateClassTypeInput) error {
	return v.run(input)
}

func (v *ClassTypeValidator) ValidateUpdate(input *UpdateClassTypeInput) error {
	return v.run(input)
}

func (v *ClassTypeValidator) run(input any) error {
	if err := v.validate.Struct(input); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *ClassTypeValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "exclusive_key":
			message = fmt.Sprintf("%s must be 1-40 lowercase letters, digits, hyphens or underscores", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
