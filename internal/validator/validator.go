package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/SAP-F-2025/exercise-engine/internal/errors"
	"github.com/SAP-F-2025/exercise-engine/internal/models"
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

const maxGridSide = models.MaxGridSide

// Validator wraps the struct validator with the engine's custom tags
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with all custom tags registered
func New() *Validator {
	structValidator := validator.New()

	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates s and converts tag failures into ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperrors.ToValidationErrors(fieldErrs)
	}
	return err
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("exercise_type", validateExerciseType)
	validate.RegisterValidation("grid_mask", validateGridMask)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateExerciseType(fl validator.FieldLevel) bool {
	return models.ExerciseType(fl.Field().String()).Valid()
}

// validateGridMask accepts rectangular, non-empty masks within maxGridSide
func validateGridMask(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}
	rows := field.Len()
	if rows == 0 || rows > maxGridSide {
		return false
	}
	cols := field.Index(0).Len()
	if cols == 0 || cols > maxGridSide {
		return false
	}
	for i := 1; i < rows; i++ {
		if field.Index(i).Len() != cols {
			return false
		}
	}
	return true
}
