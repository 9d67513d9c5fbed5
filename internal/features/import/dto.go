package import_feature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SetMappingRequest assigns a field to a column, or skips it.
type SetMappingRequest struct {
	Field string `json:"field" validate:"required_without=Skip,max=140"`
	Skip  bool   `json:"skip"`
}

func (r SetMappingRequest) Target() FieldTarget {
	if r.Skip {
		return Skip
	}
	return Field(r.Field)
}

// EditCellRequest replaces one cell value.
type EditCellRequest struct {
	Value *string `json:"value" validate:"required"`
}

// InitializeRequest is the form part of a new session upload.
type InitializeRequest struct {
	Entity string `form:"entity" validate:"required,max=140"`
}

// HistoryQuery filters the history listing.
type HistoryQuery struct {
	Entity string `query:"entity" validate:"omitempty,max=140"`
	User   string `query:"user" validate:"omitempty,max=140"`
	Limit  int64  `query:"limit" validate:"omitempty,min=1,max=200"`
}

// validateRequest returns a readable message for the first failing field.
func validateRequest(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required", "required_without":
		return fmt.Errorf("%s is required", field)
	case "max":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
