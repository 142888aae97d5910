package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds reported at the component boundary. Deletion guards and
// validation run before any persistence mutation so callers always get a
// structured reason instead of a raw constraint violation.
var (
	ErrNotFound                  = errors.New("entity not found")
	ErrDuplicateName             = errors.New("name already in use")
	ErrDuplicateYear             = errors.New("a yearly balance already exists for this year")
	ErrDuplicateSnapshotDate     = errors.New("a balance snapshot already exists for this date")
	ErrHasDependentExpenses      = errors.New("expenses are still attached")
	ErrHasDependentSubcategories = errors.New("subcategories are still attached")
	ErrHasLedgerActivity         = errors.New("ledger entries exist inside this year")
	ErrCategoryNotFound          = errors.New("category not found")
	ErrCategoryInactive          = errors.New("category is inactive")
	ErrSubcategoryMismatch       = errors.New("subcategory does not belong to the category")
	ErrInvalidMode               = errors.New("invalid collection mode")
	ErrEventNotFound             = errors.New("linked event not found")
	ErrYearOutOfRange            = errors.New("year out of supported range")
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrInvalidWindow             = errors.New("invalid date window")
	ErrInvalidSource             = errors.New("unknown aggregation source")
	ErrInvalidDimension          = errors.New("dimension not supported for this source")
	ErrUnknownEntity             = errors.New("unknown entity in reorder list")
)

// ValidationError aggregates field-level messages so a caller can report
// every problem at once.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (v *ValidationError) Add(field, msg string) {
	v.Fields[field] = msg
}

// OrNil returns nil when no field failed, so it can be returned directly
// from Validate methods.
func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, v.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
