package csvimport

import "fmt"

// ReferenceValidator resolves foreign references through a lookup, caching
// results so repeated codes hit the database once
type ReferenceValidator struct {
	cache  map[string]map[string]bool // refType -> value -> exists
	lookup func(refType, value string) (bool, error)
	errors *ErrorCollection
}

// NewReferenceValidator creates a new reference validator
func NewReferenceValidator(lookup func(refType, value string) (bool, error), maxErrors int) *ReferenceValidator {
	return &ReferenceValidator{
		cache:  make(map[string]map[string]bool),
		lookup: lookup,
		errors: NewErrorCollection(maxErrors),
	}
}

// PreloadReferences warms the cache for a batch of values
func (v *ReferenceValidator) PreloadReferences(refType string, values []string) error {
	if v.cache[refType] == nil {
		v.cache[refType] = make(map[string]bool)
	}
	for _, value := range values {
		exists, err := v.lookup(refType, value)
		if err != nil {
			return err
		}
		v.cache[refType][value] = exists
	}
	return nil
}

// ValidateReference checks that a referenced value exists. Empty values
// pass; presence is the field validator's concern.
func (v *ReferenceValidator) ValidateReference(row int, column, refType, value string) bool {
	if value == "" {
		return true
	}

	exists, cached := false, false
	if byValue, ok := v.cache[refType]; ok {
		exists, cached = byValue[value]
	}
	if !cached {
		var err error
		exists, err = v.lookup(refType, value)
		if err != nil {
			v.errors.AddValidationError(row, column, ErrCodeImportValidation,
				fmt.Sprintf("error checking %s reference: %v", refType, err))
			return false
		}
		if v.cache[refType] == nil {
			v.cache[refType] = make(map[string]bool)
		}
		v.cache[refType][value] = exists
	}

	if !exists {
		v.errors.AddReferenceError(row, column, value, refType)
		return false
	}
	return true
}

// Errors returns the error collection
func (v *ReferenceValidator) Errors() *ErrorCollection {
	return v.errors
}

// Reset clears the validator cache
func (v *ReferenceValidator) Reset() {
	v.cache = make(map[string]map[string]bool)
	v.errors.Clear()
}

// UniquenessValidator checks values against existing database rows
type UniquenessValidator struct {
	lookup func(entityType, field, value string) (bool, error)
	errors *ErrorCollection
}

// NewUniquenessValidator creates a new uniqueness validator
func NewUniquenessValidator(lookup func(entityType, field, value string) (bool, error), maxErrors int) *UniquenessValidator {
	return &UniquenessValidator{
		lookup: lookup,
		errors: NewErrorCollection(maxErrors),
	}
}

// ValidateUnique checks that a value does not already exist in the database
func (v *UniquenessValidator) ValidateUnique(row int, column, entityType, value string) bool {
	if value == "" {
		return true
	}

	exists, err := v.lookup(entityType, column, value)
	if err != nil {
		v.errors.AddValidationError(row, column, ErrCodeImportValidation,
			fmt.Sprintf("error checking uniqueness: %v", err))
		return false
	}
	if exists {
		v.errors.AddDuplicateError(row, column, value, true)
		return false
	}
	return true
}

// Errors returns the error collection
func (v *UniquenessValidator) Errors() *ErrorCollection {
	return v.errors
}
