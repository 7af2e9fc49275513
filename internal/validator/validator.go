package validator

import (
	"errors"
	"fmt"
	"reflect"

	playground "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/arcanaland/flashcards/internal/card"
)

// Reason says why a field was rejected
type Reason string

const (
	ReasonBlank     Reason = "blank"
	ReasonDuplicate Reason = "duplicate"
)

// ValidationError is returned for user input that can be corrected and retried.
// It is never fatal.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonBlank:
		return fmt.Sprintf("%s must not be blank", e.Field)
	case ReasonDuplicate:
		return fmt.Sprintf("%s already exists", e.Field)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// Duplicate returns the error for a value that must be unique but is not
func Duplicate(field string) error {
	return &ValidationError{Field: field, Reason: ReasonDuplicate}
}

// AsValidationError unwraps err into a ValidationError if it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type cardFields struct {
	UnknownWord string `field:"unknown_word" validate:"notblank"`
	KnownWord   string `field:"known_word" validate:"notblank"`
}

type listFields struct {
	Name string `field:"name" validate:"notblank"`
}

// Validator checks cards and list names before they are stored
type Validator struct {
	validate *playground.Validate
}

// NewValidator creates a validator with the notblank rule registered
func NewValidator() *Validator {
	v := playground.New(playground.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("registering notblank: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})
	return &Validator{validate: v}
}

// Card requires both words of a card to be non-blank
func (v *Validator) Card(c card.Card) error {
	return v.check(cardFields{UnknownWord: c.UnknownWord, KnownWord: c.KnownWord})
}

// ListName requires a list name to be non-blank. Uniqueness is checked by the store.
func (v *Validator) ListName(name string) error {
	return v.check(listFields{Name: name})
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: fieldErrs[0].Field(), Reason: ReasonBlank}
	}
	return fmt.Errorf("validating %T: %w", s, err)
}
