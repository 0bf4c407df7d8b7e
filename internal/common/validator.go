package common

import (
	"fmt"
	"regexp"
	"slices"
	"unicode/utf8"
)

type ValidationError struct {
	Errors map[string]string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %+v", e.Errors)
}

type Validator struct {
	Errors map[string]string
}

func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first message recorded for a field.
func (v *Validator) AddError(field, message string) {
	if _, ok := v.Errors[field]; !ok {
		v.Errors[field] = message
	}
}

func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// CheckStringLength counts runes, not bytes.
func (v *Validator) CheckStringLength(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

func (v *Validator) Matches(s string, rx *regexp.Regexp) bool {
	return rx.MatchString(s)
}

func (v *Validator) PermittedValue(value string, permitted ...string) bool {
	return slices.Contains(permitted, value)
}

func (v *Validator) ValidationError() error {
	return ValidationError{Errors: v.Errors}
}
