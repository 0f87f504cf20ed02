package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")
	ErrEmptyCart  = fmt.Errorf("%w: cart is empty", ErrValidation)
)

type Form struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (f Form) Normalize() Form {
	return Form{
		Name:     strings.TrimSpace(f.Name),
		Phone:    strings.TrimSpace(f.Phone),
		Location: strings.TrimSpace(f.Location),
		Notes:    strings.TrimSpace(f.Notes),
	}
}

// Validate reports every missing required field at once.
func (f Form) Validate() error {
	f = f.Normalize()
	var errs []error
	if f.Name == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrValidation))
	}
	if f.Phone == "" {
		errs = append(errs, fmt.Errorf("%w: phone is required", ErrValidation))
	}
	if f.Location == "" {
		errs = append(errs, fmt.Errorf("%w: location is required", ErrValidation))
	}
	return errors.Join(errs...)
}
