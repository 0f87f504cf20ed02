package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// CategoryInUseError blocks deleting a category that products still carry.
type CategoryInUseError struct {
	Name     string
	Products int64
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category %q is used by %d product(s)", e.Name, e.Products)
}

func (e *CategoryInUseError) Is(target error) bool {
	return target == ErrConflict
}

// translate maps gorm errors onto the service sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return err
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
