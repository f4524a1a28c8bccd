package utils

import "github.com/pkg/errors"

// AssertType returns from as a T, or an error naming both the wanted and the actual type.
func AssertType[T any](from any) (T, error) {
	v, ok := from.(T)
	if !ok {
		return v, errors.Errorf("expected %T but got %T", *new(T), from)
	}
	return v, nil
}
