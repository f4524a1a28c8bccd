package utils

import (
	"regexp"

	"github.com/pkg/errors"
)

// ValidNameRegex matches names that can be used as a single entity path segment: a letter or
// number followed by up to 59 letters, numbers, dashes and underscores.
var ValidNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([-\w]){0,59}$`)

// ValidateName returns ErrInvalidName unless name matches ValidNameRegex.
func ValidateName(name string) error {
	if !ValidNameRegex.MatchString(name) {
		return ErrInvalidName(name)
	}
	return nil
}

// ErrInvalidName returns a human-readable error for when ValidNameRegex doesn't match.
func ErrInvalidName(name string) error {
	if len(name) > 60 {
		return errors.Errorf("name %q must be 60 characters or fewer", name)
	}
	return errors.Errorf("name %q must start with a letter or number and must only contain letters, numbers, dashes, and underscores", name)
}
