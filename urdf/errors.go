package urdf

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoModelInformation is returned for an empty description file.
	ErrNoModelInformation = errors.New("no information found in URDF")
	// ErrIncompletePoses is returned by LogFrame when the pose map lacks a link.
	ErrIncompletePoses = errors.New("pose map does not cover every link")
)

// ParseError describes malformed or inconsistent description content.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("invalid URDF %q: %s", e.File, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MeshResolutionError is returned when a visual's mesh file cannot be found.
type MeshResolutionError struct {
	Link     string
	Filename string
	Tried    []string
	// Err is set when the reference points outside the mesh directory.
	Err error
}

func (e *MeshResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve mesh %q of link %q: %v", e.Filename, e.Link, e.Err)
	}
	return fmt.Sprintf("cannot resolve mesh %q of link %q (tried %v)", e.Filename, e.Link, e.Tried)
}

func (e *MeshResolutionError) Unwrap() error {
	return e.Err
}
