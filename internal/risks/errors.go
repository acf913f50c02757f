package risks

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when the requester's groups do not grant access
// to a restricted analysis.
var ErrForbidden = errors.New("access to this analysis is restricted")

// AmbiguousAxisError reports a dimension whose bindings disagree on the
// physical layer attribute, so no single axis column can be resolved.
type AmbiguousAxisError struct {
	Dimension  string
	Attributes []string
}

func (e *AmbiguousAxisError) Error() string {
	return fmt.Sprintf("dimension %q maps to %d layer attributes, expected exactly 1", e.Dimension, len(e.Attributes))
}

// MissingFieldError reports a feature that lacks a field the reshaper needs.
type MissingFieldError struct {
	Field     string
	FeatureID string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("feature %s has no field %q", e.FeatureID, e.Field)
}

// NotFoundError reports a missing catalog entity.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// ServiceError reports a failed call to an upstream service, keeping the
// underlying cause available for errors.Is/As.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
