package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide how to surface it:
// inline field message, retry affordance, or a terminal notice.
type Kind int

const (
	KindInternal    Kind = iota // unclassified failure
	KindValidation              // field-level, detected locally, never reached the network
	KindConflict                // recoverable by retrying with different input (taken username, registered email)
	KindTransient               // network/timeout; retryable with the same input
	KindFatalConfig             // backend configuration rejects the operation (e.g. sign-up disabled)
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindFatalConfig:
		return "fatal_config"
	default:
		return "internal"
	}
}

// Classified is an error carrying its Kind, an optional form field it maps
// to, and a message already suitable for showing to the user.
type Classified struct {
	Kind    Kind
	Field   string // form field the message belongs to, "" when not field-scoped
	Message string
	Err     error // underlying cause, may be nil
}

func (c *Classified) Error() string {
	if c.Field != "" {
		return fmt.Sprintf("%s (%s): %s", c.Kind, c.Field, c.Message)
	}
	return fmt.Sprintf("%s: %s", c.Kind, c.Message)
}

func (c *Classified) Unwrap() error { return c.Err }

// Validation builds a field-scoped validation error.
func Validation(field, message string) *Classified {
	return &Classified{Kind: KindValidation, Field: field, Message: message}
}

// Conflict builds a conflict error for input the backend already has.
func Conflict(message string) *Classified {
	return &Classified{Kind: KindConflict, Message: message}
}

// Transient wraps a network-level failure.
func Transient(message string, err error) *Classified {
	return &Classified{Kind: KindTransient, Message: message, Err: err}
}

// FatalConfig wraps a failure the user cannot fix by changing input.
func FatalConfig(message string, err error) *Classified {
	return &Classified{Kind: KindFatalConfig, Message: message, Err: err}
}

// Internal wraps an unclassified failure.
func Internal(message string, err error) *Classified {
	return &Classified{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the Kind from anywhere in err's chain.
// Unclassified errors report KindInternal.
func KindOf(err error) Kind {
	var c *Classified
	if errors.As(err, &c) {
		return c.Kind
	}
	return KindInternal
}

// FieldOf returns the form field a classified error is scoped to, or "".
func FieldOf(err error) string {
	var c *Classified
	if errors.As(err, &c) {
		return c.Field
	}
	return ""
}

// MessageOf returns the user-facing message of a classified error, falling
// back to err.Error() so raw failures are surfaced rather than swallowed.
func MessageOf(err error) string {
	var c *Classified
	if errors.As(err, &c) {
		return c.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
