package submission

import (
	"errors"
	"fmt"
)

// Kind classifies submission failures for the HTTP layer.
type Kind int

const (
	// KindValidation is bad client input.
	KindValidation Kind = iota + 1
	// KindStorage is an unreadable, unwritable or corrupt store.
	KindStorage
	// KindNotification is a failed operator notification.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Error carries a client-facing Message alongside the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func storageError(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func notificationError(message string, err error) error {
	return &Error{Kind: KindNotification, Message: message, Err: err}
}
