package errors

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline errors so the orchestrator can decide what to do
// with them without inspecting messages.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindDiscovery     Kind = "discovery"
	KindAcquisition   Kind = "acquisition"
	KindTranscription Kind = "transcription"
	KindStorage       Kind = "storage"
	KindDuplicate     Kind = "duplicate"
	KindInternal      Kind = "internal"
)

// ErrDuplicateID is wrapped by every duplicate-insert error so callers can
// test for it with errors.Is regardless of where the insert raced.
var ErrDuplicateID = errors.New("record with this id already exists")

type AppError struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

func Validation(op string, err error, message string) *AppError {
	return newError(KindValidation, op, err, message)
}

func Discovery(op string, err error, message string) *AppError {
	return newError(KindDiscovery, op, err, message)
}

func Acquisition(op string, err error, message string) *AppError {
	return newError(KindAcquisition, op, err, message)
}

func Transcription(op string, err error, message string) *AppError {
	return newError(KindTranscription, op, err, message)
}

func Storage(op string, err error, message string) *AppError {
	return newError(KindStorage, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return newError(KindInternal, op, err, message)
}

// Duplicate marks a lost insert race. The returned error always matches
// errors.Is(err, ErrDuplicateID).
func Duplicate(op string, cause error) *AppError {
	err := error(ErrDuplicateID)
	if cause != nil {
		err = fmt.Errorf("%w: %v", ErrDuplicateID, cause)
	}
	return newError(KindDuplicate, op, err, "duplicate video record")
}

// KindOf returns the Kind of the first AppError in the chain, or KindInternal
// for plain errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}
