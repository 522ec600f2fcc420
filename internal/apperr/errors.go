package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrLedgerWrite = errors.New("ledger write failed")
)

// ValidationError is returned for malformed input before any state changes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// LedgerWriteError wraps a storage failure while persisting ledger state.
// Callers may retry the whole operation.
type LedgerWriteError struct {
	Op  string
	Err error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}

func (e *LedgerWriteError) Is(target error) bool {
	return target == ErrLedgerWrite
}

// LedgerWrite wraps err unless it already carries a domain meaning.
func LedgerWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	var lw *LedgerWriteError
	var ve *ValidationError
	if errors.As(err, &lw) || errors.As(err, &ve) {
		return err
	}
	return &LedgerWriteError{Op: op, Err: err}
}
