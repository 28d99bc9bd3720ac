package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrScheduleNotFound      = errors.New("schedule not found")
	ErrScheduleAlreadyExists = errors.New("schedule already exists")
	ErrPaymentNotFound       = errors.New("payment entry not found")
	ErrInvalidLoanTerms      = errors.New("invalid loan terms")
	ErrInvalidPaymentAmount  = errors.New("invalid payment amount")
	ErrPaymentAlreadySettled = errors.New("payment entry is already paid")
	ErrInvalidTransition     = errors.New("invalid payment status transition")
	ErrNoDateColumn          = errors.New("no date column found")
	ErrNoValidRows           = errors.New("no valid rows found")
	ErrInconsistentLedger    = errors.New("inconsistent payment ledger")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeScheduleNotFound      = "SCHEDULE_NOT_FOUND"
	ErrCodeScheduleAlreadyExists = "SCHEDULE_ALREADY_EXISTS"
	ErrCodePaymentNotFound       = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidLoanTerms      = "INVALID_LOAN_TERMS"
	ErrCodeInvalidPaymentAmount  = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentAlreadySettled = "PAYMENT_ALREADY_SETTLED"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeNoDateColumn          = "NO_DATE_COLUMN"
	ErrCodeNoValidRows           = "NO_VALID_ROWS"
	ErrCodeInconsistentLedger    = "INCONSISTENT_LEDGER"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeCacheError            = "CACHE_ERROR"
)

// CodeOf returns the code of the first BusinessError in err's chain, or "".
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Wrap common errors with business context
func WrapScheduleNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("Schedule %s not found", id),
		ErrScheduleNotFound,
	)
}

func WrapScheduleAlreadyExists(liabilityID string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleAlreadyExists,
		fmt.Sprintf("Liability %s already has a schedule", liabilityID),
		ErrScheduleAlreadyExists,
	)
}

func WrapPaymentNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentNotFound,
		fmt.Sprintf("Payment entry %s not found", id),
		ErrPaymentNotFound,
	)
}

func WrapInvalidLoanTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerms,
		reason,
		ErrInvalidLoanTerms,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapPaymentAlreadySettled(sequence int) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentAlreadySettled,
		fmt.Sprintf("Payment %d is already paid", sequence),
		ErrPaymentAlreadySettled,
	)
}

func WrapInvalidTransition(from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Payment cannot move from %s to %s", from, to),
		ErrInvalidTransition,
	)
}

func WrapNoDateColumn(header string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoDateColumn,
		fmt.Sprintf("File header %q has no date column; pick a file with a date column", header),
		ErrNoDateColumn,
	)
}

func WrapNoValidRows(rows int) *BusinessError {
	return NewBusinessError(
		ErrCodeNoValidRows,
		fmt.Sprintf("None of the %d data rows has a readable date", rows),
		ErrNoValidRows,
	)
}

func WrapInconsistentLedger(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInconsistentLedger,
		reason,
		ErrInconsistentLedger,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
