package model

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a domain validation failure
type ErrorCode int

const (
	// Service ledger errors (1xxx)
	ErrCodeInvalidConsumptionQuantity ErrorCode = 1001
	ErrCodeInsufficientBalance        ErrorCode = 1002
	ErrCodeInvalidRefundQuantity      ErrorCode = 1003
	ErrCodeInvalidAdjustment          ErrorCode = 1004

	// Mentor payable errors (2xxx)
	ErrCodeAdjustmentChain ErrorCode = 2001
	ErrCodeAlreadySettled  ErrorCode = 2002
	ErrCodeInvalidPayable  ErrorCode = 2003

	// Money errors (3xxx)
	ErrCodeCurrencyMismatch ErrorCode = 3001
	ErrCodeNegativeAmount   ErrorCode = 3002
	ErrCodeInvalidCurrency  ErrorCode = 3003
)

// DomainError is a validation failure raised by an entity factory.
// It propagates to the originating command handler unchanged and maps to a
// 4xx-equivalent rejection at the outer edge.
type DomainError struct {
	Code   ErrorCode
	Detail string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return fmt.Sprintf("[%d] %s", e.Code, e.Detail)
}

// IsDomainError reports whether err is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// Domain error constructors

func NewInvalidConsumptionQuantityError(quantity int) *DomainError {
	return &DomainError{
		Code:   ErrCodeInvalidConsumptionQuantity,
		Detail: fmt.Sprintf("consumption quantity must be positive, got %d", quantity),
	}
}

func NewInsufficientBalanceError(balance, requested int) *DomainError {
	return &DomainError{
		Code:   ErrCodeInsufficientBalance,
		Detail: fmt.Sprintf("insufficient balance: have %d, need %d", balance, requested),
	}
}

func NewInvalidRefundQuantityError(quantity int) *DomainError {
	return &DomainError{
		Code:   ErrCodeInvalidRefundQuantity,
		Detail: fmt.Sprintf("refund quantity must be positive, got %d", quantity),
	}
}

func NewInvalidAdjustmentError(detail string) *DomainError {
	return &DomainError{
		Code:   ErrCodeInvalidAdjustment,
		Detail: detail,
	}
}

func NewAdjustmentChainError(originalID string) *DomainError {
	return &DomainError{
		Code:   ErrCodeAdjustmentChain,
		Detail: fmt.Sprintf("cannot adjust %s: adjustments may only target original rows", originalID),
	}
}

func NewAlreadySettledError(id string) *DomainError {
	return &DomainError{
		Code:   ErrCodeAlreadySettled,
		Detail: fmt.Sprintf("payable %s is already settled", id),
	}
}

func NewInvalidPayableError(detail string) *DomainError {
	return &DomainError{
		Code:   ErrCodeInvalidPayable,
		Detail: detail,
	}
}

func NewCurrencyMismatchError(a, b string) *DomainError {
	return &DomainError{
		Code:   ErrCodeCurrencyMismatch,
		Detail: fmt.Sprintf("currency mismatch: %s vs %s", a, b),
	}
}

func NewNegativeAmountError(detail string) *DomainError {
	return &DomainError{
		Code:   ErrCodeNegativeAmount,
		Detail: detail,
	}
}

func NewInvalidCurrencyError(currency string) *DomainError {
	return &DomainError{
		Code:   ErrCodeInvalidCurrency,
		Detail: fmt.Sprintf("currency must be a 3-letter code, got %q", currency),
	}
}
