package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling at the call sites predictable.

// ===== Entitlement Errors =====
var (
	ErrStudentRequired     = errors.New("student id is required")
	ErrServiceTypeRequired = errors.New("service type is required")
	ErrLedgerNotFound      = errors.New("ledger entry not found")
)

// ===== Earnings Errors =====
var (
	ErrPayableNotFound  = errors.New("payable entry not found")
	ErrNoSessionRate    = errors.New("no rate configured for session type")
	ErrNothingToSettle  = errors.New("no unsettled payables for mentor")
	ErrSettlementFailed = errors.New("settlement update failed")
)

// ===== Session / Meeting Errors =====
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMeetingNotFound = errors.New("meeting not found")
)

// ===== Notification Errors =====
var (
	ErrUnsupportedChannel = errors.New("notification channel not supported")
	ErrRecipientRequired  = errors.New("notification recipient is required")
)

// ===== Event Bus Errors =====
var (
	ErrBusClosed = errors.New("event bus is closed")
)
