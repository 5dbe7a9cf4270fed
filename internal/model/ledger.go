package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LedgerType classifies a service ledger row and fixes its sign convention
type LedgerType string

const (
	LedgerTypeConsumption LedgerType = "consumption" // quantity < 0
	LedgerTypeRefund      LedgerType = "refund"      // quantity > 0
	LedgerTypeAdjustment  LedgerType = "adjustment"  // quantity != 0, either sign
)

// LedgerSource records where a ledger row originated, independent of its type
type LedgerSource string

const (
	LedgerSourceBookingCompleted LedgerSource = "booking_completed"
	LedgerSourceBookingCancelled LedgerSource = "booking_cancelled"
	LedgerSourceManualAdjustment LedgerSource = "manual_adjustment"
)

// ServiceLedger is one append-only row in a student's service entitlement
// ledger. Rows are created exclusively through RecordConsumption,
// RecordRefund and RecordAdjustment, each of which receives the current
// balance and decides accept/reject before constructing the row. A
// constructed row is never mutated or deleted; corrections are new rows.
type ServiceLedger struct {
	id               string
	studentID        string
	serviceType      string
	quantity         int
	ledgerType       LedgerType
	source           LedgerSource
	balanceAfter     int
	relatedHoldID    string
	relatedBookingID string
	reason           string
	bookingSource    string
	createdAt        time.Time
	createdBy        string
}

// ConsumptionOptions carries the optional provenance references for a
// consumption row. Empty strings mean absent.
type ConsumptionOptions struct {
	RelatedHoldID    string
	RelatedBookingID string
	BookingSource    string
}

// RecordConsumption creates a consumption row. The stored quantity is the
// negation of the requested quantity and the resulting balance must not go
// negative: the caller supplies the authoritative current balance and the
// factory rejects before any row exists.
func RecordConsumption(studentID, serviceType string, quantity, currentBalance int, createdBy string, opts ConsumptionOptions) (*ServiceLedger, error) {
	if quantity <= 0 {
		return nil, NewInvalidConsumptionQuantityError(quantity)
	}
	if currentBalance < quantity {
		return nil, NewInsufficientBalanceError(currentBalance, quantity)
	}
	return &ServiceLedger{
		id:               uuid.NewString(),
		studentID:        studentID,
		serviceType:      serviceType,
		quantity:         -quantity,
		ledgerType:       LedgerTypeConsumption,
		source:           LedgerSourceBookingCompleted,
		balanceAfter:     currentBalance - quantity,
		relatedHoldID:    opts.RelatedHoldID,
		relatedBookingID: opts.RelatedBookingID,
		bookingSource:    opts.BookingSource,
		createdAt:        time.Now().UTC(),
		createdBy:        createdBy,
	}, nil
}

// RecordRefund creates a refund row. Refunds have no upper bound: a refund
// is always accepted as long as the quantity is positive.
func RecordRefund(studentID, serviceType string, quantity, currentBalance int, createdBy, relatedBookingID, bookingSource string) (*ServiceLedger, error) {
	if quantity <= 0 {
		return nil, NewInvalidRefundQuantityError(quantity)
	}
	return &ServiceLedger{
		id:               uuid.NewString(),
		studentID:        studentID,
		serviceType:      serviceType,
		quantity:         quantity,
		ledgerType:       LedgerTypeRefund,
		source:           LedgerSourceBookingCancelled,
		balanceAfter:     currentBalance + quantity,
		relatedBookingID: relatedBookingID,
		bookingSource:    bookingSource,
		createdAt:        time.Now().UTC(),
		createdBy:        createdBy,
	}, nil
}

// RecordAdjustment creates a manual adjustment row. The quantity keeps the
// caller's sign verbatim, must be non-zero, must not take the balance
// negative, and requires a non-blank reason for the audit trail.
func RecordAdjustment(studentID, serviceType string, quantity, currentBalance int, reason, createdBy string) (*ServiceLedger, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, NewInvalidAdjustmentError("adjustment reason is required")
	}
	if quantity == 0 {
		return nil, NewInvalidAdjustmentError("adjustment quantity cannot be zero")
	}
	balanceAfter := currentBalance + quantity
	if balanceAfter < 0 {
		return nil, NewInvalidAdjustmentError(
			fmt.Sprintf("adjustment of %d would take balance %d below zero", quantity, currentBalance))
	}
	return &ServiceLedger{
		id:           uuid.NewString(),
		studentID:    studentID,
		serviceType:  serviceType,
		quantity:     quantity,
		ledgerType:   LedgerTypeAdjustment,
		source:       LedgerSourceManualAdjustment,
		balanceAfter: balanceAfter,
		reason:       reason,
		createdAt:    time.Now().UTC(),
		createdBy:    createdBy,
	}, nil
}

// ServiceLedgerProps is the storage representation of a ledger row
type ServiceLedgerProps struct {
	ID               string
	StudentID        string
	ServiceType      string
	Quantity         int
	Type             LedgerType
	Source           LedgerSource
	BalanceAfter     int
	RelatedHoldID    string
	RelatedBookingID string
	Reason           string
	BookingSource    string
	CreatedAt        time.Time
	CreatedBy        string
}

// ReconstructServiceLedger rebuilds a row from storage without re-running
// validation. Persistence round-trips only; never a write path.
func ReconstructServiceLedger(props ServiceLedgerProps) *ServiceLedger {
	return &ServiceLedger{
		id:               props.ID,
		studentID:        props.StudentID,
		serviceType:      props.ServiceType,
		quantity:         props.Quantity,
		ledgerType:       props.Type,
		source:           props.Source,
		balanceAfter:     props.BalanceAfter,
		relatedHoldID:    props.RelatedHoldID,
		relatedBookingID: props.RelatedBookingID,
		reason:           props.Reason,
		bookingSource:    props.BookingSource,
		createdAt:        props.CreatedAt,
		createdBy:        props.CreatedBy,
	}
}

// Getters: pure projections of the immutable row

func (l *ServiceLedger) ID() string                { return l.id }
func (l *ServiceLedger) StudentID() string         { return l.studentID }
func (l *ServiceLedger) ServiceType() string       { return l.serviceType }
func (l *ServiceLedger) Quantity() int             { return l.quantity }
func (l *ServiceLedger) Type() LedgerType          { return l.ledgerType }
func (l *ServiceLedger) Source() LedgerSource      { return l.source }
func (l *ServiceLedger) BalanceAfter() int         { return l.balanceAfter }
func (l *ServiceLedger) RelatedHoldID() string     { return l.relatedHoldID }
func (l *ServiceLedger) RelatedBookingID() string  { return l.relatedBookingID }
func (l *ServiceLedger) Reason() string            { return l.reason }
func (l *ServiceLedger) BookingSource() string     { return l.bookingSource }
func (l *ServiceLedger) CreatedAt() time.Time      { return l.createdAt }
func (l *ServiceLedger) CreatedBy() string         { return l.createdBy }

// Props exports the storage representation for persistence
func (l *ServiceLedger) Props() ServiceLedgerProps {
	return ServiceLedgerProps{
		ID:               l.id,
		StudentID:        l.studentID,
		ServiceType:      l.serviceType,
		Quantity:         l.quantity,
		Type:             l.ledgerType,
		Source:           l.source,
		BalanceAfter:     l.balanceAfter,
		RelatedHoldID:    l.relatedHoldID,
		RelatedBookingID: l.relatedBookingID,
		Reason:           l.reason,
		BookingSource:    l.bookingSource,
		CreatedAt:        l.createdAt,
		CreatedBy:        l.createdBy,
	}
}
