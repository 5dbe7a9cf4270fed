package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
	"github.com/forgo/mentora/api/internal/repository"
)

// balanceConflictRetries bounds how often a write path re-reads the balance
// after losing a race to a concurrent writer
const balanceConflictRetries = 3

// EntitlementService executes the balance-affecting commands against a
// student's service entitlement ledger. Every write composes the balance
// read, the entity factory's validation and the guarded insert so that two
// concurrent consumptions of the same entitlement serialize instead of
// overdrawing it. Domain validation errors propagate to the caller
// unchanged.
type EntitlementService struct {
	ledgerRepo LedgerStore
	logger     *slog.Logger
}

// EntitlementServiceConfig holds dependencies for the entitlement service
type EntitlementServiceConfig struct {
	LedgerRepo LedgerStore
	Logger     *slog.Logger
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(cfg EntitlementServiceConfig) *EntitlementService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EntitlementService{
		ledgerRepo: cfg.LedgerRepo,
		logger:     logger,
	}
}

// Consume records a service consumption against the student's balance.
// Fails without writing when the quantity is invalid or the balance is
// insufficient.
func (s *EntitlementService) Consume(ctx context.Context, studentID, serviceType string, quantity int, createdBy string, opts model.ConsumptionOptions) (*model.ServiceLedger, error) {
	if err := validateEntitlementKey(studentID, serviceType); err != nil {
		return nil, err
	}
	return s.record(ctx, studentID, serviceType, func(balance int) (*model.ServiceLedger, error) {
		return model.RecordConsumption(studentID, serviceType, quantity, balance, createdBy, opts)
	})
}

// Refund records a refund onto the student's balance. Refunds have no
// upper bound.
func (s *EntitlementService) Refund(ctx context.Context, studentID, serviceType string, quantity int, createdBy, relatedBookingID, bookingSource string) (*model.ServiceLedger, error) {
	if err := validateEntitlementKey(studentID, serviceType); err != nil {
		return nil, err
	}
	return s.record(ctx, studentID, serviceType, func(balance int) (*model.ServiceLedger, error) {
		return model.RecordRefund(studentID, serviceType, quantity, balance, createdBy, relatedBookingID, bookingSource)
	})
}

// Adjust records a signed manual adjustment. The reason is mandatory and
// the resulting balance must stay non-negative.
func (s *EntitlementService) Adjust(ctx context.Context, studentID, serviceType string, quantity int, reason, createdBy string) (*model.ServiceLedger, error) {
	if err := validateEntitlementKey(studentID, serviceType); err != nil {
		return nil, err
	}
	return s.record(ctx, studentID, serviceType, func(balance int) (*model.ServiceLedger, error) {
		return model.RecordAdjustment(studentID, serviceType, quantity, balance, reason, createdBy)
	})
}

// record runs the read-validate-write cycle, re-reading the balance and
// re-validating when a concurrent writer invalidated it mid-flight
func (s *EntitlementService) record(ctx context.Context, studentID, serviceType string, factory func(balance int) (*model.ServiceLedger, error)) (*model.ServiceLedger, error) {
	var lastErr error
	for attempt := 0; attempt < balanceConflictRetries; attempt++ {
		balance, err := s.ledgerRepo.CalculateBalance(ctx, studentID, serviceType)
		if err != nil {
			return nil, err
		}

		ledger, err := factory(balance)
		if err != nil {
			return nil, err
		}

		err = s.ledgerRepo.SaveGuarded(ctx, ledger, balance)
		if err == nil {
			return ledger, nil
		}
		if !errors.Is(err, repository.ErrBalanceConflict) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("ledger balance conflict, re-reading",
			slog.String("student_id", studentID),
			slog.String("service_type", serviceType),
			slog.Int("attempt", attempt+1),
		)
	}
	return nil, lastErr
}

// Entry returns a single ledger row by id, for audit lookups
func (s *EntitlementService) Entry(ctx context.Context, id string) (*model.ServiceLedger, error) {
	entry, err := s.ledgerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrLedgerNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Balance returns the current balance for one entitlement
func (s *EntitlementService) Balance(ctx context.Context, studentID, serviceType string) (int, error) {
	if err := validateEntitlementKey(studentID, serviceType); err != nil {
		return 0, err
	}
	return s.ledgerRepo.CalculateBalance(ctx, studentID, serviceType)
}

// History returns the full ledger history for one entitlement, oldest first
func (s *EntitlementService) History(ctx context.Context, studentID, serviceType string) ([]*model.ServiceLedger, error) {
	if err := validateEntitlementKey(studentID, serviceType); err != nil {
		return nil, err
	}
	return s.ledgerRepo.FindByStudentAndServiceType(ctx, studentID, serviceType)
}

func validateEntitlementKey(studentID, serviceType string) error {
	if studentID == "" {
		return ErrStudentRequired
	}
	if serviceType == "" {
		return ErrServiceTypeRequired
	}
	return nil
}
