package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// MentorEarningsService accrues amounts owed to mentors for delivered
// sessions and manages corrections and settlement marking. It consumes
// ServiceSessionCompletedEvent off the bus: one payable row per completed
// session, priced by the session type's hourly rate times the actual
// elapsed hours.
type MentorEarningsService struct {
	payableRepo PayableStore
	rates       map[string]model.Money // session type code -> hourly rate
	logger      *slog.Logger
}

// MentorEarningsServiceConfig holds dependencies for the earnings service
type MentorEarningsServiceConfig struct {
	PayableRepo PayableStore
	Rates       map[string]model.Money
	Logger      *slog.Logger
}

// NewMentorEarningsService creates a new earnings service
func NewMentorEarningsService(cfg MentorEarningsServiceConfig) *MentorEarningsService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MentorEarningsService{
		payableRepo: cfg.PayableRepo,
		rates:       cfg.Rates,
		logger:      logger,
	}
}

// Register subscribes the accrual handler on the bus
func (s *MentorEarningsService) Register(bus *EventBus) {
	bus.Subscribe(model.EventServiceSessionCompleted, s.HandleSessionCompleted)
}

// HandleSessionCompleted accrues the payable for a completed session
func (s *MentorEarningsService) HandleSessionCompleted(ctx context.Context, event model.Event) error {
	data, ok := event.Data.(model.ServiceSessionCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload for %s: %T", event.Type, event.Data)
	}
	_, err := s.Accrue(ctx, data)
	return err
}

// Accrue creates the payable row for a completed session. Idempotency:
// a session that already has an original row is skipped, since completion
// events may be redelivered.
func (s *MentorEarningsService) Accrue(ctx context.Context, completed model.ServiceSessionCompletedEvent) (*model.MentorPayableLedger, error) {
	rate, ok := s.rates[completed.ServiceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSessionRate, completed.ServiceType)
	}

	existing, err := s.payableRepo.FindByReferenceID(ctx, completed.SessionID)
	if err != nil {
		return nil, err
	}
	for _, row := range existing {
		if !row.IsAdjustment() {
			s.logger.Info("payable already accrued, skipping",
				slog.String("session_id", completed.SessionID),
			)
			return row, nil
		}
	}

	amount, err := rate.Multiply(completed.Hours)
	if err != nil {
		return nil, err
	}

	payable, err := model.NewMentorPayable(
		completed.SessionID,
		completed.MentorID,
		completed.StudentID,
		completed.ServiceType,
		rate,
		amount,
		"system",
	)
	if err != nil {
		return nil, err
	}

	if err := s.payableRepo.Save(ctx, payable); err != nil {
		return nil, err
	}

	s.logger.Info("mentor payable accrued",
		slog.String("payable_id", payable.ID()),
		slog.String("mentor_id", completed.MentorID),
		slog.String("session_id", completed.SessionID),
		slog.String("amount", payable.Amount().String()),
	)
	return payable, nil
}

// Adjust corrects an original payable's amount with a new adjustment row
func (s *MentorEarningsService) Adjust(ctx context.Context, payableID string, adjustedAmount model.Money, reason, createdBy string) (*model.MentorPayableLedger, error) {
	original, err := s.payableRepo.FindByID(ctx, payableID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPayableNotFound
		}
		return nil, err
	}

	adjustment, err := model.NewPayableAdjustment(original, adjustedAmount, reason, createdBy)
	if err != nil {
		return nil, err
	}

	if err := s.payableRepo.Save(ctx, adjustment); err != nil {
		return nil, err
	}
	return adjustment, nil
}

// Settle marks all unsettled payables for a mentor as settled under one
// settlement id and returns the rows settled
func (s *MentorEarningsService) Settle(ctx context.Context, mentorID, settlementID string, at time.Time) ([]*model.MentorPayableLedger, error) {
	unsettled, err := s.payableRepo.FindUnsettledByMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if len(unsettled) == 0 {
		return nil, ErrNothingToSettle
	}

	ids := make([]string, 0, len(unsettled))
	settled := make([]*model.MentorPayableLedger, 0, len(unsettled))
	for _, row := range unsettled {
		marked, err := row.MarkAsSettled(settlementID, at)
		if err != nil {
			return nil, err
		}
		ids = append(ids, row.ID())
		settled = append(settled, marked)
	}

	if err := s.payableRepo.MarkSettled(ctx, ids, settlementID, at); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
	return settled, nil
}
