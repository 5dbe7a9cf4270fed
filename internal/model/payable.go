package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MentorPayableLedger is one append-only row in the mentor payables ledger:
// an amount owed to a mentor for a delivered session, or a correction of
// such an amount. An adjustment row references the original through
// originalID and supersedes its amount; adjustments may only target original
// rows, never other adjustments. Settlement is one-way.
type MentorPayableLedger struct {
	id               string
	referenceID      string
	mentorID         string
	studentID        string
	sessionTypeCode  string
	price            Money
	amount           Money
	originalID       string
	adjustmentReason string
	settlementID     string
	settledAt        *time.Time
	createdAt        time.Time
	createdBy        string
}

// NewMentorPayable creates an original earning row. Price and amount must
// share a currency.
func NewMentorPayable(referenceID, mentorID, studentID, sessionTypeCode string, price, amount Money, createdBy string) (*MentorPayableLedger, error) {
	if referenceID == "" {
		return nil, NewInvalidPayableError("reference id is required")
	}
	if mentorID == "" {
		return nil, NewInvalidPayableError("mentor id is required")
	}
	if price.Currency != amount.Currency {
		return nil, NewCurrencyMismatchError(price.Currency, amount.Currency)
	}
	return &MentorPayableLedger{
		id:              uuid.NewString(),
		referenceID:     referenceID,
		mentorID:        mentorID,
		studentID:       studentID,
		sessionTypeCode: sessionTypeCode,
		price:           price,
		amount:          amount,
		createdAt:       time.Now().UTC(),
		createdBy:       createdBy,
	}, nil
}

// NewPayableAdjustment creates an adjustment row correcting an original
// row's amount. The adjusted amount replaces the original's for settlement
// purposes; Money being non-negative keeps the cumulative amount at or
// above zero. Adjusting an adjustment or a settled row is rejected.
func NewPayableAdjustment(original *MentorPayableLedger, adjustedAmount Money, reason, createdBy string) (*MentorPayableLedger, error) {
	if original.originalID != "" {
		return nil, NewAdjustmentChainError(original.id)
	}
	if original.settledAt != nil {
		return nil, NewAlreadySettledError(original.id)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, NewInvalidPayableError("adjustment reason is required")
	}
	if adjustedAmount.Currency != original.amount.Currency {
		return nil, NewCurrencyMismatchError(adjustedAmount.Currency, original.amount.Currency)
	}
	return &MentorPayableLedger{
		id:               uuid.NewString(),
		referenceID:      original.referenceID,
		mentorID:         original.mentorID,
		studentID:        original.studentID,
		sessionTypeCode:  original.sessionTypeCode,
		price:            original.price,
		amount:           adjustedAmount,
		originalID:       original.id,
		adjustmentReason: reason,
		createdAt:        time.Now().UTC(),
		createdBy:        createdBy,
	}, nil
}

// MarkAsSettled returns a settled copy of the row. Re-settling is rejected.
func (p *MentorPayableLedger) MarkAsSettled(settlementID string, at time.Time) (*MentorPayableLedger, error) {
	if p.settledAt != nil {
		return nil, NewAlreadySettledError(p.id)
	}
	if settlementID == "" {
		return nil, NewInvalidPayableError("settlement id is required")
	}
	settled := *p
	settled.settlementID = settlementID
	settledAt := at.UTC()
	settled.settledAt = &settledAt
	return &settled, nil
}

// MentorPayableProps is the storage representation of a payable row
type MentorPayableProps struct {
	ID               string
	ReferenceID      string
	MentorID         string
	StudentID        string
	SessionTypeCode  string
	Price            Money
	Amount           Money
	OriginalID       string
	AdjustmentReason string
	SettlementID     string
	SettledAt        *time.Time
	CreatedAt        time.Time
	CreatedBy        string
}

// ReconstructMentorPayable rebuilds a row from storage without re-validating
func ReconstructMentorPayable(props MentorPayableProps) *MentorPayableLedger {
	return &MentorPayableLedger{
		id:               props.ID,
		referenceID:      props.ReferenceID,
		mentorID:         props.MentorID,
		studentID:        props.StudentID,
		sessionTypeCode:  props.SessionTypeCode,
		price:            props.Price,
		amount:           props.Amount,
		originalID:       props.OriginalID,
		adjustmentReason: props.AdjustmentReason,
		settlementID:     props.SettlementID,
		settledAt:        props.SettledAt,
		createdAt:        props.CreatedAt,
		createdBy:        props.CreatedBy,
	}
}

func (p *MentorPayableLedger) ID() string               { return p.id }
func (p *MentorPayableLedger) ReferenceID() string      { return p.referenceID }
func (p *MentorPayableLedger) MentorID() string         { return p.mentorID }
func (p *MentorPayableLedger) StudentID() string        { return p.studentID }
func (p *MentorPayableLedger) SessionTypeCode() string  { return p.sessionTypeCode }
func (p *MentorPayableLedger) Price() Money             { return p.price }
func (p *MentorPayableLedger) Amount() Money            { return p.amount }
func (p *MentorPayableLedger) OriginalID() string       { return p.originalID }
func (p *MentorPayableLedger) AdjustmentReason() string { return p.adjustmentReason }
func (p *MentorPayableLedger) SettlementID() string     { return p.settlementID }
func (p *MentorPayableLedger) SettledAt() *time.Time    { return p.settledAt }
func (p *MentorPayableLedger) CreatedAt() time.Time     { return p.createdAt }
func (p *MentorPayableLedger) CreatedBy() string        { return p.createdBy }

// IsAdjustment reports whether this row corrects another row
func (p *MentorPayableLedger) IsAdjustment() bool { return p.originalID != "" }

// IsSettled reports whether this row has been settled
func (p *MentorPayableLedger) IsSettled() bool { return p.settledAt != nil }

// Props exports the storage representation for persistence
func (p *MentorPayableLedger) Props() MentorPayableProps {
	return MentorPayableProps{
		ID:               p.id,
		ReferenceID:      p.referenceID,
		MentorID:         p.mentorID,
		StudentID:        p.studentID,
		SessionTypeCode:  p.sessionTypeCode,
		Price:            p.price,
		Amount:           p.amount,
		OriginalID:       p.originalID,
		AdjustmentReason: p.adjustmentReason,
		SettlementID:     p.settlementID,
		SettledAt:        p.settledAt,
		CreatedAt:        p.createdAt,
		CreatedBy:        p.createdBy,
	}
}
